package caja

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Integrity check names, also used as metric labels.
const (
	CheckMultipleOpen    = "multiple_open"
	CheckStaleOpen       = "stale_open"
	CheckClosingMismatch = "closing_mismatch"
)

// IntegrityStore exposes the read-only queries used to audit the ledger.
type IntegrityStore interface {
	ListOpenSessions(ctx context.Context) ([]Session, error)
	ListClosingMismatches(ctx context.Context) ([]Mismatch, error)
}

// Mismatch is a closed session whose stored closing amount disagrees with
// its movements.
type Mismatch struct {
	Session  Session
	Expected decimal.Decimal
}

// IntegrityReport lists the ledger inconsistencies found at a point in time.
type IntegrityReport struct {
	CheckedAt  time.Time
	Open       []Session
	Stale      []Session
	Mismatches []Mismatch
}

// Counts returns the number of findings per check.
func (r IntegrityReport) Counts() map[string]int {
	counts := map[string]int{
		CheckMultipleOpen:    0,
		CheckStaleOpen:       len(r.Stale),
		CheckClosingMismatch: len(r.Mismatches),
	}
	if len(r.Open) > 1 {
		counts[CheckMultipleOpen] = len(r.Open) - 1
	}
	return counts
}

// Clean reports whether no check produced a finding.
func (r IntegrityReport) Clean() bool {
	return len(r.Open) <= 1 && len(r.Stale) == 0 && len(r.Mismatches) == 0
}

// CheckIntegrity inspects the store. Open sessions older than staleAfter are
// reported as stale; a zero staleAfter disables that check.
func CheckIntegrity(ctx context.Context, store IntegrityStore, now time.Time, staleAfter time.Duration) (IntegrityReport, error) {
	report := IntegrityReport{CheckedAt: now}
	open, err := store.ListOpenSessions(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}
	report.Open = open
	if staleAfter > 0 {
		for _, s := range open {
			if now.Sub(s.OpenedAt) > staleAfter {
				report.Stale = append(report.Stale, s)
			}
		}
	}
	mismatches, err := store.ListClosingMismatches(ctx)
	if err != nil {
		return IntegrityReport{}, err
	}
	report.Mismatches = mismatches
	return report, nil
}
