// Package caja implements the cash-register session ledger: opening and
// closing register sessions and the append-only movements recorded while a
// session is open.
package caja

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/almacen-pos/almacen/internal/shared"
)

// Kind classifies a monetary movement.
type Kind string

const (
	KindSale    Kind = "sale"
	KindPayment Kind = "payment"
	KindExpense Kind = "expense"
)

// DefaultOpenDescription is stored when a session is opened without one.
const DefaultOpenDescription = "Apertura de caja"

const moneyScale = shared.MoneyScale

var kindAliases = map[string]Kind{
	"sale":    KindSale,
	"payment": KindPayment,
	"expense": KindExpense,
	"venta":   KindSale,
	"pago":    KindPayment,
	"egreso":  KindExpense,
}

// ParseKind normalises raw into a Kind. Spanish names used by the register
// front-end are accepted as aliases.
func ParseKind(raw string) (Kind, bool) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw))]
	return k, ok
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSale, KindPayment, KindExpense:
		return true
	default:
		return false
	}
}

// Outflow reports whether the movement takes cash out of the register.
func (k Kind) Outflow() bool {
	return k == KindPayment || k == KindExpense
}

// Session is one open/close cycle of the register. ClosedAt and
// ClosingAmount are nil while the session is open.
type Session struct {
	ID            int64            `json:"id"`
	OpeningAmount decimal.Decimal  `json:"opening_amount"`
	Description   string           `json:"description"`
	OpenedAt      time.Time        `json:"opened_at"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
	ClosingAmount *decimal.Decimal `json:"closing_amount,omitempty"`
}

// IsOpen reports whether the session has not been closed yet.
func (s Session) IsOpen() bool {
	return s.ClosedAt == nil
}

// Movement is a single monetary event recorded against a session.
type Movement struct {
	ID          int64           `json:"id"`
	SessionID   int64           `json:"session_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        Kind            `json:"kind"`
	Description *string         `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Totals aggregates the movements of a session.
type Totals struct {
	Sales   decimal.Decimal
	Outflow decimal.Decimal
}

// Add accumulates a movement into the totals.
func (t Totals) Add(m Movement) Totals {
	switch {
	case m.Kind == KindSale:
		t.Sales = t.Sales.Add(m.Amount)
	case m.Kind.Outflow():
		t.Outflow = t.Outflow.Add(m.Amount)
	}
	return t
}

// Summary is the closing report of a session.
type Summary struct {
	Sales   decimal.Decimal
	Outflow decimal.Decimal
	Net     decimal.Decimal
}

// ClosingAmount applies the closing formula: opening + sales - outflow.
func ClosingAmount(opening decimal.Decimal, totals Totals) decimal.Decimal {
	return opening.Add(totals.Sales).Sub(totals.Outflow)
}

// Summarise builds the summary for a session and its totals.
func Summarise(opening decimal.Decimal, totals Totals) Summary {
	return Summary{Sales: totals.Sales, Outflow: totals.Outflow, Net: ClosingAmount(opening, totals)}
}

// ClosedSession is the result of closing a session.
type ClosedSession struct {
	Session Session
	Summary Summary
}

// SessionDetail bundles a session with its movements and summary.
type SessionDetail struct {
	Session   Session
	Movements []Movement
	Summary   Summary
}

// OpenInput carries the fields required to open a session.
type OpenInput struct {
	OpeningAmount decimal.Decimal
	Description   string
}

// Validate checks the opening amount is non-negative and fits the ledger
// columns.
func (in OpenInput) Validate() error {
	if !shared.AmountInRange(in.OpeningAmount) || in.OpeningAmount.IsNegative() {
		return errInvalidOpeningAmount
	}
	return nil
}

func (in OpenInput) normalise() OpenInput {
	in.OpeningAmount = in.OpeningAmount.Round(moneyScale)
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		in.Description = DefaultOpenDescription
	}
	return in
}

// MovementInput carries the fields required to record a movement.
type MovementInput struct {
	Amount      decimal.Decimal
	Kind        Kind
	Description *string
}

// Validate checks the amount is strictly positive, fits the ledger columns
// and the kind is known.
func (in MovementInput) Validate() error {
	if !shared.AmountInRange(in.Amount) || !in.Amount.Round(moneyScale).IsPositive() {
		return errInvalidAmount
	}
	if !in.Kind.Valid() {
		return errInvalidKind
	}
	return nil
}

func (in MovementInput) normalise() MovementInput {
	in.Amount = in.Amount.Round(moneyScale)
	if in.Description != nil {
		trimmed := strings.TrimSpace(*in.Description)
		if trimmed == "" {
			in.Description = nil
		} else {
			in.Description = &trimmed
		}
	}
	return in
}

// Page restricts a history listing. A zero Limit returns every session.
type Page struct {
	Limit  int
	Offset int
}

// Validate rejects negative bounds.
func (p Page) Validate() error {
	if p.Limit < 0 {
		return errInvalidLimit
	}
	if p.Offset < 0 {
		return errInvalidOffset
	}
	return nil
}
