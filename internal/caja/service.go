package caja

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/almacen-pos/almacen/internal/shared"
)

// AuditPort records ledger lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// HistoryCache caches history listings; Bump invalidates them.
type HistoryCache interface {
	FetchJSON(ctx context.Context, parts []string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// Service owns every state transition of register sessions. Authoritative
// state lives in the repository; the service keeps none in memory.
type Service struct {
	repo    Repository
	audit   AuditPort
	cache   HistoryCache
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs a Service. audit, cache, metrics and logger are optional.
func NewService(repo Repository, audit AuditPort, cache HistoryCache, metrics *Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		audit:   audit,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Open starts a new session. It fails with ErrConflict when a session is
// already open; the check and insert run under one advisory lock.
func (s *Service) Open(ctx context.Context, in OpenInput) (Session, error) {
	if err := in.Validate(); err != nil {
		return Session{}, err
	}
	in = in.normalise()

	var session Session
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockOpenSlot(ctx); err != nil {
			return err
		}
		_, found, err := tx.FindOpenSession(ctx, LockNone)
		if err != nil {
			return err
		}
		if found {
			return errSessionAlreadyOpen
		}
		session, err = tx.InsertSession(ctx, in, s.now())
		return err
	})
	if err != nil {
		return Session{}, s.classify(ctx, "open session", err)
	}

	s.metrics.sessionOpened()
	s.invalidateHistory(ctx)
	s.record(ctx, "caja.open", session.ID, map[string]any{
		"opening_amount": session.OpeningAmount.String(),
		"description":    session.Description,
	})
	return session, nil
}

// AddMovement appends a movement to the open session. The open row is held
// FOR SHARE so a concurrent Close waits until the movement is committed.
func (s *Service) AddMovement(ctx context.Context, in MovementInput) (Movement, error) {
	if err := in.Validate(); err != nil {
		return Movement{}, err
	}
	in = in.normalise()

	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		session, found, err := tx.FindOpenSession(ctx, LockShare)
		if err != nil {
			return err
		}
		if !found {
			return errNoOpenSession
		}
		movement, err = tx.InsertMovement(ctx, session.ID, in, s.now())
		return err
	})
	if err != nil {
		return Movement{}, s.classify(ctx, "add movement", err)
	}

	s.metrics.movementRecorded(movement)
	return movement, nil
}

// Close computes the closing balance of the open session and persists it.
// The aggregate and the conditional update run in one transaction holding
// the session row FOR UPDATE, so each session is closed at most once.
func (s *Service) Close(ctx context.Context) (ClosedSession, error) {
	var closed ClosedSession
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		session, found, err := tx.FindOpenSession(ctx, LockUpdate)
		if err != nil {
			return err
		}
		if !found {
			return errNoOpenSession
		}
		totals, err := tx.SumMovements(ctx, session.ID)
		if err != nil {
			return err
		}
		summary := Summarise(session.OpeningAmount, totals)
		updated, ok, err := tx.MarkClosed(ctx, session.ID, summary.Net, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return errNoOpenSession
		}
		closed = ClosedSession{Session: updated, Summary: summary}
		return nil
	})
	if err != nil {
		return ClosedSession{}, s.classify(ctx, "close session", err)
	}

	s.metrics.sessionClosed(closed.Summary.Net)
	s.invalidateHistory(ctx)
	s.record(ctx, "caja.close", closed.Session.ID, map[string]any{
		"opening_amount": closed.Session.OpeningAmount.String(),
		"sales_total":    closed.Summary.Sales.String(),
		"outflow_total":  closed.Summary.Outflow.String(),
		"closing_amount": closed.Summary.Net.String(),
	})
	return closed, nil
}

// History lists sessions ordered by opening time, most recent first.
func (s *Service) History(ctx context.Context, page Page) ([]Session, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	loader := func(ctx context.Context) (any, error) {
		return s.repo.ListSessions(ctx, page)
	}
	if s.cache == nil {
		sessions, err := s.repo.ListSessions(ctx, page)
		if err != nil {
			return nil, s.classify(ctx, "list sessions", err)
		}
		return sessions, nil
	}
	var sessions []Session
	parts := []string{"history", strconv.Itoa(page.Limit), strconv.Itoa(page.Offset)}
	if err := s.cache.FetchJSON(ctx, parts, &sessions, loader); err != nil {
		return nil, s.classify(ctx, "list sessions", err)
	}
	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}

// Current returns the open session with its running summary.
func (s *Service) Current(ctx context.Context) (SessionDetail, error) {
	session, found, err := s.repo.FindOpenSession(ctx)
	if err != nil {
		return SessionDetail{}, s.classify(ctx, "load open session", err)
	}
	if !found {
		return SessionDetail{}, errNoOpenSession
	}
	totals, err := s.repo.SumMovements(ctx, session.ID)
	if err != nil {
		return SessionDetail{}, s.classify(ctx, "sum movements", err)
	}
	return SessionDetail{Session: session, Summary: Summarise(session.OpeningAmount, totals)}, nil
}

// Session returns a session with its movements. The summary of a closed
// session reports the persisted closing amount as Net.
func (s *Service) Session(ctx context.Context, id int64) (SessionDetail, error) {
	if id <= 0 {
		return SessionDetail{}, errInvalidID
	}
	session, found, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return SessionDetail{}, s.classify(ctx, "load session", err)
	}
	if !found {
		return SessionDetail{}, errSessionNotFound
	}
	movements, err := s.repo.ListMovements(ctx, id)
	if err != nil {
		return SessionDetail{}, s.classify(ctx, "list movements", err)
	}
	var totals Totals
	for _, m := range movements {
		totals = totals.Add(m)
	}
	summary := Summarise(session.OpeningAmount, totals)
	if session.ClosingAmount != nil {
		summary.Net = *session.ClosingAmount
	}
	return SessionDetail{Session: session, Movements: movements, Summary: summary}, nil
}

// classify passes ledger errors through and turns anything else into a
// store error, logging the cause.
func (s *Service) classify(ctx context.Context, op string, err error) error {
	var ledgerErr *Error
	if errors.As(err, &ledgerErr) {
		return ledgerErr
	}
	s.logger.ErrorContext(ctx, "caja store failure", slog.String("op", op), slog.Any("error", err))
	return storeError(err)
}

func (s *Service) invalidateHistory(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.WarnContext(ctx, "caja history cache bump", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, action string, sessionID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	correlationID := middleware.GetReqID(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	meta["correlation_id"] = correlationID
	err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "caja_sesion",
		EntityID: strconv.FormatInt(sessionID, 10),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "caja audit record", slog.String("action", action), slog.Any("error", err))
	}
}
