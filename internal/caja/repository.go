package caja

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/almacen-pos/almacen/internal/platform/db"
)

// LockMode selects the row lock taken when reading the open session.
type LockMode int

const (
	LockNone LockMode = iota
	LockShare
	LockUpdate
)

func (m LockMode) clause() string {
	switch m {
	case LockShare:
		return " FOR SHARE"
	case LockUpdate:
		return " FOR UPDATE"
	default:
		return ""
	}
}

// openSessionLockKey scopes the advisory lock guarding session creation.
const openSessionLockKey int64 = 0x6361_6a61

// Repository is the persistence port of the ledger. Writes only happen
// through WithTx.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindOpenSession(ctx context.Context) (Session, bool, error)
	GetSession(ctx context.Context, id int64) (Session, bool, error)
	ListSessions(ctx context.Context, page Page) ([]Session, error)
	ListMovements(ctx context.Context, sessionID int64) ([]Movement, error)
	SumMovements(ctx context.Context, sessionID int64) (Totals, error)
}

// TxRepository exposes the statements run inside a ledger transaction.
type TxRepository interface {
	LockOpenSlot(ctx context.Context) error
	FindOpenSession(ctx context.Context, mode LockMode) (Session, bool, error)
	InsertSession(ctx context.Context, in OpenInput, openedAt time.Time) (Session, error)
	InsertMovement(ctx context.Context, sessionID int64, in MovementInput, createdAt time.Time) (Movement, error)
	SumMovements(ctx context.Context, sessionID int64) (Totals, error)
	MarkClosed(ctx context.Context, sessionID int64, closingAmount decimal.Decimal, closedAt time.Time) (Session, bool, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

var _ Repository = (*PGRepository)(nil)

// WithTx runs fn inside a READ COMMITTED transaction. Row locks taken by
// FindOpenSession re-evaluate against the latest committed state, so a
// session closed by a concurrent transaction is no longer returned.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("caja: repository not initialised")
	}
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{q: tx})
	})
}

// FindOpenSession returns the session with no closed_at, if any.
func (r *PGRepository) FindOpenSession(ctx context.Context) (Session, bool, error) {
	return findOpenSession(ctx, r.pool, LockNone)
}

// GetSession loads a session by id.
func (r *PGRepository) GetSession(ctx context.Context, id int64) (Session, bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM caja_sesiones WHERE id = $1`, id)
	return scanOptionalSession(row)
}

// ListSessions returns sessions most recently opened first.
func (r *PGRepository) ListSessions(ctx context.Context, page Page) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM caja_sesiones ORDER BY opened_at DESC, id DESC`
	args := []any{}
	if page.Limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, page.Limit, max(page.Offset, 0))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListMovements returns the movements of a session in insertion order.
func (r *PGRepository) ListMovements(ctx context.Context, sessionID int64) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+` FROM caja_movimientos WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// SumMovements aggregates the sales and outflow totals of a session.
func (r *PGRepository) SumMovements(ctx context.Context, sessionID int64) (Totals, error) {
	return sumMovements(ctx, r.pool, sessionID)
}

type pgTx struct {
	q querier
}

func (t *pgTx) LockOpenSlot(ctx context.Context) error {
	_, err := t.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, openSessionLockKey)
	return err
}

func (t *pgTx) FindOpenSession(ctx context.Context, mode LockMode) (Session, bool, error) {
	return findOpenSession(ctx, t.q, mode)
}

func (t *pgTx) InsertSession(ctx context.Context, in OpenInput, openedAt time.Time) (Session, error) {
	row := t.q.QueryRow(ctx, `INSERT INTO caja_sesiones (opening_amount, description, opened_at)
		VALUES ($1, $2, $3)
		RETURNING `+sessionColumns, in.OpeningAmount, in.Description, openedAt)
	s, err := scanSession(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Session{}, errSessionAlreadyOpen
		}
		return Session{}, err
	}
	return s, nil
}

func (t *pgTx) InsertMovement(ctx context.Context, sessionID int64, in MovementInput, createdAt time.Time) (Movement, error) {
	row := t.q.QueryRow(ctx, `INSERT INTO caja_movimientos (session_id, amount, kind, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+movementColumns, sessionID, in.Amount, string(in.Kind), in.Description, createdAt)
	return scanMovement(row)
}

func (t *pgTx) SumMovements(ctx context.Context, sessionID int64) (Totals, error) {
	return sumMovements(ctx, t.q, sessionID)
}

func (t *pgTx) MarkClosed(ctx context.Context, sessionID int64, closingAmount decimal.Decimal, closedAt time.Time) (Session, bool, error) {
	row := t.q.QueryRow(ctx, `UPDATE caja_sesiones
		SET closed_at = $2, closing_amount = $3
		WHERE id = $1 AND closed_at IS NULL
		RETURNING `+sessionColumns, sessionID, closedAt, closingAmount)
	return scanOptionalSession(row)
}

const sessionColumns = `id, opening_amount, description, opened_at, closed_at, closing_amount`

const movementColumns = `id, session_id, amount, kind, description, created_at`

func findOpenSession(ctx context.Context, q querier, mode LockMode) (Session, bool, error) {
	row := q.QueryRow(ctx, `SELECT `+sessionColumns+` FROM caja_sesiones WHERE closed_at IS NULL ORDER BY id LIMIT 1`+mode.clause())
	return scanOptionalSession(row)
}

func sumMovements(ctx context.Context, q querier, sessionID int64) (Totals, error) {
	var totals Totals
	err := q.QueryRow(ctx, `SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'sale'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind IN ('payment', 'expense')), 0)
		FROM caja_movimientos WHERE session_id = $1`, sessionID).Scan(&totals.Sales, &totals.Outflow)
	return totals, err
}

func scanSession(row pgx.Row) (Session, error) {
	var (
		s       Session
		closing decimal.NullDecimal
	)
	if err := row.Scan(&s.ID, &s.OpeningAmount, &s.Description, &s.OpenedAt, &s.ClosedAt, &closing); err != nil {
		return Session{}, err
	}
	if closing.Valid {
		amount := closing.Decimal
		s.ClosingAmount = &amount
	}
	return s, nil
}

func scanOptionalSession(row pgx.Row) (Session, bool, error) {
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	return s, true, nil
}

func scanMovement(row pgx.Row) (Movement, error) {
	var (
		m    Movement
		kind string
	)
	if err := row.Scan(&m.ID, &m.SessionID, &m.Amount, &kind, &m.Description, &m.CreatedAt); err != nil {
		return Movement{}, err
	}
	m.Kind = Kind(kind)
	return m, nil
}

var _ IntegrityStore = (*PGRepository)(nil)

// ListOpenSessions returns every session without closed_at, oldest first.
func (r *PGRepository) ListOpenSessions(ctx context.Context) ([]Session, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+sessionColumns+` FROM caja_sesiones WHERE closed_at IS NULL ORDER BY opened_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListClosingMismatches recomputes the closing formula for every closed
// session and returns those whose stored closing_amount differs.
func (r *PGRepository) ListClosingMismatches(ctx context.Context) ([]Mismatch, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.id, s.opening_amount, s.description, s.opened_at, s.closed_at, s.closing_amount, t.expected
		FROM caja_sesiones s
		CROSS JOIN LATERAL (
			SELECT s.opening_amount
				+ COALESCE(SUM(m.amount) FILTER (WHERE m.kind = 'sale'), 0)
				- COALESCE(SUM(m.amount) FILTER (WHERE m.kind IN ('payment', 'expense')), 0) AS expected
			FROM caja_movimientos m WHERE m.session_id = s.id
		) t
		WHERE s.closed_at IS NOT NULL AND s.closing_amount IS DISTINCT FROM t.expected
		ORDER BY s.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mismatches := make([]Mismatch, 0)
	for rows.Next() {
		var (
			m       Mismatch
			closing decimal.NullDecimal
		)
		if err := rows.Scan(&m.Session.ID, &m.Session.OpeningAmount, &m.Session.Description, &m.Session.OpenedAt, &m.Session.ClosedAt, &closing, &m.Expected); err != nil {
			return nil, err
		}
		if closing.Valid {
			amount := closing.Decimal
			m.Session.ClosingAmount = &amount
		}
		mismatches = append(mismatches, m)
	}
	return mismatches, rows.Err()
}
