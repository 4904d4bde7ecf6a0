package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/almacen-pos/almacen/internal/caja"
	jobmetrics "github.com/almacen-pos/almacen/internal/jobs"
)

// CajaIntegrityJob reports ledger states the service should never produce.
type CajaIntegrityJob struct {
	Store   caja.IntegrityStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewCajaIntegrityJob initialises the integrity handler.
func NewCajaIntegrityJob(store caja.IntegrityStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *CajaIntegrityJob {
	return &CajaIntegrityJob{
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the integrity checks. Findings are logged and counted;
// only store failures fail the task.
func (j *CajaIntegrityJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Store == nil {
		return errors.New("caja integrity: handler not configured")
	}
	var payload CajaIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	start := j.now()
	tracker := j.metrics().Track(TaskCajaIntegrity)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Duration("stale_after", payload.StaleAfter()))
	logger.Info("starting caja integrity check")

	report, err := caja.CheckIntegrity(ctx, j.Store, start, payload.StaleAfter())
	if err != nil {
		logger.Error("caja integrity check failed", slog.Any("error", err))
		return err
	}

	if len(report.Open) > 1 {
		ids := make([]int64, 0, len(report.Open))
		for _, s := range report.Open {
			ids = append(ids, s.ID)
		}
		logger.Warn("multiple open caja sessions", slog.Any("session_ids", ids))
	}
	for _, s := range report.Stale {
		logger.Warn("stale caja session",
			slog.Int64("session_id", s.ID),
			slog.Time("opened_at", s.OpenedAt),
			slog.Duration("open_for", start.Sub(s.OpenedAt)),
		)
	}
	for _, m := range report.Mismatches {
		stored := "null"
		if m.Session.ClosingAmount != nil {
			stored = m.Session.ClosingAmount.String()
		}
		logger.Warn("caja closing amount mismatch",
			slog.Int64("session_id", m.Session.ID),
			slog.String("stored", stored),
			slog.String("expected", m.Expected.String()),
		)
	}
	for check, count := range report.Counts() {
		j.metrics().AddFindings(check, count)
	}

	logger.Info("completed caja integrity check",
		slog.Int("open", len(report.Open)),
		slog.Int("stale", len(report.Stale)),
		slog.Int("mismatches", len(report.Mismatches)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *CajaIntegrityJob) now() time.Time {
	if j.clock == nil {
		return time.Now().UTC()
	}
	return j.clock()
}

func (j *CajaIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *CajaIntegrityJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
