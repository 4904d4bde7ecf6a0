package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCajaIntegrity audits the cash register ledger.
	TaskCajaIntegrity = "caja:integrity"
)

// CajaIntegrityPayload configures an integrity run.
type CajaIntegrityPayload struct {
	StaleAfterSeconds int64 `json:"stale_after_seconds"`
}

// StaleAfter returns the stale threshold as a duration.
func (p CajaIntegrityPayload) StaleAfter() time.Duration {
	return time.Duration(p.StaleAfterSeconds) * time.Second
}

// NewCajaIntegrityTask constructs the task for the integrity job.
func NewCajaIntegrityTask(staleAfter time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(CajaIntegrityPayload{StaleAfterSeconds: int64(staleAfter / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCajaIntegrity, data), nil
}
