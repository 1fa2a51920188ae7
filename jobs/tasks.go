package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDepreciationRun posts the monthly depreciation charge for every
	// active asset.
	TaskDepreciationRun = "depreciation:run"
	// TaskLedgerIntegrity scans the ledger for unbalanced transactions and
	// mirror drift.
	TaskLedgerIntegrity = "ledger:integrity"
)

// DepreciationRunPayload scopes a depreciation run. A zero CompanyID
// covers every company with active assets; an empty Period means the
// current calendar month.
type DepreciationRunPayload struct {
	CompanyID int64  `json:"company_id,omitempty"`
	Period    string `json:"period,omitempty"` // YYYY-MM
	ActorID   int64  `json:"actor_id,omitempty"`
}

// NewDepreciationRunTask constructs the Asynq task.
func NewDepreciationRunTask(payload DepreciationRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDepreciationRun, data, asynq.Queue(QueueDefault)), nil
}

// NewLedgerIntegrityTask constructs the Asynq task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil, asynq.Queue(QueueDefault))
}
