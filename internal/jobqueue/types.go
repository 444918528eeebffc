// Package jobqueue is the two-tier job status store and worker pool for
// the async scoring pipeline (§4.9). An in-process sync.Map is
// authoritative; an optional Redis mirror lets a second worker process
// answer get_status for a job some other process owns.
package jobqueue

import "time"

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Job is the full record kept for one submitted scoring request.
type Job struct {
	ID        string    `json:"job_id"`
	OwnerID   string    `json:"owner_id"`
	Status    Status    `json:"status"`
	Payload   string    `json:"payload,omitempty"` // serialized EngineOutput once completed
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// terminal reports whether status is a terminal state that further writes
// must not override (§5: "set_result / set_error are terminal").
func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusError
}
