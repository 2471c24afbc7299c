package domain

import "fmt"

// TaskStatus is the lifecycle of one ingestion task. FAILED is terminal for
// the status record only; the broker may still redeliver the message and a
// later attempt overwrites it.
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "QUEUED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskStatusQueued, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// IngestionTask is the queue payload. The retry counter rides in the body
// because a broker-level requeue cannot mutate the message.
type IngestionTask struct {
	TaskID      string `json:"task_id"`
	ResumeID    int64  `json:"resume_id"`
	OwnerID     int64  `json:"owner_id"`
	ContentHash string `json:"content_hash"`
	RetryCount  int    `json:"retry_count"`
}

// TaskStatusRecord is the observability read model kept in the cache store
// under a bounded retention window. It is advisory data, not source of truth.
type TaskStatusRecord struct {
	Status       TaskStatus `json:"status"`
	ResumeID     int64      `json:"resume_id,omitempty"`
	CandidateID  int64      `json:"candidate_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Progress     int        `json:"progress"`
}
