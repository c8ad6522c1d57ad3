package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusCreated    TaskStatus = "CREATED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDone       TaskStatus = "DONE"
)

type OutboxTask struct {
	ID          uuid.UUID       `db:"id"`
	Status      TaskStatus      `db:"status"`
	Payload     json.RawMessage `db:"payload"`
	Topic       string          `db:"topic"`
	Key         string          `db:"key"`
	Attempts    int             `db:"attempts"`
	LastError   *string         `db:"last_error"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}

// DomainEventPayload is the message body relayed to the event stream.
type DomainEventPayload struct {
	Type        string          `json:"type"`
	OccurredAt  time.Time       `json:"occurred_at"`
	RequestID   int64           `json:"request_id,omitempty"`
	OfferID     int64           `json:"offer_id,omitempty"`
	ContainerID string          `json:"container_id,omitempty"`
	Data        json.RawMessage `json:"data"`
}
