package domain

import "encoding/json"

const (
	EntityTypeTask = "task"

	TaskCreated = "task-created"
)

// Event is the envelope delivered for record-store writes. Delivery is
// at-least-once: consumers must tolerate redelivery of the same event.
type Event struct {
	ID         string          `json:"id"`
	EntityID   string          `json:"entityId"`
	EntityType string          `json:"entityType"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	Time       int64           `json:"time"`
	UserID     string          `json:"userId"`
}

// TaskCreatedData is the payload carried by a task-created event.
type TaskCreatedData struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
