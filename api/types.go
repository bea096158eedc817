package api

import (
	"context"

	"todo-stream/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, userID, title, description string) (domain.Task, error)
	ToggleTask(ctx context.Context, userID, id string) error
	DeleteTask(ctx context.Context, userID, id string) error
}

// Authenticator is implemented by types able to extract user IDs from
// Authorization headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}
