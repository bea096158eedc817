package domain

import "time"

// Task is a single task record. A task is visible to, and mutable by, only
// its owner; deletion removes it from the store permanently.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User is a directory entry for an authenticated principal. Email may be
// empty when the provider has no contact address on file.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Filter selects a slice of an already-loaded snapshot. It is a view
// concern only and is never persisted.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Apply returns the tasks matching the filter. The input slice is left
// untouched; applying the same filter twice yields the same result.
func (f Filter) Apply(tasks []Task) []Task {
	if f == FilterAll || f == "" {
		out := make([]Task, len(tasks))
		copy(out, tasks)
		return out
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if (f == FilterActive && !t.Completed) || (f == FilterCompleted && t.Completed) {
			out = append(out, t)
		}
	}
	return out
}

// CountActive counts tasks not yet completed.
func CountActive(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

// CountCompleted counts completed tasks.
func CountCompleted(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}
