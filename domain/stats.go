package domain

import "time"

// Stats is the per-user task count breakdown. The server-side aggregation
// and the local fallback both produce this shape, so callers cannot tell
// the source apart from the result alone.
type Stats struct {
	Total     int       `json:"total"`
	Active    int       `json:"active"`
	Completed int       `json:"completed"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// ComputeStats folds over an already-loaded snapshot. Timestamp reflects
// when this computation ran, not when the snapshot was taken.
func ComputeStats(tasks []Task, userID string, now time.Time) Stats {
	s := Stats{UserID: userID, Timestamp: now}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		} else {
			s.Active++
		}
	}
	s.Total = len(tasks)
	return s
}
