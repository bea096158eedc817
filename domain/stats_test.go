package domain

import (
	"testing"
	"time"
)

func TestComputeStats(t *testing.T) {
	tasks := []Task{
		{ID: "t1", Completed: true},
		{ID: "t2"},
		{ID: "t3", Completed: true},
		{ID: "t4"},
		{ID: "t5", Completed: true},
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stats := ComputeStats(tasks, "u1", now)
	if stats.Total != 5 || stats.Active != 2 || stats.Completed != 3 {
		t.Fatalf("expected {5 2 3}, got {%d %d %d}", stats.Total, stats.Active, stats.Completed)
	}
	if stats.UserID != "u1" {
		t.Fatalf("expected owner u1, got %s", stats.UserID)
	}
	if !stats.Timestamp.Equal(now) {
		t.Fatalf("expected timestamp %v, got %v", now, stats.Timestamp)
	}
}

func TestComputeStatsEmptySnapshot(t *testing.T) {
	stats := ComputeStats(nil, "u1", time.Now())
	if stats.Total != 0 || stats.Active != 0 || stats.Completed != 0 {
		t.Fatalf("expected zero counts, got %+v", stats)
	}
}
