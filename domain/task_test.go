package domain

import (
	"reflect"
	"testing"
)

func sampleTasks() []Task {
	return []Task{
		{ID: "t1", Title: "Write report", Completed: false, UserID: "u1"},
		{ID: "t2", Title: "Review PR", Completed: true, UserID: "u1"},
		{ID: "t3", Title: "Buy milk", Completed: false, UserID: "u1"},
		{ID: "t4", Title: "Book flights", Completed: true, UserID: "u1"},
		{ID: "t5", Title: "Call plumber", Completed: false, UserID: "u1"},
	}
}

func TestFilterApply(t *testing.T) {
	tasks := sampleTasks()
	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"t1", "t2", "t3", "t4", "t5"}},
		{FilterActive, []string{"t1", "t3", "t5"}},
		{FilterCompleted, []string{"t2", "t4"}},
		{Filter(""), []string{"t1", "t2", "t3", "t4", "t5"}},
	}
	for _, tt := range tests {
		got := tt.filter.Apply(tasks)
		ids := make([]string, len(got))
		for i, task := range got {
			ids[i] = task.ID
		}
		if !reflect.DeepEqual(ids, tt.want) {
			t.Fatalf("filter %q: expected %v, got %v", tt.filter, tt.want, ids)
		}
	}
	if len(tasks) != 5 {
		t.Fatalf("input slice was modified")
	}
}

func TestFilterIdempotent(t *testing.T) {
	tasks := sampleTasks()
	for _, f := range []Filter{FilterAll, FilterActive, FilterCompleted} {
		once := f.Apply(tasks)
		twice := f.Apply(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("filter %q not idempotent: %v != %v", f, once, twice)
		}
	}
}

func TestCountsSumToTotal(t *testing.T) {
	snapshots := [][]Task{
		nil,
		{},
		sampleTasks(),
		{{ID: "a", Completed: true}},
		{{ID: "a"}, {ID: "b"}, {ID: "c", Completed: true}},
	}
	for i, s := range snapshots {
		if CountActive(s)+CountCompleted(s) != len(s) {
			t.Fatalf("snapshot %d: active %d + completed %d != total %d", i, CountActive(s), CountCompleted(s), len(s))
		}
	}
}
