package domain

import (
	"testing"
	"time"
)

func taskAt(name string, created time.Time, completed, focus bool, u Urgency) Task {
	return Task{Name: name, CreatedAt: created, Completed: completed, TodaysFocus: focus, Urgency: u}
}

func names(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name
	}
	return out
}

func TestSortTasksDefaultOrder(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tasks := []Task{
		taskAt("old-done", base, true, false, UrgencyMedium),
		taskAt("new-open", base.Add(2*time.Hour), false, false, UrgencyMedium),
		taskAt("old-open", base.Add(time.Hour), false, false, UrgencyMedium),
		taskAt("focus-done", base, true, true, UrgencyMedium),
		taskAt("focus-open", base, false, true, UrgencyMedium),
	}

	SortTasks(tasks)

	want := []string{"focus-open", "focus-done", "new-open", "old-open", "old-done"}
	got := names(tasks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %q, got %q (full order %v)", i, want[i], got[i], got)
		}
	}
}

func TestSortFocusTasksOrdersByUrgency(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tasks := []Task{
		taskAt("done-high", base, true, true, UrgencyHigh),
		taskAt("open-low", base.Add(time.Hour), false, true, UrgencyLow),
		taskAt("open-high-old", base, false, true, UrgencyHigh),
		taskAt("open-high-new", base.Add(time.Hour), false, true, UrgencyHigh),
		taskAt("open-medium", base, false, true, UrgencyMedium),
	}

	SortFocusTasks(tasks)

	want := []string{"open-high-new", "open-high-old", "open-medium", "open-low", "done-high"}
	got := names(tasks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %q, got %q (full order %v)", i, want[i], got[i], got)
		}
	}
}

func TestUrgencyValid(t *testing.T) {
	t.Parallel()

	for _, u := range []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh} {
		if !u.Valid() {
			t.Fatalf("expected %q to be valid", u)
		}
	}
	for _, u := range []Urgency{"", "HIGH", "laag"} {
		if u.Valid() {
			t.Fatalf("expected %q to be invalid", u)
		}
	}
}

func TestGoalRefreshStats(t *testing.T) {
	t.Parallel()

	g := Goal{Tasks: []Task{{Completed: true}, {Completed: false}, {Completed: true}}}
	g.RefreshStats()
	if g.CompletedCount != 2 || g.TotalCount != 3 {
		t.Fatalf("expected 2/3, got %d/%d", g.CompletedCount, g.TotalCount)
	}

	g.Tasks = nil
	g.RefreshStats()
	if g.CompletedCount != 0 || g.TotalCount != 0 {
		t.Fatalf("expected 0/0 for empty goal, got %d/%d", g.CompletedCount, g.TotalCount)
	}
}
