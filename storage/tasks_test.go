package storage

import (
	"strings"
	"testing"
	"time"

	"plansync-api/domain"
)

func TestBuildTaskListQueryNoFilter(t *testing.T) {
	t.Parallel()

	query, args := buildTaskListQuery(domain.TaskFilter{})
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
	if !strings.Contains(query, "deleted_at IS NULL") {
		t.Fatalf("soft-deleted rows must always be excluded: %s", query)
	}
	if strings.Contains(query, "$1") {
		t.Fatalf("unexpected placeholder in unfiltered query: %s", query)
	}
}

func TestBuildTaskListQueryAllFilters(t *testing.T) {
	t.Parallel()

	goalID := "g-1"
	urgency := domain.UrgencyHigh
	focus := true
	completed := false
	query, args := buildTaskListQuery(domain.TaskFilter{
		GoalID:      &goalID,
		Urgency:     &urgency,
		TodaysFocus: &focus,
		Completed:   &completed,
	})

	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %v", args)
	}
	for _, placeholder := range []string{"goal_id = $1", "urgency = $2", "todays_focus = $3", "completed = $4"} {
		if !strings.Contains(query, placeholder) {
			t.Fatalf("expected %q in query: %s", placeholder, query)
		}
	}
	if args[0] != goalID || args[1] != string(urgency) || args[2] != focus || args[3] != completed {
		t.Fatalf("args out of order: %v", args)
	}
}

func TestNormalizeCompletedAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	client := time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC)

	if got := normalizeCompletedAt(false, &client, now); got != nil {
		t.Fatalf("incomplete task must have nil completed_at, got %v", got)
	}
	if got := normalizeCompletedAt(true, &client, now); got == nil || !got.Equal(client) {
		t.Fatalf("expected client timestamp to be kept, got %v", got)
	}
	if got := normalizeCompletedAt(true, nil, now); got == nil || !got.Equal(now) {
		t.Fatalf("expected completion stamped at now, got %v", got)
	}
}
