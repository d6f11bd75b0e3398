package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"plansync-api/domain"
)

const taskColumns = "id, goal_id, name, completed, urgency, todays_focus, created_at, updated_at, completed_at, deleted_at"

// createTask inserts a task under a non-deleted parent goal. The completion
// timestamp is normalized so it is non-nil exactly when completed is true.
func createTask(ctx context.Context, q sqlx.ExtContext, goalID string, snap domain.TaskSnapshot) (domain.Task, error) {
	urgency := snap.Urgency
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	completedAt := normalizeCompletedAt(snap.Completed, snap.CompletedAt, time.Now())

	const query = `
		INSERT INTO tasks (id, goal_id, name, completed, urgency, todays_focus, completed_at)
		SELECT $1, g.id, $2, $3, $4, $5, $6
		FROM goals g
		WHERE g.id = $7 AND g.deleted_at IS NULL
		RETURNING ` + taskColumns + `;
	`

	var t domain.Task
	err := sqlx.GetContext(ctx, q, &t, query,
		uuid.NewString(), snap.Name, snap.Completed, urgency, snap.TodaysFocus, completedAt, goalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}
		if terr := translateWriteError(err); terr != err {
			return domain.Task{}, terr
		}
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// overwriteTask applies the client's values unconditionally. Last write wins,
// no timestamp comparison.
func overwriteTask(ctx context.Context, q sqlx.ExtContext, id string, snap domain.TaskSnapshot) (domain.Task, error) {
	urgency := snap.Urgency
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	completedAt := normalizeCompletedAt(snap.Completed, snap.CompletedAt, time.Now())

	const query = `
		UPDATE tasks
		SET name = $2, completed = $3, urgency = $4, todays_focus = $5, completed_at = $6, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + taskColumns + `;
	`

	var t domain.Task
	err := sqlx.GetContext(ctx, q, &t, query, id, snap.Name, snap.Completed, urgency, snap.TodaysFocus, completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}
		if terr := translateWriteError(err); terr != err {
			return domain.Task{}, terr
		}
		return domain.Task{}, fmt.Errorf("overwrite task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a task under the given non-deleted goal.
func (s *Store) CreateTask(ctx context.Context, goalID string, snap domain.TaskSnapshot) (domain.Task, error) {
	return createTask(ctx, s.conn, goalID, snap)
}

// UpdateTask applies a partial update to a non-deleted task. Completing a
// task stamps completed_at; reopening it clears the stamp.
func (s *Store) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Task{}, fmt.Errorf("begin task update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var cur domain.Task
	err = tx.GetContext(ctx, &cur,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, domain.ErrNotFound
		}
		return domain.Task{}, fmt.Errorf("load task: %w", err)
	}

	if patch.GoalID != nil && *patch.GoalID != cur.GoalID {
		var ok bool
		err = tx.GetContext(ctx, &ok,
			`SELECT true FROM goals WHERE id = $1 AND deleted_at IS NULL`, *patch.GoalID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Task{}, domain.ErrNotFound
			}
			return domain.Task{}, fmt.Errorf("check goal: %w", err)
		}
		cur.GoalID = *patch.GoalID
	}
	if patch.Name != nil {
		cur.Name = *patch.Name
	}
	if patch.Urgency != nil {
		cur.Urgency = *patch.Urgency
	}
	if patch.TodaysFocus != nil {
		cur.TodaysFocus = *patch.TodaysFocus
	}
	if patch.Completed != nil && *patch.Completed != cur.Completed {
		cur.Completed = *patch.Completed
		if cur.Completed {
			ts := time.Now().UTC()
			cur.CompletedAt = &ts
		} else {
			cur.CompletedAt = nil
		}
	}

	var out domain.Task
	err = tx.GetContext(ctx, &out, `
		UPDATE tasks
		SET goal_id = $2, name = $3, completed = $4, urgency = $5, todays_focus = $6, completed_at = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns+`;`,
		cur.ID, cur.GoalID, cur.Name, cur.Completed, cur.Urgency, cur.TodaysFocus, cur.CompletedAt)
	if err != nil {
		if terr := translateWriteError(err); terr != err {
			return domain.Task{}, terr
		}
		return domain.Task{}, fmt.Errorf("update task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, fmt.Errorf("commit task update: %w", err)
	}
	return out, nil
}

// SoftDeleteTask marks a single task deleted.
func (s *Store) SoftDeleteTask(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// buildTaskListQuery renders the filtered task select. Soft-deleted rows are
// always excluded.
func buildTaskListQuery(f domain.TaskFilter) (string, []any) {
	var (
		sb   strings.Builder
		args []any
		n    = 1
	)

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE deleted_at IS NULL`)

	if f.GoalID != nil {
		args = append(args, *f.GoalID)
		fmt.Fprintf(&sb, " AND goal_id = $%d", n)
		n++
	}
	if f.Urgency != nil {
		args = append(args, string(*f.Urgency))
		fmt.Fprintf(&sb, " AND urgency = $%d", n)
		n++
	}
	if f.TodaysFocus != nil {
		args = append(args, *f.TodaysFocus)
		fmt.Fprintf(&sb, " AND todays_focus = $%d", n)
		n++
	}
	if f.Completed != nil {
		args = append(args, *f.Completed)
		fmt.Fprintf(&sb, " AND completed = $%d", n)
	}
	return sb.String(), args
}

// ListTasks returns non-deleted tasks matching the filter in the default
// ordering: today's focus first, incomplete first, newest first.
func (s *Store) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error) {
	query, args := buildTaskListQuery(f)
	out := []domain.Task{}
	if err := s.conn.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	domain.SortTasks(out)
	return out, nil
}

// ListFocusTasks returns the today's-focus view: incomplete first, most
// urgent first, newest first.
func (s *Store) ListFocusTasks(ctx context.Context) ([]domain.Task, error) {
	focus := true
	query, args := buildTaskListQuery(domain.TaskFilter{TodaysFocus: &focus})
	out := []domain.Task{}
	if err := s.conn.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list focus tasks: %w", err)
	}
	domain.SortFocusTasks(out)
	return out, nil
}
