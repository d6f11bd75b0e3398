package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"plansync-api/domain"
)

const goalColumns = "id, project_id, name, created_at, updated_at, deleted_at"

// createGoal inserts a goal under a non-deleted parent project. The guarded
// insert returns no row when the parent is absent or soft-deleted.
func createGoal(ctx context.Context, q sqlx.ExtContext, projectID, name string) (domain.Goal, error) {
	const query = `
		INSERT INTO goals (id, project_id, name)
		SELECT $1, p.id, $2
		FROM projects p
		WHERE p.id = $3 AND p.deleted_at IS NULL
		RETURNING ` + goalColumns + `;
	`

	var g domain.Goal
	if err := sqlx.GetContext(ctx, q, &g, query, uuid.NewString(), name, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Goal{}, domain.ErrNotFound
		}
		if terr := translateWriteError(err); terr != err {
			return domain.Goal{}, terr
		}
		return domain.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	g.Tasks = []domain.Task{}
	return g, nil
}

func updateGoalName(ctx context.Context, q sqlx.ExtContext, id, name string) (domain.Goal, error) {
	const query = `
		UPDATE goals
		SET name = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + goalColumns + `;
	`

	var g domain.Goal
	if err := sqlx.GetContext(ctx, q, &g, query, id, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Goal{}, domain.ErrNotFound
		}
		if terr := translateWriteError(err); terr != err {
			return domain.Goal{}, terr
		}
		return domain.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}

// CreateGoal inserts a goal under the given non-deleted project.
func (s *Store) CreateGoal(ctx context.Context, projectID, name string) (domain.Goal, error) {
	return createGoal(ctx, s.conn, projectID, name)
}

// UpdateGoal renames a non-deleted goal.
func (s *Store) UpdateGoal(ctx context.Context, id, name string) (domain.Goal, error) {
	return updateGoalName(ctx, s.conn, id, name)
}

// SoftDeleteGoal marks the goal and all of its tasks deleted with one
// consistent timestamp, atomically.
func (s *Store) SoftDeleteGoal(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cascade delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ts := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE goals SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, ts)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = $2, updated_at = $2 WHERE goal_id = $1 AND deleted_at IS NULL`,
		id, ts); err != nil {
		return fmt.Errorf("delete goal tasks: %w", err)
	}
	return tx.Commit()
}
