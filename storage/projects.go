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

const projectColumns = "id, name, created_at, updated_at, deleted_at"

func createProject(ctx context.Context, q sqlx.ExtContext, name string) (domain.Project, error) {
	const query = `
		INSERT INTO projects (id, name)
		VALUES ($1, $2)
		RETURNING ` + projectColumns + `;
	`

	var p domain.Project
	if err := sqlx.GetContext(ctx, q, &p, query, uuid.NewString(), name); err != nil {
		if terr := translateWriteError(err); terr != err {
			return domain.Project{}, terr
		}
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	p.Goals = []domain.Goal{}
	return p, nil
}

func updateProjectName(ctx context.Context, q sqlx.ExtContext, id, name string) (domain.Project, error) {
	const query = `
		UPDATE projects
		SET name = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + projectColumns + `;
	`

	var p domain.Project
	if err := sqlx.GetContext(ctx, q, &p, query, id, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, domain.ErrNotFound
		}
		if terr := translateWriteError(err); terr != err {
			return domain.Project{}, terr
		}
		return domain.Project{}, fmt.Errorf("update project: %w", err)
	}
	return p, nil
}

// CreateProject inserts a new project and assigns its id and timestamps.
func (s *Store) CreateProject(ctx context.Context, name string) (domain.Project, error) {
	return createProject(ctx, s.conn, name)
}

// UpdateProject renames a non-deleted project.
func (s *Store) UpdateProject(ctx context.Context, id, name string) (domain.Project, error) {
	return updateProjectName(ctx, s.conn, id, name)
}

// GetProject returns a non-deleted project with its full subtree and derived
// goal stats.
func (s *Store) GetProject(ctx context.Context, id string) (domain.Project, error) {
	tree, err := projectTree(ctx, s.conn, id)
	if err != nil {
		return domain.Project{}, err
	}
	if tree == nil {
		return domain.Project{}, domain.ErrNotFound
	}
	return *tree, nil
}

// SoftDeleteProject marks the project and every descendant goal and task
// deleted with one consistent timestamp, atomically.
func (s *Store) SoftDeleteProject(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cascade delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ts := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE projects SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, ts)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE goals SET deleted_at = $2, updated_at = $2 WHERE project_id = $1 AND deleted_at IS NULL`,
		id, ts); err != nil {
		return fmt.Errorf("delete project goals: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET deleted_at = $2, updated_at = $2
		 WHERE deleted_at IS NULL AND goal_id IN (SELECT id FROM goals WHERE project_id = $1)`,
		id, ts); err != nil {
		return fmt.Errorf("delete project tasks: %w", err)
	}
	return tx.Commit()
}
