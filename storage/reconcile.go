package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"plansync-api/domain"
	synccore "plansync-api/sync"
)

// Reconcile runs fn inside one transaction; any error rolls back every write
// made through the Txn, so a failing merge leaves no partial state behind.
func (s *Store) Reconcile(ctx context.Context, fn func(synccore.Txn) error) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reconcile: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&reconcileTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reconcile: %w", err)
	}
	return nil
}

// reconcileTx adapts one open transaction to the reconciler's write surface.
type reconcileTx struct {
	tx *sqlx.Tx
}

func (r *reconcileTx) ProjectTree(ctx context.Context, id string) (*domain.Project, error) {
	return projectTree(ctx, r.tx, id)
}

func (r *reconcileTx) CreateProject(ctx context.Context, name string) (domain.Project, error) {
	return createProject(ctx, r.tx, name)
}

func (r *reconcileTx) RenameProject(ctx context.Context, id, name string) error {
	_, err := updateProjectName(ctx, r.tx, id, name)
	return err
}

func (r *reconcileTx) CreateGoal(ctx context.Context, projectID, name string) (domain.Goal, error) {
	return createGoal(ctx, r.tx, projectID, name)
}

func (r *reconcileTx) RenameGoal(ctx context.Context, id, name string) error {
	_, err := updateGoalName(ctx, r.tx, id, name)
	return err
}

func (r *reconcileTx) CreateTask(ctx context.Context, goalID string, snap domain.TaskSnapshot) (domain.Task, error) {
	return createTask(ctx, r.tx, goalID, snap)
}

func (r *reconcileTx) OverwriteTask(ctx context.Context, id string, snap domain.TaskSnapshot) error {
	_, err := overwriteTask(ctx, r.tx, id, snap)
	return err
}
