// Package sync merges client-submitted hierarchy snapshots into server state.
//
// The reconciler treats the client as authoritative for anything it can
// positively match by id and creates anything without an id. It never deletes
// server-side entities the client omits: a partial or stale snapshot must not
// wipe data. Snapshot nodes referencing unknown ids are skipped silently.
package sync

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"plansync-api/domain"
)

// Txn is the transactional write surface the reconciler merges through. All
// calls made within one Store.Reconcile invocation commit or roll back
// together.
type Txn interface {
	// ProjectTree returns a non-deleted project with nested non-deleted
	// goals and tasks, or nil when the id is unknown or deleted.
	ProjectTree(ctx context.Context, id string) (*domain.Project, error)
	CreateProject(ctx context.Context, name string) (domain.Project, error)
	RenameProject(ctx context.Context, id, name string) error
	CreateGoal(ctx context.Context, projectID, name string) (domain.Goal, error)
	RenameGoal(ctx context.Context, id, name string) error
	CreateTask(ctx context.Context, goalID string, snap domain.TaskSnapshot) (domain.Task, error)
	OverwriteTask(ctx context.Context, id string, snap domain.TaskSnapshot) error
}

// Store abstracts the entity store for the reconciler.
type Store interface {
	// Reconcile runs fn inside a single transaction. Any error aborts every
	// write made through the Txn.
	Reconcile(ctx context.Context, fn func(Txn) error) error
	// FetchHierarchy returns the full current non-deleted hierarchy.
	FetchHierarchy(ctx context.Context) ([]domain.Project, error)
}

// Reconciler applies bulk sync snapshots against the entity store.
type Reconciler struct {
	store Store
	log   *log.Logger
}

// New creates a Reconciler over the given store.
func New(store Store, logger *log.Logger) *Reconciler {
	return &Reconciler{store: store, log: logger}
}

// Sync merges the client snapshot in one transaction and returns the change
// summary plus the complete post-merge hierarchy. Re-running an identical
// snapshot reapplies the same values, so the operation is idempotent for
// entities that already carry matching ids.
func (r *Reconciler) Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResponse, error) {
	var results domain.SyncResults

	err := r.store.Reconcile(ctx, func(tx Txn) error {
		for _, cp := range req.Projects {
			if err := r.mergeProject(ctx, tx, cp, &results); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.SyncResponse{}, err
	}

	state, err := r.store.FetchHierarchy(ctx)
	if err != nil {
		return domain.SyncResponse{}, err
	}
	return domain.SyncResponse{
		SyncResults: results,
		ServerState: state,
		SyncedAt:    time.Now().UTC(),
	}, nil
}

func (r *Reconciler) mergeProject(ctx context.Context, tx Txn, cp domain.ProjectSnapshot, results *domain.SyncResults) error {
	if cp.ID == "" {
		return r.createProjectSubtree(ctx, tx, cp, results)
	}

	server, err := tx.ProjectTree(ctx, cp.ID)
	if err != nil {
		return err
	}
	if server == nil {
		// Unknown id: the whole client subtree is dropped from this pass.
		r.log.WithField("project_id", cp.ID).Debug("sync: skipping unknown project")
		return nil
	}

	if server.Name != cp.Name {
		if err := tx.RenameProject(ctx, server.ID, cp.Name); err != nil {
			return err
		}
		results.Updated.Projects++
	}

	serverGoals := make(map[string]*domain.Goal, len(server.Goals))
	for i := range server.Goals {
		serverGoals[server.Goals[i].ID] = &server.Goals[i]
	}

	for _, cg := range cp.Goals {
		if cg.ID == "" {
			if err := r.createGoalSubtree(ctx, tx, server.ID, cg, results); err != nil {
				return err
			}
			continue
		}
		sg, ok := serverGoals[cg.ID]
		if !ok {
			r.log.WithField("goal_id", cg.ID).Debug("sync: skipping unknown goal")
			continue
		}
		if err := r.mergeGoal(ctx, tx, sg, cg, results); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) mergeGoal(ctx context.Context, tx Txn, server *domain.Goal, cg domain.GoalSnapshot, results *domain.SyncResults) error {
	if server.Name != cg.Name {
		if err := tx.RenameGoal(ctx, server.ID, cg.Name); err != nil {
			return err
		}
		results.Updated.Goals++
	}

	serverTasks := make(map[string]struct{}, len(server.Tasks))
	for i := range server.Tasks {
		serverTasks[server.Tasks[i].ID] = struct{}{}
	}

	for _, ct := range cg.Tasks {
		if ct.ID == "" {
			if _, err := tx.CreateTask(ctx, server.ID, ct); err != nil {
				return err
			}
			results.Created.Tasks++
			continue
		}
		if _, ok := serverTasks[ct.ID]; !ok {
			r.log.WithField("task_id", ct.ID).Debug("sync: skipping unknown task")
			continue
		}
		// Last write wins: the client's values replace the server's
		// unconditionally, no timestamp comparison.
		if err := tx.OverwriteTask(ctx, ct.ID, ct); err != nil {
			return err
		}
		results.Updated.Tasks++
	}
	return nil
}

// createProjectSubtree creates a brand-new project with every nested goal and
// task. Client-assigned ids below a parent-less create are not trusted.
func (r *Reconciler) createProjectSubtree(ctx context.Context, tx Txn, cp domain.ProjectSnapshot, results *domain.SyncResults) error {
	p, err := tx.CreateProject(ctx, cp.Name)
	if err != nil {
		return err
	}
	results.Created.Projects++
	for _, cg := range cp.Goals {
		if err := r.createGoalSubtree(ctx, tx, p.ID, cg, results); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) createGoalSubtree(ctx context.Context, tx Txn, projectID string, cg domain.GoalSnapshot, results *domain.SyncResults) error {
	g, err := tx.CreateGoal(ctx, projectID, cg.Name)
	if err != nil {
		return err
	}
	results.Created.Goals++
	for _, ct := range cg.Tasks {
		if _, err := tx.CreateTask(ctx, g.ID, ct); err != nil {
			return err
		}
		results.Created.Tasks++
	}
	return nil
}
