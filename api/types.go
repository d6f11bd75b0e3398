package api

import (
	"context"

	"plansync-api/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	CreateProject(ctx context.Context, name string) (domain.Project, error)
	UpdateProject(ctx context.Context, id, name string) (domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.Project, error)
	SoftDeleteProject(ctx context.Context, id string) error

	CreateGoal(ctx context.Context, projectID, name string) (domain.Goal, error)
	UpdateGoal(ctx context.Context, id, name string) (domain.Goal, error)
	SoftDeleteGoal(ctx context.Context, id string) error

	CreateTask(ctx context.Context, goalID string, snap domain.TaskSnapshot) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	SoftDeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, error)
	ListFocusTasks(ctx context.Context) ([]domain.Task, error)

	FetchHierarchy(ctx context.Context) ([]domain.Project, error)
	Ping(ctx context.Context) error
}

// Syncer merges a client snapshot into server state.
type Syncer interface {
	Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResponse, error)
}

// Deduper prevents reprocessing of duplicate sync submissions.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, key string) (bool, error)
	// Remove deletes a previously added key, used when the merge fails so the
	// client may retry.
	Remove(ctx context.Context, key string) error
}
