package sync

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"plansync-api/domain"
)

// fakeStore is an in-memory Store with copy-on-begin transaction semantics:
// Reconcile snapshots the maps and restores them when the callback fails.
type fakeStore struct {
	projects map[string]domain.Project
	goals    map[string]domain.Goal
	tasks    map[string]domain.Task

	clock time.Time

	failCreateTask  error
	createTaskCalls int
	failAfterCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[string]domain.Project),
		goals:    make(map[string]domain.Goal),
		tasks:    make(map[string]domain.Task),
		clock:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so creation order is
// deterministic.
func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) Reconcile(_ context.Context, fn func(Txn) error) error {
	projects := cloneMap(f.projects)
	goals := cloneMap(f.goals)
	tasks := cloneMap(f.tasks)
	clock := f.clock

	if err := fn(f); err != nil {
		f.projects, f.goals, f.tasks, f.clock = projects, goals, tasks, clock
		return err
	}
	return nil
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (f *fakeStore) ProjectTree(_ context.Context, id string) (*domain.Project, error) {
	p, ok := f.projects[id]
	if !ok || p.DeletedAt != nil {
		return nil, nil
	}
	tree := p
	tree.Goals = f.goalsOf(id)
	return &tree, nil
}

func (f *fakeStore) goalsOf(projectID string) []domain.Goal {
	out := []domain.Goal{}
	for _, g := range f.goals {
		if g.ProjectID != projectID || g.DeletedAt != nil {
			continue
		}
		g.Tasks = f.tasksOf(g.ID)
		g.RefreshStats()
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (f *fakeStore) tasksOf(goalID string) []domain.Task {
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.GoalID == goalID && t.DeletedAt == nil {
			out = append(out, t)
		}
	}
	domain.SortTasks(out)
	return out
}

func (f *fakeStore) CreateProject(_ context.Context, name string) (domain.Project, error) {
	now := f.tick()
	p := domain.Project{ID: uuid.NewString(), Name: name, Goals: []domain.Goal{}, CreatedAt: now, UpdatedAt: now}
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeStore) RenameProject(_ context.Context, id, name string) error {
	p, ok := f.projects[id]
	if !ok || p.DeletedAt != nil {
		return domain.ErrNotFound
	}
	p.Name = name
	p.UpdatedAt = f.tick()
	f.projects[id] = p
	return nil
}

func (f *fakeStore) CreateGoal(_ context.Context, projectID, name string) (domain.Goal, error) {
	if p, ok := f.projects[projectID]; !ok || p.DeletedAt != nil {
		return domain.Goal{}, domain.ErrNotFound
	}
	now := f.tick()
	g := domain.Goal{ID: uuid.NewString(), ProjectID: projectID, Name: name, Tasks: []domain.Task{}, CreatedAt: now, UpdatedAt: now}
	f.goals[g.ID] = g
	return g, nil
}

func (f *fakeStore) RenameGoal(_ context.Context, id, name string) error {
	g, ok := f.goals[id]
	if !ok || g.DeletedAt != nil {
		return domain.ErrNotFound
	}
	g.Name = name
	g.UpdatedAt = f.tick()
	f.goals[id] = g
	return nil
}

func (f *fakeStore) CreateTask(_ context.Context, goalID string, snap domain.TaskSnapshot) (domain.Task, error) {
	f.createTaskCalls++
	if f.failCreateTask != nil && f.createTaskCalls > f.failAfterCalls {
		return domain.Task{}, f.failCreateTask
	}
	if g, ok := f.goals[goalID]; !ok || g.DeletedAt != nil {
		return domain.Task{}, domain.ErrNotFound
	}
	now := f.tick()
	urgency := snap.Urgency
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	t := domain.Task{
		ID:          uuid.NewString(),
		GoalID:      goalID,
		Name:        snap.Name,
		Completed:   snap.Completed,
		Urgency:     urgency,
		TodaysFocus: snap.TodaysFocus,
		CreatedAt:   now,
		UpdatedAt:   now,
		CompletedAt: normalizeCompletedAt(snap.Completed, snap.CompletedAt, now),
	}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeStore) OverwriteTask(_ context.Context, id string, snap domain.TaskSnapshot) error {
	t, ok := f.tasks[id]
	if !ok || t.DeletedAt != nil {
		return domain.ErrNotFound
	}
	now := f.tick()
	t.Name = snap.Name
	t.Completed = snap.Completed
	if snap.Urgency != "" {
		t.Urgency = snap.Urgency
	}
	t.TodaysFocus = snap.TodaysFocus
	t.CompletedAt = normalizeCompletedAt(snap.Completed, snap.CompletedAt, now)
	t.UpdatedAt = now
	f.tasks[id] = t
	return nil
}

func normalizeCompletedAt(completed bool, completedAt *time.Time, now time.Time) *time.Time {
	if !completed {
		return nil
	}
	if completedAt != nil {
		ts := *completedAt
		return &ts
	}
	return &now
}

func (f *fakeStore) FetchHierarchy(context.Context) ([]domain.Project, error) {
	out := []domain.Project{}
	for _, p := range f.projects {
		if p.DeletedAt != nil {
			continue
		}
		p.Goals = f.goalsOf(p.ID)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var errStoreDown = errors.New("store write failed")
