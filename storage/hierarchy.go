package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"plansync-api/domain"
)

// projectTree loads one non-deleted project with its nested goals and tasks.
// Returns nil when the project is absent or soft-deleted.
func projectTree(ctx context.Context, q sqlx.QueryerContext, id string) (*domain.Project, error) {
	var p domain.Project
	err := sqlx.GetContext(ctx, q, &p,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	goals := []domain.Goal{}
	err = sqlx.SelectContext(ctx, q, &goals,
		`SELECT `+goalColumns+` FROM goals WHERE project_id = $1 AND deleted_at IS NULL ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("get project goals: %w", err)
	}

	tasks := []domain.Task{}
	err = sqlx.SelectContext(ctx, q, &tasks, `
		SELECT t.id, t.goal_id, t.name, t.completed, t.urgency, t.todays_focus,
		       t.created_at, t.updated_at, t.completed_at, t.deleted_at
		FROM tasks t
		JOIN goals g ON g.id = t.goal_id
		WHERE g.project_id = $1 AND g.deleted_at IS NULL AND t.deleted_at IS NULL`, id)
	if err != nil {
		return nil, fmt.Errorf("get project tasks: %w", err)
	}

	p.Goals = attachTasks(goals, tasks)
	return &p, nil
}

// fetchHierarchy loads every non-deleted project with nested goals and tasks,
// ordered for client consumption: newest projects first, goals in creation
// order, tasks in the default task ordering.
func fetchHierarchy(ctx context.Context, q sqlx.QueryerContext) ([]domain.Project, error) {
	projects := []domain.Project{}
	err := sqlx.SelectContext(ctx, q, &projects,
		`SELECT `+projectColumns+` FROM projects WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	goals := []domain.Goal{}
	err = sqlx.SelectContext(ctx, q, &goals,
		`SELECT `+goalColumns+` FROM goals WHERE deleted_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	tasks := []domain.Task{}
	err = sqlx.SelectContext(ctx, q, &tasks,
		`SELECT `+taskColumns+` FROM tasks WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("list hierarchy tasks: %w", err)
	}

	goalsByProject := make(map[string][]domain.Goal, len(projects))
	for _, g := range attachTasks(goals, tasks) {
		goalsByProject[g.ProjectID] = append(goalsByProject[g.ProjectID], g)
	}
	for i := range projects {
		projects[i].Goals = goalsByProject[projects[i].ID]
		if projects[i].Goals == nil {
			projects[i].Goals = []domain.Goal{}
		}
	}
	return projects, nil
}

func attachTasks(goals []domain.Goal, tasks []domain.Task) []domain.Goal {
	tasksByGoal := make(map[string][]domain.Task, len(goals))
	for _, t := range tasks {
		tasksByGoal[t.GoalID] = append(tasksByGoal[t.GoalID], t)
	}
	for i := range goals {
		gt := tasksByGoal[goals[i].ID]
		if gt == nil {
			gt = []domain.Task{}
		}
		domain.SortTasks(gt)
		goals[i].Tasks = gt
		goals[i].RefreshStats()
	}
	return goals
}

// FetchHierarchy returns the full current non-deleted hierarchy.
func (s *Store) FetchHierarchy(ctx context.Context) ([]domain.Project, error) {
	return fetchHierarchy(ctx, s.conn)
}
