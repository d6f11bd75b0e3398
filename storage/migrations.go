package storage

import (
	_ "embed"
	"fmt"
)

//go:embed migrations/01_create_projects.up.sql
var createProjectsUp string

//go:embed migrations/02_create_goals.up.sql
var createGoalsUp string

//go:embed migrations/03_create_tasks.up.sql
var createTasksUp string

// Migrate applies the schema migrations in order. Statements are idempotent
// so startup can run this unconditionally.
func (s *Store) Migrate() error {
	s.log.Debug("running storage migrations")

	if _, err := s.conn.Exec(createProjectsUp); err != nil {
		return fmt.Errorf("apply projects migration: %w", err)
	}
	if _, err := s.conn.Exec(createGoalsUp); err != nil {
		return fmt.Errorf("apply goals migration: %w", err)
	}
	if _, err := s.conn.Exec(createTasksUp); err != nil {
		return fmt.Errorf("apply tasks migration: %w", err)
	}

	s.log.Debug("storage migrations finished")
	return nil
}
