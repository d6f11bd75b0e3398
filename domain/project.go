package domain

import "time"

// Project is the top level of the hierarchy. Goals carries the non-deleted
// goals when the project was fetched as part of a tree read.
type Project struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Goals     []Goal     `json:"goals" db:"-"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// Goal groups tasks under a project. CompletedCount and TotalCount are
// derived from the non-deleted task set at read time, never stored.
type Goal struct {
	ID             string     `json:"id" db:"id"`
	ProjectID      string     `json:"projectId" db:"project_id"`
	Name           string     `json:"name" db:"name"`
	Tasks          []Task     `json:"tasks" db:"-"`
	CompletedCount int        `json:"completedCount" db:"-"`
	TotalCount     int        `json:"totalCount" db:"-"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// RefreshStats recomputes the derived counters from the attached tasks.
func (g *Goal) RefreshStats() {
	g.TotalCount = len(g.Tasks)
	g.CompletedCount = 0
	for i := range g.Tasks {
		if g.Tasks[i].Completed {
			g.CompletedCount++
		}
	}
}

const (
	MaxProjectNameLen = 255
	MaxTaskNameLen    = 500
)
