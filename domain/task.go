package domain

import "time"

// Urgency is stored and transmitted using the legacy wire tokens.
type Urgency string

const (
	UrgencyLow    Urgency = "LAAG"
	UrgencyMedium Urgency = "MIDDEN"
	UrgencyHigh   Urgency = "HOOG"
)

// Valid reports whether u is one of the known wire tokens.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Weight orders urgencies for the focus view, highest first.
func (u Urgency) Weight() int {
	switch u {
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// Task is a single actionable item under a goal.
type Task struct {
	ID          string     `json:"id" db:"id"`
	GoalID      string     `json:"goalId" db:"goal_id"`
	Name        string     `json:"name" db:"name"`
	Completed   bool       `json:"completed" db:"completed"`
	Urgency     Urgency    `json:"urgency" db:"urgency"`
	TodaysFocus bool       `json:"todaysFocus" db:"todays_focus"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// TaskPatch carries the mutable task fields for partial updates. Nil fields
// are left untouched.
type TaskPatch struct {
	GoalID      *string
	Name        *string
	Completed   *bool
	Urgency     *Urgency
	TodaysFocus *bool
}

// TaskFilter narrows task list reads. Nil fields are not applied.
// Soft-deleted rows are always excluded.
type TaskFilter struct {
	GoalID      *string
	Urgency     *Urgency
	TodaysFocus *bool
	Completed   *bool
}
