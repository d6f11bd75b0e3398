package domain

import "time"

// Snapshot types mirror the offline client's view of the hierarchy. An empty
// ID means the client has never seen a server id for the entity.

type TaskSnapshot struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name"`
	Completed   bool       `json:"completed"`
	Urgency     Urgency    `json:"urgency"`
	TodaysFocus bool       `json:"todaysFocus"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type GoalSnapshot struct {
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name"`
	Tasks []TaskSnapshot `json:"tasks"`
}

type ProjectSnapshot struct {
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name"`
	Goals []GoalSnapshot `json:"goals"`
}

// SyncRequest is the body of a bulk sync submission. LastSyncedAt is the
// client's watermark; it never changes the returned snapshot, which is always
// the complete post-merge state.
type SyncRequest struct {
	Projects     []ProjectSnapshot `json:"projects"`
	LastSyncedAt *time.Time        `json:"lastSyncedAt,omitempty"`
}

// SyncCounts tallies reconciliation effects per entity kind.
type SyncCounts struct {
	Projects int `json:"projects"`
	Goals    int `json:"goals"`
	Tasks    int `json:"tasks"`
}

// SyncResults summarizes one reconciliation pass.
type SyncResults struct {
	Created SyncCounts `json:"created"`
	Updated SyncCounts `json:"updated"`
}

// SyncResponse is the payload returned to the client after a merge.
type SyncResponse struct {
	SyncResults SyncResults `json:"syncResults"`
	ServerState []Project   `json:"serverState"`
	SyncedAt    time.Time   `json:"syncedAt"`
}
