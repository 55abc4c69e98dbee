package types

import "time"

// SyncStatus represents the lifecycle state of a sync run.
type SyncStatus string

const (
	// SyncStatusRunning means the run is still pulling from the provider.
	SyncStatusRunning SyncStatus = "running"
	// SyncStatusCompleted means the run replaced the cache successfully.
	SyncStatusCompleted SyncStatus = "completed"
	// SyncStatusFailed means the run aborted; the previous cache stands.
	SyncStatusFailed SyncStatus = "failed"
)

// SyncRun records one synchronization attempt against the provider.
type SyncRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     SyncStatus `json:"status"`
	Zones      int        `json:"zones"`
	Records    int        `json:"records"`
	Error      string     `json:"error,omitempty"`
}
