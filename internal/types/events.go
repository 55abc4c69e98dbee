package types

import "time"

// EventType represents the type of sync event pushed to dashboard clients.
type EventType string

const (
	// EventSyncStarted is emitted when a sync run begins.
	EventSyncStarted EventType = "sync_started"
	// EventZoneSynced is emitted after each zone's records are fetched.
	EventZoneSynced EventType = "zone_synced"
	// EventSyncCompleted is emitted when a sync run finishes successfully.
	EventSyncCompleted EventType = "sync_completed"
	// EventSyncFailed is emitted when a sync run aborts with an error.
	EventSyncFailed EventType = "sync_failed"
	// EventRecordsChanged is emitted after a user edit is applied.
	EventRecordsChanged EventType = "records_changed"
)

// SyncEvent is the envelope pushed over the events WebSocket.
type SyncEvent struct {
	// Type is the event type
	Type EventType `json:"type"`

	// SyncID identifies the sync run this event belongs to (empty for
	// records_changed)
	SyncID string `json:"sync_id,omitempty"`

	// Zone is the zone name for zone-scoped events
	Zone string `json:"zone,omitempty"`

	// Zones is the running count of zones processed
	Zones int `json:"zones,omitempty"`

	// Records is the running count of records fetched
	Records int `json:"records,omitempty"`

	// Error carries the failure message for sync_failed
	Error string `json:"error,omitempty"`

	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
}
