// Package storage provides the local cache of provider DNS data.
package storage

import (
	"context"

	"github.com/zonelens/zonelens/internal/types"
)

// RecordFilter represents filter options for querying cached records.
type RecordFilter struct {
	ZoneID   string
	ZoneName string
	Type     types.DNSRecordType
	Search   string // substring match against name or content
	Limit    int
	Offset   int
}

// Storage defines the interface for the local DNS cache.
type Storage interface {
	// Initialize initializes the storage (create tables, run migrations).
	Initialize(ctx context.Context) error

	// Close closes the storage connection.
	Close() error

	// Zone operations
	GetZone(ctx context.Context, id string) (*types.Zone, error)
	ListZones(ctx context.Context) ([]*types.Zone, error)
	SaveZone(ctx context.Context, zone *types.Zone) error

	// Record operations
	GetRecord(ctx context.Context, id string) (*types.DNSRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]*types.DNSRecord, error)
	CountRecords(ctx context.Context) (int, error)
	CountRecordsByType(ctx context.Context) (map[types.DNSRecordType]int, error)
	CountRecordsByZone(ctx context.Context) (map[string]int, error)
	SaveRecord(ctx context.Context, record *types.DNSRecord) error
	DeleteRecord(ctx context.Context, id string) error

	// ReplaceSnapshot replaces the entire cache with the given zones and
	// records in a single transaction, so readers never observe a
	// partially updated cache.
	ReplaceSnapshot(ctx context.Context, zones []*types.Zone, records []*types.DNSRecord) error

	// Sync run operations
	SaveSyncRun(ctx context.Context, run *types.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]*types.SyncRun, error)

	// Sync state operations
	GetSyncState(ctx context.Context, key string) (string, error)
	SetSyncState(ctx context.Context, key, value string) error
}

// Common errors
var (
	ErrNotFound = &StorageError{Code: "not_found", Message: "record not found"}
	ErrConflict = &StorageError{Code: "conflict", Message: "record already exists"}
)

// StorageError represents a storage error.
type StorageError struct {
	Code    string
	Message string
}

func (e *StorageError) Error() string {
	return e.Message
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*StorageError); ok {
		return se.Code == "not_found"
	}
	return false
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*StorageError); ok {
		return se.Code == "conflict"
	}
	return false
}
