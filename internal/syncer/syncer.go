// Package syncer keeps the local cache in step with the Cloudflare API.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zonelens/zonelens/internal/storage"
	"github.com/zonelens/zonelens/internal/types"
	"github.com/zonelens/zonelens/pkg/chains"
)

var (
	// ErrSyncInProgress is returned when a sync is already queued or running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNoToken is returned when no API token is available for a sync.
	ErrNoToken = errors.New("no API token available")
)

// Provider is the slice of the DNS provider API the syncer needs.
type Provider interface {
	ListZones(ctx context.Context) ([]*types.Zone, error)
	ListRecords(ctx context.Context, zoneID, zoneName string) ([]*types.DNSRecord, error)
}

// ProviderFactory returns a provider for the given API token. The factory
// is expected to verify the token before handing out a provider.
type ProviderFactory func(ctx context.Context, token string) (Provider, error)

// EventSink receives sync lifecycle events for broadcast to clients.
type EventSink interface {
	Publish(event types.SyncEvent)
}

// syncRequest carries one scheduled sync through the trigger channel.
type syncRequest struct {
	token string
	runID string
}

// Config holds syncer configuration.
type Config struct {
	Factory     ProviderFactory
	Storage     storage.Storage
	Events      EventSink     // optional
	APIToken    string        // default token from config, may be empty
	Interval    time.Duration // 0 = periodic sync disabled
	SyncOnStart bool
}

// Syncer pulls zones and records from the provider, replaces the local
// cache, and swaps in a fresh immutable snapshot for readers.
type Syncer struct {
	factory     ProviderFactory
	storage     storage.Storage
	events      EventSink
	configToken string
	interval    time.Duration
	syncOnStart bool
	startedAt   time.Time

	// Trigger channel for on-demand syncs; buffered so TriggerSync
	// never blocks while a claim is held.
	trigger chan syncRequest

	// Current snapshot, swapped wholesale after each rebuild
	snapshot *chains.RecordSet
	snapMu   sync.RWMutex
	version  int64

	// Sync state exposed for the API layer
	active        bool
	lastToken     string
	lastSyncTime  time.Time
	lastSyncError error
	syncMu        sync.RWMutex
}

// NewSyncer creates a new syncer.
func NewSyncer(cfg *Config) *Syncer {
	return &Syncer{
		factory:     cfg.Factory,
		storage:     cfg.Storage,
		events:      cfg.Events,
		configToken: cfg.APIToken,
		interval:    cfg.Interval,
		syncOnStart: cfg.SyncOnStart,
		startedAt:   time.Now(),
		trigger:     make(chan syncRequest, 1),
		snapshot:    chains.NewRecordSet(0, nil),
	}
}

// Run starts the sync loop. It blocks until the context is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	if s.syncOnStart {
		if token := s.ResolveToken(""); token != "" && s.claim() {
			s.execute(ctx, syncRequest{token: token})
		} else if token == "" {
			log.Info().Msg("No API token configured, skipping initial sync")
		}
	}

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	log.Info().
		Dur("interval", s.interval).
		Msg("Started sync loop (on-demand + periodic)")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case req := <-s.trigger:
			s.execute(ctx, req)

		case <-tick:
			token := s.ResolveToken("")
			if token == "" {
				log.Debug().Msg("Periodic sync skipped, no API token available")
				continue
			}
			if !s.claim() {
				log.Debug().Msg("Periodic sync skipped, sync already pending")
				continue
			}
			log.Debug().Msg("Periodic sync triggered")
			s.execute(ctx, syncRequest{token: token})
		}
	}
}

// TriggerSync schedules a sync using the given token, falling back to the
// configured token and then the last token that synced successfully. It
// returns the sync run ID, or ErrSyncInProgress when a sync is already
// queued or running.
func (s *Syncer) TriggerSync(ctx context.Context, token string) (string, error) {
	resolved := s.ResolveToken(token)
	if resolved == "" {
		return "", ErrNoToken
	}

	if !s.claim() {
		return "", ErrSyncInProgress
	}

	run := &types.SyncRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Status:    types.SyncStatusRunning,
	}
	if err := s.storage.SaveSyncRun(ctx, run); err != nil {
		s.release()
		return "", fmt.Errorf("failed to record sync run: %w", err)
	}

	// The claim guarantees the buffer has room.
	s.trigger <- syncRequest{token: resolved, runID: run.ID}

	return run.ID, nil
}

// execute performs one full sync. The caller must hold the claim.
func (s *Syncer) execute(ctx context.Context, req syncRequest) {
	defer s.release()

	start := time.Now().UTC()
	if req.runID == "" {
		req.runID = uuid.New().String()
		running := &types.SyncRun{ID: req.runID, StartedAt: start, Status: types.SyncStatusRunning}
		if err := s.storage.SaveSyncRun(ctx, running); err != nil {
			log.Error().Err(err).Msg("Failed to record sync run")
		}
	}

	log.Info().Str("sync_id", req.runID).Msg("Sync started")
	s.publish(types.SyncEvent{
		Type:      types.EventSyncStarted,
		SyncID:    req.runID,
		Timestamp: start,
	})

	zoneCount, recordCount, err := s.sync(ctx, req)

	finished := time.Now().UTC()
	run := &types.SyncRun{
		ID:         req.runID,
		StartedAt:  start,
		FinishedAt: &finished,
		Status:     types.SyncStatusCompleted,
		Zones:      zoneCount,
		Records:    recordCount,
	}

	s.syncMu.Lock()
	s.lastSyncTime = finished
	s.lastSyncError = err
	if err == nil {
		s.lastToken = req.token
	}
	s.syncMu.Unlock()

	if err != nil {
		run.Status = types.SyncStatusFailed
		run.Error = err.Error()
		log.Error().Err(err).Str("sync_id", req.runID).Msg("Sync failed")
		s.publish(types.SyncEvent{
			Type:      types.EventSyncFailed,
			SyncID:    req.runID,
			Error:     err.Error(),
			Timestamp: finished,
		})
	} else {
		log.Info().
			Str("sync_id", req.runID).
			Int("zones", zoneCount).
			Int("records", recordCount).
			Dur("elapsed", finished.Sub(start)).
			Msg("Sync completed")
		s.publish(types.SyncEvent{
			Type:      types.EventSyncCompleted,
			SyncID:    req.runID,
			Zones:     zoneCount,
			Records:   recordCount,
			Timestamp: finished,
		})
	}

	if saveErr := s.storage.SaveSyncRun(ctx, run); saveErr != nil {
		log.Error().Err(saveErr).Msg("Failed to record sync run")
	}
}

// sync fetches all zones and records, replaces the cache, and swaps the
// snapshot. Any failure aborts the whole run and leaves both the cache
// and the current snapshot untouched.
func (s *Syncer) sync(ctx context.Context, req syncRequest) (int, int, error) {
	provider, err := s.factory(ctx, req.token)
	if err != nil {
		return 0, 0, err
	}

	zones, err := provider.ListZones(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list zones: %w", err)
	}

	var all []*types.DNSRecord
	for _, zone := range zones {
		records, err := provider.ListRecords(ctx, zone.ID, zone.Name)
		if err != nil {
			return 0, 0, fmt.Errorf("zone %s: %w", zone.Name, err)
		}
		all = append(all, records...)

		log.Debug().
			Str("zone", zone.Name).
			Int("records", len(records)).
			Msg("Fetched zone records")
		s.publish(types.SyncEvent{
			Type:      types.EventZoneSynced,
			SyncID:    req.runID,
			Zone:      zone.Name,
			Records:   len(records),
			Timestamp: time.Now().UTC(),
		})
	}

	if err := s.storage.ReplaceSnapshot(ctx, zones, all); err != nil {
		return 0, 0, fmt.Errorf("failed to replace cache: %w", err)
	}

	s.swap(chains.NewRecordSet(s.nextVersion(), deref(all)))

	return len(zones), len(all), nil
}

// RefreshSnapshot rebuilds the in-memory snapshot from the local cache.
// Called at startup so cached data is served before the first sync, and
// after relayed edits have been mirrored into the cache.
func (s *Syncer) RefreshSnapshot(ctx context.Context) (*chains.RecordSet, error) {
	records, err := s.storage.ListRecords(ctx, storage.RecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load cached records: %w", err)
	}

	set := chains.NewRecordSet(s.nextVersion(), deref(records))
	s.swap(set)

	log.Debug().
		Int64("version", set.Version()).
		Int("records", set.Len()).
		Msg("Snapshot rebuilt from cache")

	return set, nil
}

// Snapshot returns the current record snapshot. Callers may hold it for
// the duration of a request; it is never mutated after the swap.
func (s *Syncer) Snapshot() *chains.RecordSet {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot
}

func (s *Syncer) swap(set *chains.RecordSet) {
	s.snapMu.Lock()
	s.snapshot = set
	s.snapMu.Unlock()
}

func (s *Syncer) nextVersion() int64 {
	return atomic.AddInt64(&s.version, 1)
}

// ResolveToken picks the token for a provider operation: an explicit
// request token wins, then the configured token, then the last token that
// synced successfully.
func (s *Syncer) ResolveToken(token string) string {
	if token != "" {
		return token
	}
	if s.configToken != "" {
		return s.configToken
	}

	s.syncMu.RLock()
	defer s.syncMu.RUnlock()
	return s.lastToken
}

// claim marks a sync as active. Returns false when one is already queued
// or running.
func (s *Syncer) claim() bool {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	if s.active {
		return false
	}
	s.active = true
	return true
}

func (s *Syncer) release() {
	s.syncMu.Lock()
	s.active = false
	s.syncMu.Unlock()
}

func (s *Syncer) publish(event types.SyncEvent) {
	if s.events == nil {
		return
	}
	s.events.Publish(event)
}

// Running reports whether a sync is currently queued or running.
func (s *Syncer) Running() bool {
	s.syncMu.RLock()
	defer s.syncMu.RUnlock()
	return s.active
}

// StartedAt returns when the syncer started.
func (s *Syncer) StartedAt() time.Time {
	return s.startedAt
}

// LastSyncTime returns the time of the last completed or failed sync.
func (s *Syncer) LastSyncTime() time.Time {
	s.syncMu.RLock()
	defer s.syncMu.RUnlock()
	return s.lastSyncTime
}

// LastSyncError returns the error from the last sync (nil if successful).
func (s *Syncer) LastSyncError() error {
	s.syncMu.RLock()
	defer s.syncMu.RUnlock()
	return s.lastSyncError
}

// HasToken reports whether a sync could start without a request token.
func (s *Syncer) HasToken() bool {
	return s.ResolveToken("") != ""
}

func deref(records []*types.DNSRecord) []types.DNSRecord {
	out := make([]types.DNSRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
