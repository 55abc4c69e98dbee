package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zonelens/zonelens/internal/cloudflare"
	"github.com/zonelens/zonelens/internal/storage"
	"github.com/zonelens/zonelens/internal/types"
	"github.com/zonelens/zonelens/pkg/chains"
)

// Relay applies record edits at the provider before they are mirrored
// into the local cache.
type Relay interface {
	CreateRecord(ctx context.Context, token string, record *types.DNSRecord) (*types.DNSRecord, error)
	UpdateRecord(ctx context.Context, token string, record *types.DNSRecord) (*types.DNSRecord, error)
	DeleteRecord(ctx context.Context, token, zoneID, recordID string) error
}

// CloudflareRelay relays edits through pooled Cloudflare clients.
type CloudflareRelay struct {
	pool *cloudflare.ClientPool
}

// NewCloudflareRelay creates a relay backed by the given client pool.
func NewCloudflareRelay(pool *cloudflare.ClientPool) *CloudflareRelay {
	return &CloudflareRelay{pool: pool}
}

func (r *CloudflareRelay) CreateRecord(ctx context.Context, token string, record *types.DNSRecord) (*types.DNSRecord, error) {
	client, err := r.pool.Get(token)
	if err != nil {
		return nil, err
	}
	return cloudflare.NewDNSClient(client).CreateRecord(ctx, record)
}

func (r *CloudflareRelay) UpdateRecord(ctx context.Context, token string, record *types.DNSRecord) (*types.DNSRecord, error) {
	client, err := r.pool.Get(token)
	if err != nil {
		return nil, err
	}
	return cloudflare.NewDNSClient(client).UpdateRecord(ctx, record)
}

func (r *CloudflareRelay) DeleteRecord(ctx context.Context, token, zoneID, recordID string) error {
	client, err := r.pool.Get(token)
	if err != nil {
		return err
	}
	return cloudflare.NewDNSClient(client).DeleteRecord(ctx, zoneID, recordID)
}

// recordRequest is the request body for record create and update. Pointer
// fields distinguish "not sent" from zero values on update.
type recordRequest struct {
	ZoneID   string  `json:"zone_id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Type     string  `json:"type,omitempty"`
	Content  string  `json:"content,omitempty"`
	TTL      *int    `json:"ttl,omitempty"`
	Proxied  *bool   `json:"proxied,omitempty"`
	Priority *int    `json:"priority,omitempty"`
	Comment  *string `json:"comment,omitempty"`
	APIToken string  `json:"api_token,omitempty"`
}

// toRecord builds a new record from the request, applying defaults.
func (req *recordRequest) toRecord() *types.DNSRecord {
	record := &types.DNSRecord{
		ZoneID:  req.ZoneID,
		Name:    req.Name,
		Type:    types.DNSRecordType(req.Type),
		Content: req.Content,
		TTL:     types.AutoTTL,
	}
	req.applyTo(record)
	return record
}

// applyTo merges the fields present in the request onto an existing record.
func (req *recordRequest) applyTo(record *types.DNSRecord) {
	if req.ZoneID != "" {
		record.ZoneID = req.ZoneID
	}
	if req.Name != "" {
		record.Name = req.Name
	}
	if req.Type != "" {
		record.Type = types.DNSRecordType(req.Type)
	}
	if req.Content != "" {
		record.Content = req.Content
	}
	if req.TTL != nil {
		record.TTL = *req.TTL
	}
	if req.Proxied != nil {
		record.Proxied = *req.Proxied
	}
	if req.Priority != nil {
		record.Priority = *req.Priority
	}
	if req.Comment != nil {
		record.Comment = *req.Comment
	}
}

// validateRecord checks the fields every relayed edit needs.
func validateRecord(record *types.DNSRecord) error {
	if record.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !record.Type.IsValid() {
		return fmt.Errorf("unsupported record type: %s", record.Type)
	}
	if record.Content == "" {
		return fmt.Errorf("content is required")
	}
	if record.TTL < 0 {
		return fmt.Errorf("ttl must not be negative")
	}
	return nil
}

// checkCNAMEExclusive enforces the provider rule that a CNAME must be the
// only record at its name. The check runs against the current snapshot
// before an edit is relayed, so obvious conflicts fail fast instead of
// round-tripping to the API.
func checkCNAMEExclusive(set *chains.RecordSet, record *types.DNSRecord, excludeID string) error {
	for _, existing := range set.Lookup(record.Name) {
		if existing.ID == excludeID {
			continue
		}
		if record.Type == types.DNSTypeCNAME {
			return &storage.StorageError{
				Code:    "conflict",
				Message: fmt.Sprintf("%s record already exists at %s; a CNAME must be the only record at its name", existing.Type, record.Name),
			}
		}
		if existing.Type == types.DNSTypeCNAME {
			return &storage.StorageError{
				Code:    "conflict",
				Message: fmt.Sprintf("a CNAME already exists at %s; remove it before adding other records", record.Name),
			}
		}
	}
	return nil
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record := req.toRecord()
	if err := validateRecord(record); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := checkCNAMEExclusive(s.config.Syncer.Snapshot(), record, ""); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	token := s.config.Syncer.ResolveToken(req.APIToken)
	if token == "" {
		writeError(w, http.StatusBadRequest, "no API token available; supply api_token or configure cloudflare.api_token")
		return
	}

	created, err := s.config.Relay.CreateRecord(r.Context(), token, record)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.mirrorEdit(r.Context(), created)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	existing, err := s.config.Storage.GetRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record := *existing
	req.applyTo(&record)
	if err := validateRecord(&record); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := checkCNAMEExclusive(s.config.Syncer.Snapshot(), &record, record.ID); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	token := s.config.Syncer.ResolveToken(req.APIToken)
	if token == "" {
		writeError(w, http.StatusBadRequest, "no API token available; supply api_token or configure cloudflare.api_token")
		return
	}

	updated, err := s.config.Relay.UpdateRecord(r.Context(), token, &record)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.mirrorEdit(r.Context(), updated)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	existing, err := s.config.Storage.GetRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token := s.config.Syncer.ResolveToken(r.URL.Query().Get("api_token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "no API token available; supply api_token or configure cloudflare.api_token")
		return
	}

	if err := s.config.Relay.DeleteRecord(r.Context(), token, existing.ZoneID, existing.ID); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := s.config.Storage.DeleteRecord(r.Context(), existing.ID); err != nil && !storage.IsNotFound(err) {
		log.Error().Err(err).Str("id", existing.ID).Msg("Failed to remove record from cache")
	}
	s.refreshAfterEdit(r.Context())

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// mirrorEdit stores a relayed record in the cache and refreshes the
// snapshot so reads reflect the edit without waiting for the next sync.
func (s *Server) mirrorEdit(ctx context.Context, record *types.DNSRecord) {
	if record.ZoneName == "" {
		if zone, err := s.config.Storage.GetZone(ctx, record.ZoneID); err == nil {
			record.ZoneName = zone.Name
		}
	}

	if err := s.config.Storage.SaveRecord(ctx, record); err != nil {
		log.Error().Err(err).Str("id", record.ID).Msg("Failed to mirror record into cache")
	}
	s.refreshAfterEdit(ctx)
}

func (s *Server) refreshAfterEdit(ctx context.Context) {
	set, err := s.config.Syncer.RefreshSnapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to refresh snapshot after edit")
		return
	}

	if s.config.Hub != nil {
		s.config.Hub.Publish(types.SyncEvent{
			Type:      types.EventRecordsChanged,
			Records:   set.Len(),
			Timestamp: time.Now().UTC(),
		})
	}
}

// previewRequest describes an edit to evaluate without applying it.
type previewRequest struct {
	Action string         `json:"action"` // create, update or delete
	ID     string         `json:"id,omitempty"`
	Record *recordRequest `json:"record,omitempty"`
}

// chainDiff is one chain whose outcome would change.
type chainDiff struct {
	Start  string         `json:"start"`
	Before *chains.Result `json:"before,omitempty"`
	After  *chains.Result `json:"after,omitempty"`
}

type previewResponse struct {
	Action          string           `json:"action"`
	Current         *types.DNSRecord `json:"current,omitempty"`
	Record          *types.DNSRecord `json:"record,omitempty"`
	SnapshotVersion int64            `json:"snapshot_version"`
	Warnings        []string         `json:"warnings,omitempty"`
	ChainImpact     []chainDiff      `json:"chain_impact"`
}

// handlePreviewRecord evaluates an edit against a hypothetical snapshot and
// reports every chain whose terminal, length or hops would change.
func (s *Server) handlePreviewRecord(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current := s.config.Syncer.Snapshot()
	records := current.Records()

	var existing, desired *types.DNSRecord
	switch req.Action {
	case "create":
		if req.Record == nil {
			writeError(w, http.StatusBadRequest, "record is required for create")
			return
		}
		desired = req.Record.toRecord()
		if err := validateRecord(desired); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := checkCNAMEExclusive(current, desired, ""); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		records = append(records, *desired)

	case "update":
		var err error
		existing, err = s.config.Storage.GetRecord(r.Context(), req.ID)
		if err != nil {
			if storage.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "record not found")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		merged := *existing
		if req.Record != nil {
			req.Record.applyTo(&merged)
		}
		if err := validateRecord(&merged); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := checkCNAMEExclusive(current, &merged, merged.ID); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		desired = &merged
		records = replaceRecord(records, merged)

	case "delete":
		var err error
		existing, err = s.config.Storage.GetRecord(r.Context(), req.ID)
		if err != nil {
			if storage.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "record not found")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		records = removeRecord(records, existing.ID)

	default:
		writeError(w, http.StatusBadRequest, "action must be create, update or delete")
		return
	}

	hypothetical := chains.NewRecordSet(current.Version(), records)
	impact := diffChains(chains.Resolve(current), chains.Resolve(hypothetical))

	writeJSON(w, http.StatusOK, previewResponse{
		Action:          req.Action,
		Current:         existing,
		Record:          desired,
		SnapshotVersion: current.Version(),
		Warnings:        chainWarnings(impact),
		ChainImpact:     impact,
	})
}

// chainWarnings flags chains the edit would leave broken.
func chainWarnings(diffs []chainDiff) []string {
	var warnings []string
	for _, d := range diffs {
		if d.After == nil {
			continue
		}
		if d.After.Terminal != chains.TerminalDangling && d.After.Terminal != chains.TerminalCycle {
			continue
		}
		if d.Before != nil && d.Before.Terminal == d.After.Terminal {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("chain starting at %s would become %s", d.After.Start, d.After.Terminal))
	}
	return warnings
}

func replaceRecord(records []types.DNSRecord, updated types.DNSRecord) []types.DNSRecord {
	for i := range records {
		if records[i].ID == updated.ID {
			records[i] = updated
			break
		}
	}
	return records
}

func removeRecord(records []types.DNSRecord, id string) []types.DNSRecord {
	out := records[:0]
	for _, rec := range records {
		if rec.ID != id {
			out = append(out, rec)
		}
	}
	return out
}

// diffChains pairs results by record ID and keeps the ones that appear,
// disappear, or change outcome.
func diffChains(before, after []chains.Result) []chainDiff {
	key := func(res *chains.Result) string {
		return res.RecordID + "|" + res.Start
	}

	beforeByKey := make(map[string]*chains.Result, len(before))
	for i := range before {
		beforeByKey[key(&before[i])] = &before[i]
	}
	afterByKey := make(map[string]*chains.Result, len(after))
	for i := range after {
		afterByKey[key(&after[i])] = &after[i]
	}

	var diffs []chainDiff
	for k, b := range beforeByKey {
		a, ok := afterByKey[k]
		if !ok {
			diffs = append(diffs, chainDiff{Start: b.Start, Before: b})
			continue
		}
		if !sameOutcome(b, a) {
			diffs = append(diffs, chainDiff{Start: b.Start, Before: b, After: a})
		}
	}
	for k, a := range afterByKey {
		if _, ok := beforeByKey[k]; !ok {
			diffs = append(diffs, chainDiff{Start: a.Start, After: a})
		}
	}

	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].Start < diffs[j].Start
	})

	return diffs
}

func sameOutcome(a, b *chains.Result) bool {
	if a.Terminal != b.Terminal || a.Length != b.Length || a.Target != b.Target {
		return false
	}
	if len(a.Hops) != len(b.Hops) {
		return false
	}
	for i := range a.Hops {
		if a.Hops[i] != b.Hops[i] {
			return false
		}
	}
	return true
}
