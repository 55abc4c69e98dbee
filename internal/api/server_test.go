package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zonelens/zonelens/internal/storage"
	"github.com/zonelens/zonelens/internal/syncer"
	"github.com/zonelens/zonelens/internal/types"
)

// mockStorage implements storage.Storage for testing.
type mockStorage struct {
	zones   []*types.Zone
	records []*types.DNSRecord
	runs    []*types.SyncRun
	state   map[string]string
}

func (m *mockStorage) Initialize(ctx context.Context) error { return nil }
func (m *mockStorage) Close() error                         { return nil }

func (m *mockStorage) GetZone(ctx context.Context, id string) (*types.Zone, error) {
	for _, z := range m.zones {
		if z.ID == id {
			return z, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *mockStorage) ListZones(ctx context.Context) ([]*types.Zone, error) {
	return m.zones, nil
}

func (m *mockStorage) SaveZone(ctx context.Context, zone *types.Zone) error {
	for i, z := range m.zones {
		if z.ID == zone.ID {
			m.zones[i] = zone
			return nil
		}
	}
	m.zones = append(m.zones, zone)
	return nil
}

func (m *mockStorage) GetRecord(ctx context.Context, id string) (*types.DNSRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *mockStorage) ListRecords(ctx context.Context, filter storage.RecordFilter) ([]*types.DNSRecord, error) {
	var result []*types.DNSRecord
	for _, r := range m.records {
		if filter.ZoneID != "" && r.ZoneID != filter.ZoneID {
			continue
		}
		if filter.ZoneName != "" && r.ZoneName != filter.ZoneName {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.Search != "" && !strings.Contains(r.Name, filter.Search) && !strings.Contains(r.Content, filter.Search) {
			continue
		}
		result = append(result, r)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *mockStorage) CountRecords(ctx context.Context) (int, error) {
	return len(m.records), nil
}

func (m *mockStorage) CountRecordsByType(ctx context.Context) (map[types.DNSRecordType]int, error) {
	counts := make(map[types.DNSRecordType]int)
	for _, r := range m.records {
		counts[r.Type]++
	}
	return counts, nil
}

func (m *mockStorage) CountRecordsByZone(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, r := range m.records {
		counts[r.ZoneID]++
	}
	return counts, nil
}

func (m *mockStorage) SaveRecord(ctx context.Context, record *types.DNSRecord) error {
	for i, r := range m.records {
		if r.ID == record.ID {
			m.records[i] = record
			return nil
		}
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockStorage) DeleteRecord(ctx context.Context, id string) error {
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *mockStorage) ReplaceSnapshot(ctx context.Context, zones []*types.Zone, records []*types.DNSRecord) error {
	m.zones = zones
	m.records = records
	return nil
}

func (m *mockStorage) SaveSyncRun(ctx context.Context, run *types.SyncRun) error {
	for i, r := range m.runs {
		if r.ID == run.ID {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockStorage) ListSyncRuns(ctx context.Context, limit int) ([]*types.SyncRun, error) {
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockStorage) GetSyncState(ctx context.Context, key string) (string, error) {
	return m.state[key], nil
}

func (m *mockStorage) SetSyncState(ctx context.Context, key, value string) error {
	if m.state == nil {
		m.state = make(map[string]string)
	}
	m.state[key] = value
	return nil
}

// fakeRelay records relayed edits instead of calling the provider.
type fakeRelay struct {
	created     *types.DNSRecord
	updated     *types.DNSRecord
	deletedZone string
	deletedID   string
	err         error
}

func (f *fakeRelay) CreateRecord(ctx context.Context, token string, record *types.DNSRecord) (*types.DNSRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *record
	if out.ID == "" {
		out.ID = "cf-created"
	}
	f.created = &out
	return &out, nil
}

func (f *fakeRelay) UpdateRecord(ctx context.Context, token string, record *types.DNSRecord) (*types.DNSRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *record
	f.updated = &out
	return &out, nil
}

func (f *fakeRelay) DeleteRecord(ctx context.Context, token, zoneID, recordID string) error {
	if f.err != nil {
		return f.err
	}
	f.deletedZone = zoneID
	f.deletedID = recordID
	return nil
}

// seededStore returns a cache with two zones and a short CNAME chain:
// www.example.com -> example.com, which carries an A record.
func seededStore() *mockStorage {
	return &mockStorage{
		zones: []*types.Zone{
			{ID: "zone-1", Name: "example.com", Status: "active"},
			{ID: "zone-2", Name: "example.org", Status: "active"},
		},
		records: []*types.DNSRecord{
			{ID: "r1", ZoneID: "zone-1", ZoneName: "example.com", Name: "example.com", Type: types.DNSTypeA, Content: "192.0.2.1", TTL: 300},
			{ID: "r2", ZoneID: "zone-1", ZoneName: "example.com", Name: "www.example.com", Type: types.DNSTypeCNAME, Content: "example.com", TTL: 1},
			{ID: "r3", ZoneID: "zone-2", ZoneName: "example.org", Name: "example.org", Type: types.DNSTypeTXT, Content: "v=spf1 -all", TTL: 3600},
		},
	}
}

func newTestServer(t *testing.T, store storage.Storage, relay Relay) *Server {
	t.Helper()

	sy := syncer.NewSyncer(&syncer.Config{Storage: store})
	if _, err := sy.RefreshSnapshot(context.Background()); err != nil {
		t.Fatalf("failed to seed snapshot: %v", err)
	}

	return NewServer(&Config{
		Address:  ":0",
		BasePath: "/api",
		Token:    "",
		Storage:  store,
		Syncer:   sy,
		Relay:    relay,
		Version:  "0.1.0-test",
	})
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %s", body["status"])
	}
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/version", nil)
	w := httptest.NewRecorder()

	s.handleVersion(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["version"] != "0.1.0-test" {
		t.Fatalf("expected version 0.1.0-test, got %s", body["version"])
	}
	if body["name"] != "zonelens" {
		t.Fatalf("expected name zonelens, got %s", body["name"])
	}
}

func TestRecordsEndpoint(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/records", nil)
	w := httptest.NewRecorder()

	s.handleListRecords(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	total := int(body["total"].(float64))
	if total != 3 {
		t.Fatalf("expected 3 records, got %d", total)
	}
}

func TestRecordsEndpointWithFilters(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"by type", "?type=CNAME", 1},
		{"by zone name", "?zone_name=example.org", 1},
		{"by search", "?search=spf", 1},
		{"no match", "?type=MX", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/records"+tc.query, nil)
			w := httptest.NewRecorder()

			s.handleListRecords(w, req)

			var body map[string]any
			json.NewDecoder(w.Body).Decode(&body)
			total := int(body["total"].(float64))
			if total != tc.want {
				t.Fatalf("expected %d records, got %d", tc.want, total)
			}
		})
	}
}

func TestGetRecordNotFound(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/records/nope", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()

	s.handleGetRecord(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestTokenAuthMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("no token required", func(t *testing.T) {
		h := tokenAuth("", handler)
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		h := tokenAuth("secret", handler)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer secret")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("query parameter token", func(t *testing.T) {
		h := tokenAuth("secret", handler)
		req := httptest.NewRequest("GET", "/?token=secret", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		h := tokenAuth("secret", handler)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		h := tokenAuth("secret", handler)
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}

func TestZonesEndpoint(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/zones", nil)
	w := httptest.NewRecorder()

	s.handleZones(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Zones []zoneSummary `json:"zones"`
		Total int           `json:"total"`
	}
	json.NewDecoder(w.Body).Decode(&body)

	if body.Total != 2 {
		t.Fatalf("expected 2 zones, got %d", body.Total)
	}
	for _, z := range body.Zones {
		if z.ID == "zone-1" && z.Records != 2 {
			t.Fatalf("expected 2 records in zone-1, got %d", z.Records)
		}
	}
}

func TestChainsEndpoint(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/chains", nil)
	w := httptest.NewRecorder()

	s.handleChains(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Total   int `json:"total"`
		Summary struct {
			ByTerminal map[string]int `json:"by_terminal"`
		} `json:"summary"`
		SnapshotVersion int64 `json:"snapshot_version"`
	}
	json.NewDecoder(w.Body).Decode(&body)

	if body.Total != 1 {
		t.Fatalf("expected 1 chain, got %d", body.Total)
	}
	if body.Summary.ByTerminal["resolved"] != 1 {
		t.Fatalf("expected 1 resolved chain, got %d", body.Summary.ByTerminal["resolved"])
	}
	if body.SnapshotVersion != 1 {
		t.Fatalf("expected snapshot version 1, got %d", body.SnapshotVersion)
	}
}

func TestChainsEndpointFilters(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	t.Run("by name", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/chains?name=WWW.Example.com", nil)
		w := httptest.NewRecorder()
		s.handleChains(w, req)

		var body map[string]any
		json.NewDecoder(w.Body).Decode(&body)
		if int(body["total"].(float64)) != 1 {
			t.Fatalf("expected 1 chain for name filter, got %v", body["total"])
		}
	})

	t.Run("by terminal excludes", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/chains?terminal=dangling", nil)
		w := httptest.NewRecorder()
		s.handleChains(w, req)

		var body map[string]any
		json.NewDecoder(w.Body).Decode(&body)
		if int(body["total"].(float64)) != 0 {
			t.Fatalf("expected 0 dangling chains, got %v", body["total"])
		}
	})
}

func TestSyncTriggerEndpoint(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	req := httptest.NewRequest("POST", "/api/sync", strings.NewReader(`{"api_token":"tok"}`))
	w := httptest.NewRecorder()
	s.handleSyncTrigger(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "started" {
		t.Fatalf("expected status started, got %s", body["status"])
	}
	if body["sync_id"] == "" {
		t.Fatal("expected a sync_id")
	}

	// The queued sync has not been picked up, so a second trigger conflicts.
	req = httptest.NewRequest("POST", "/api/sync", strings.NewReader(`{"api_token":"tok"}`))
	w = httptest.NewRecorder()
	s.handleSyncTrigger(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestSyncTriggerEndpointNoToken(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	req := httptest.NewRequest("POST", "/api/sync", nil)
	w := httptest.NewRecorder()
	s.handleSyncTrigger(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSyncStatusEndpoint(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/sync/status", nil)
	w := httptest.NewRecorder()

	s.handleSyncStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if body["running"].(bool) {
		t.Fatal("expected running false")
	}
	if int(body["records"].(float64)) != 3 {
		t.Fatalf("expected 3 records in snapshot, got %v", body["records"])
	}
}

func TestCreateRecordHandler(t *testing.T) {
	store := seededStore()
	relay := &fakeRelay{}
	s := newTestServer(t, store, relay)

	payload := `{"zone_id":"zone-1","name":"api.example.com","type":"A","content":"192.0.2.7","ttl":300,"api_token":"tok"}`
	req := httptest.NewRequest("POST", "/api/records", strings.NewReader(payload))
	w := httptest.NewRecorder()

	s.handleCreateRecord(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created types.DNSRecord
	json.NewDecoder(w.Body).Decode(&created)
	if created.ID != "cf-created" {
		t.Fatalf("expected provider-assigned ID, got %s", created.ID)
	}
	if created.ZoneName != "example.com" {
		t.Fatalf("expected zone name filled from cache, got %s", created.ZoneName)
	}

	if relay.created == nil {
		t.Fatal("expected the edit to reach the relay")
	}
	if len(store.records) != 4 {
		t.Fatalf("expected record mirrored into cache, got %d records", len(store.records))
	}
	if s.config.Syncer.Snapshot().Len() != 4 {
		t.Fatalf("expected snapshot refreshed to 4 records, got %d", s.config.Syncer.Snapshot().Len())
	}
}

func TestCreateRecordValidation(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	cases := []struct {
		name    string
		payload string
	}{
		{"missing name", `{"zone_id":"zone-1","type":"A","content":"192.0.2.7","api_token":"tok"}`},
		{"missing content", `{"zone_id":"zone-1","name":"x.example.com","type":"A","api_token":"tok"}`},
		{"bad type", `{"zone_id":"zone-1","name":"x.example.com","type":"SPF","content":"x","api_token":"tok"}`},
		{"srv not editable", `{"zone_id":"zone-1","name":"x.example.com","type":"SRV","content":"x","api_token":"tok"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/records", strings.NewReader(tc.payload))
			w := httptest.NewRecorder()
			s.handleCreateRecord(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestCreateRecordNoToken(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	payload := `{"zone_id":"zone-1","name":"api.example.com","type":"A","content":"192.0.2.7"}`
	req := httptest.NewRequest("POST", "/api/records", strings.NewReader(payload))
	w := httptest.NewRecorder()

	s.handleCreateRecord(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateRecordCNAMEConflict(t *testing.T) {
	store := seededStore()
	relay := &fakeRelay{}
	s := newTestServer(t, store, relay)

	// An A record next to the existing www CNAME must be rejected.
	payload := `{"zone_id":"zone-1","name":"www.example.com","type":"A","content":"192.0.2.9","api_token":"tok"}`
	req := httptest.NewRequest("POST", "/api/records", strings.NewReader(payload))
	w := httptest.NewRecorder()

	s.handleCreateRecord(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if relay.created != nil {
		t.Fatal("conflicting edit must not reach the relay")
	}

	// And a CNAME where an A record already lives is the same conflict.
	payload = `{"zone_id":"zone-1","name":"example.com","type":"CNAME","content":"elsewhere.net","api_token":"tok"}`
	req = httptest.NewRequest("POST", "/api/records", strings.NewReader(payload))
	w = httptest.NewRecorder()

	s.handleCreateRecord(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestUpdateRecordHandler(t *testing.T) {
	store := seededStore()
	relay := &fakeRelay{}
	s := newTestServer(t, store, relay)

	payload := `{"content":"192.0.2.42","api_token":"tok"}`
	req := httptest.NewRequest("PUT", "/api/records/r1", strings.NewReader(payload))
	req.SetPathValue("id", "r1")
	w := httptest.NewRecorder()

	s.handleUpdateRecord(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated types.DNSRecord
	json.NewDecoder(w.Body).Decode(&updated)
	if updated.Content != "192.0.2.42" {
		t.Fatalf("expected updated content, got %s", updated.Content)
	}
	if updated.Name != "example.com" {
		t.Fatalf("expected unchanged name, got %s", updated.Name)
	}

	stored, err := store.GetRecord(context.Background(), "r1")
	if err != nil {
		t.Fatalf("record missing from cache: %v", err)
	}
	if stored.Content != "192.0.2.42" {
		t.Fatalf("expected cache mirror updated, got %s", stored.Content)
	}
}

func TestUpdateRecordNotFound(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	req := httptest.NewRequest("PUT", "/api/records/nope", strings.NewReader(`{"content":"x","api_token":"tok"}`))
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()

	s.handleUpdateRecord(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteRecordHandler(t *testing.T) {
	store := seededStore()
	relay := &fakeRelay{}
	s := newTestServer(t, store, relay)

	req := httptest.NewRequest("DELETE", "/api/records/r3?api_token=tok", nil)
	req.SetPathValue("id", "r3")
	w := httptest.NewRecorder()

	s.handleDeleteRecord(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if relay.deletedZone != "zone-2" || relay.deletedID != "r3" {
		t.Fatalf("expected delete relayed for zone-2/r3, got %s/%s", relay.deletedZone, relay.deletedID)
	}
	if _, err := store.GetRecord(context.Background(), "r3"); !storage.IsNotFound(err) {
		t.Fatal("expected record removed from cache")
	}
	if s.config.Syncer.Snapshot().Len() != 2 {
		t.Fatalf("expected snapshot refreshed to 2 records, got %d", s.config.Syncer.Snapshot().Len())
	}
}

func TestPreviewDeleteChainImpact(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	// Deleting the apex A record turns the www chain from resolved to
	// external without touching the cache.
	payload := `{"action":"delete","id":"r1"}`
	req := httptest.NewRequest("POST", "/api/records/preview", strings.NewReader(payload))
	w := httptest.NewRecorder()

	s.handlePreviewRecord(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body previewResponse
	json.NewDecoder(w.Body).Decode(&body)

	if len(body.ChainImpact) != 1 {
		t.Fatalf("expected 1 impacted chain, got %d", len(body.ChainImpact))
	}
	diff := body.ChainImpact[0]
	if diff.Start != "www.example.com" {
		t.Fatalf("expected impact on www.example.com, got %s", diff.Start)
	}
	if diff.Before == nil || diff.Before.Terminal != "resolved" {
		t.Fatalf("expected before terminal resolved, got %+v", diff.Before)
	}
	if diff.After == nil || diff.After.Terminal != "external" {
		t.Fatalf("expected after terminal external, got %+v", diff.After)
	}

	// Preview must not modify anything.
	if s.config.Syncer.Snapshot().Len() != 3 {
		t.Fatalf("expected snapshot untouched at 3 records, got %d", s.config.Syncer.Snapshot().Len())
	}
}

func TestPreviewCreateChainImpact(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	payload := `{"action":"create","record":{"zone_id":"zone-1","name":"app.example.com","type":"CNAME","content":"www.example.com"}}`
	req := httptest.NewRequest("POST", "/api/records/preview", strings.NewReader(payload))
	w := httptest.NewRecorder()

	s.handlePreviewRecord(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body previewResponse
	json.NewDecoder(w.Body).Decode(&body)

	if len(body.ChainImpact) != 1 {
		t.Fatalf("expected 1 new chain, got %d", len(body.ChainImpact))
	}
	diff := body.ChainImpact[0]
	if diff.Before != nil {
		t.Fatalf("expected no prior chain, got %+v", diff.Before)
	}
	if diff.After == nil || diff.After.Terminal != "resolved" || diff.After.Length != 2 {
		t.Fatalf("expected new resolved chain of length 2, got %+v", diff.After)
	}
}

func TestPreviewWarnings(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	// example.org carries only a TXT record, so a CNAME pointing there
	// would dangle.
	payload := `{"action":"create","record":{"zone_id":"zone-2","name":"txt.example.org","type":"CNAME","content":"example.org"}}`
	req := httptest.NewRequest("POST", "/api/records/preview", strings.NewReader(payload))
	w := httptest.NewRecorder()

	s.handlePreviewRecord(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body previewResponse
	json.NewDecoder(w.Body).Decode(&body)

	if len(body.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", body.Warnings)
	}
	if !strings.Contains(body.Warnings[0], "dangling") {
		t.Fatalf("expected dangling warning, got %s", body.Warnings[0])
	}
}

func TestPreviewConflict(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})

	payload := `{"action":"create","record":{"zone_id":"zone-1","name":"www.example.com","type":"A","content":"192.0.2.9"}}`
	req := httptest.NewRequest("POST", "/api/records/preview", strings.NewReader(payload))
	w := httptest.NewRecorder()

	s.handlePreviewRecord(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/overview", nil)
	w := httptest.NewRecorder()

	s.handleOverview(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body overviewResponse
	json.NewDecoder(w.Body).Decode(&body)

	if body.Zones != 2 {
		t.Fatalf("expected 2 zones, got %d", body.Zones)
	}
	if body.Records.Total != 3 {
		t.Fatalf("expected 3 records, got %d", body.Records.Total)
	}
	if body.Records.ByType[types.DNSTypeCNAME] != 1 {
		t.Fatalf("expected 1 CNAME, got %d", body.Records.ByType[types.DNSTypeCNAME])
	}
	if body.Chains.Total != 1 {
		t.Fatalf("expected 1 chain, got %d", body.Chains.Total)
	}
	if body.Version != "0.1.0-test" {
		t.Fatalf("expected version 0.1.0-test, got %s", body.Version)
	}
}

func TestExportRecordsCSV(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/export/records.csv", nil)
	w := httptest.NewRecorder()

	s.handleExportRecords(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %s", ct)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "zone_name,name,type") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}

func TestExportChainsCSV(t *testing.T) {
	s := newTestServer(t, seededStore(), &fakeRelay{})
	req := httptest.NewRequest("GET", "/api/export/chains.csv", nil)
	w := httptest.NewRecorder()

	s.handleExportChains(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "www.example.com") {
		t.Fatalf("expected chain row for www.example.com, got: %s", body)
	}
	if !strings.Contains(body, "www.example.com -> example.com") {
		t.Fatalf("expected hops joined with arrows, got: %s", body)
	}
}
