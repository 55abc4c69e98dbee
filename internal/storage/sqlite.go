package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zonelens/zonelens/internal/types"
)

// SQLiteStorage implements Storage interface using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// recordColumns is the standard column list for record queries.
const recordColumns = `id, zone_id, zone_name, type, name, content, ttl, proxied, priority, comment`

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: path,
	}, nil
}

// Initialize creates tables and runs migrations.
func (s *SQLiteStorage) Initialize(ctx context.Context) error {
	// Get current schema version
	currentVersion := s.getSchemaVersion(ctx)

	// Run migrations
	for _, m := range migrations {
		if m.Version > currentVersion {
			if _, err := s.db.ExecContext(ctx, m.SQL); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.Version, err)
			}
			if err := s.setSchemaVersion(ctx, m.Version); err != nil {
				return fmt.Errorf("failed to update schema version: %w", err)
			}
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetZone retrieves a zone by ID.
func (s *SQLiteStorage) GetZone(ctx context.Context, id string) (*types.Zone, error) {
	query := `SELECT id, name, status FROM zones WHERE id = ?`

	z := &types.Zone{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&z.ID, &z.Name, &z.Status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return z, nil
}

// ListZones lists all cached zones ordered by name.
func (s *SQLiteStorage) ListZones(ctx context.Context) ([]*types.Zone, error) {
	query := `SELECT id, name, status FROM zones ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []*types.Zone
	for rows.Next() {
		z := &types.Zone{}
		if err := rows.Scan(&z.ID, &z.Name, &z.Status); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}

	return zones, rows.Err()
}

// SaveZone creates or updates a zone.
func (s *SQLiteStorage) SaveZone(ctx context.Context, zone *types.Zone) error {
	query := `
		INSERT INTO zones (id, name, status)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query, zone.ID, zone.Name, zone.Status)
	return err
}

// GetRecord retrieves a record by its provider-assigned ID.
func (s *SQLiteStorage) GetRecord(ctx context.Context, id string) (*types.DNSRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM dns_records
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	return s.scanRecord(row)
}

// ListRecords lists cached records with optional filtering.
func (s *SQLiteStorage) ListRecords(ctx context.Context, filter RecordFilter) ([]*types.DNSRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM dns_records
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.ZoneID != "" {
		query += " AND zone_id = ?"
		args = append(args, filter.ZoneID)
	}
	if filter.ZoneName != "" {
		query += " AND zone_name = ?"
		args = append(args, filter.ZoneName)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Search != "" {
		query += " AND (name LIKE '%' || ? || '%' OR content LIKE '%' || ? || '%')"
		args = append(args, filter.Search, filter.Search)
	}

	query += " ORDER BY zone_name, name, type"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*types.DNSRecord
	for rows.Next() {
		r, err := s.scanRecordRows(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// CountRecords returns the total number of cached records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dns_records`).Scan(&count)
	return count, err
}

// CountRecordsByType returns record counts grouped by record type.
func (s *SQLiteStorage) CountRecordsByType(ctx context.Context) (map[types.DNSRecordType]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM dns_records GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[types.DNSRecordType]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[types.DNSRecordType(t)] = n
	}

	return counts, rows.Err()
}

// CountRecordsByZone returns record counts grouped by zone ID.
func (s *SQLiteStorage) CountRecordsByZone(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT zone_id, COUNT(*) FROM dns_records GROUP BY zone_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var zoneID string
		var n int
		if err := rows.Scan(&zoneID, &n); err != nil {
			return nil, err
		}
		counts[zoneID] = n
	}

	return counts, rows.Err()
}

// SaveRecord creates or updates a record keyed by its provider ID.
func (s *SQLiteStorage) SaveRecord(ctx context.Context, record *types.DNSRecord) error {
	query := `
		INSERT INTO dns_records (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			zone_id = excluded.zone_id,
			zone_name = excluded.zone_name,
			type = excluded.type,
			name = excluded.name,
			content = excluded.content,
			ttl = excluded.ttl,
			proxied = excluded.proxied,
			priority = excluded.priority,
			comment = excluded.comment
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.ZoneID, record.ZoneName, record.Type, record.Name,
		record.Content, record.TTL, record.Proxied, record.Priority, record.Comment,
	)
	return err
}

// DeleteRecord deletes a record by ID.
func (s *SQLiteStorage) DeleteRecord(ctx context.Context, id string) error {
	query := `DELETE FROM dns_records WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceSnapshot replaces all cached zones and records in one transaction.
// Readers keep seeing the previous cache until the transaction commits.
func (s *SQLiteStorage) ReplaceSnapshot(ctx context.Context, zones []*types.Zone, records []*types.DNSRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dns_records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM zones`); err != nil {
		return fmt.Errorf("failed to clear zones: %w", err)
	}

	zoneStmt, err := tx.PrepareContext(ctx, `INSERT INTO zones (id, name, status) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer zoneStmt.Close()
	for _, z := range zones {
		if _, err := zoneStmt.ExecContext(ctx, z.ID, z.Name, z.Status); err != nil {
			return fmt.Errorf("failed to insert zone %s: %w", z.Name, err)
		}
	}

	recordStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dns_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer recordStmt.Close()
	for _, r := range records {
		if _, err := recordStmt.ExecContext(ctx,
			r.ID, r.ZoneID, r.ZoneName, r.Type, r.Name,
			r.Content, r.TTL, r.Proxied, r.Priority, r.Comment,
		); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.Name, err)
		}
	}

	return tx.Commit()
}

// SaveSyncRun creates or updates a sync run entry.
func (s *SQLiteStorage) SaveSyncRun(ctx context.Context, run *types.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	query := `
		INSERT INTO sync_runs (id, started_at, finished_at, status, zones, records, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			status = excluded.status,
			zones = excluded.zones,
			records = excluded.records,
			error = excluded.error
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.StartedAt, run.FinishedAt, run.Status, run.Zones, run.Records, run.Error,
	)
	return err
}

// ListSyncRuns lists recent sync runs, newest first.
func (s *SQLiteStorage) ListSyncRuns(ctx context.Context, limit int) ([]*types.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, started_at, finished_at, status, zones, records, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*types.SyncRun
	for rows.Next() {
		r, err := s.scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetSyncState retrieves a sync state value.
func (s *SQLiteStorage) GetSyncState(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM sync_state WHERE key = ?`
	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSyncState sets a sync state value.
func (s *SQLiteStorage) SetSyncState(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO sync_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, key, value, time.Now())
	return err
}

// Helper methods

func (s *SQLiteStorage) getSchemaVersion(ctx context.Context) int {
	// Create sync_state table if it doesn't exist (for initial setup)
	s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sync_state (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)

	value, err := s.GetSyncState(ctx, "schema_version")
	if err != nil || value == "" {
		return 0
	}
	var version int
	fmt.Sscanf(value, "%d", &version)
	return version
}

func (s *SQLiteStorage) setSchemaVersion(ctx context.Context, version int) error {
	return s.SetSyncState(ctx, "schema_version", fmt.Sprintf("%d", version))
}

func (s *SQLiteStorage) scanRecord(row *sql.Row) (*types.DNSRecord, error) {
	r := &types.DNSRecord{}
	var comment sql.NullString
	var priority sql.NullInt64

	err := row.Scan(
		&r.ID, &r.ZoneID, &r.ZoneName, &r.Type, &r.Name,
		&r.Content, &r.TTL, &r.Proxied, &priority, &comment,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r.Priority = int(priority.Int64)
	r.Comment = comment.String

	return r, nil
}

func (s *SQLiteStorage) scanRecordRows(rows *sql.Rows) (*types.DNSRecord, error) {
	r := &types.DNSRecord{}
	var comment sql.NullString
	var priority sql.NullInt64

	err := rows.Scan(
		&r.ID, &r.ZoneID, &r.ZoneName, &r.Type, &r.Name,
		&r.Content, &r.TTL, &r.Proxied, &priority, &comment,
	)
	if err != nil {
		return nil, err
	}

	r.Priority = int(priority.Int64)
	r.Comment = comment.String

	return r, nil
}

func (s *SQLiteStorage) scanSyncRun(rows *sql.Rows) (*types.SyncRun, error) {
	r := &types.SyncRun{}
	var finishedAt sql.NullTime
	var errMsg sql.NullString

	err := rows.Scan(&r.ID, &r.StartedAt, &finishedAt, &r.Status, &r.Zones, &r.Records, &errMsg)
	if err != nil {
		return nil, err
	}

	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	r.Error = errMsg.String

	return r, nil
}

// Migration represents a database migration.
type Migration struct {
	Version int
	SQL     string
}

// migrations is the list of database migrations.
var migrations = []Migration{
	{
		Version: 1,
		SQL: `
			CREATE TABLE IF NOT EXISTS zones (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX IF NOT EXISTS idx_zones_name ON zones(name);

			CREATE TABLE IF NOT EXISTS dns_records (
				id TEXT PRIMARY KEY,

				-- Owning zone (zone_name denormalized for listing and export)
				zone_id TEXT NOT NULL,
				zone_name TEXT NOT NULL,

				-- Record data as returned by the provider
				type TEXT NOT NULL,
				name TEXT NOT NULL,
				content TEXT NOT NULL DEFAULT '',
				ttl INTEGER NOT NULL DEFAULT 1,
				proxied BOOLEAN NOT NULL DEFAULT FALSE,
				priority INTEGER,
				comment TEXT
			);

			CREATE INDEX IF NOT EXISTS idx_records_zone ON dns_records(zone_id);
			CREATE INDEX IF NOT EXISTS idx_records_name ON dns_records(name);
			CREATE INDEX IF NOT EXISTS idx_records_type ON dns_records(type);
		`,
	},
	{
		Version: 2,
		SQL: `
			CREATE TABLE IF NOT EXISTS sync_runs (
				id TEXT PRIMARY KEY,
				started_at TIMESTAMP NOT NULL,
				finished_at TIMESTAMP,
				status TEXT NOT NULL DEFAULT 'running',
				zones INTEGER NOT NULL DEFAULT 0,
				records INTEGER NOT NULL DEFAULT 0,
				error TEXT
			);

			CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);
		`,
	},
}
