// Package store owns the SQLite-backed channel, rule, user, and API token
// tables. The decision pipeline only consumes the read paths (see
// ChannelReader/RuleReader); everything else backs the external CRUD
// surface.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/techexlab/pois/internal/rules"
)

// ErrNotFound is returned when a lookup finds no live (non-deleted) row.
var ErrNotFound = errors.New("store: not found")

// Channel is the persisted channel record.
type Channel struct {
	ID        int64
	Name      string
	Enabled   bool
	Timezone  string
	OwnerID   *int64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// UpsertChannel is the payload accepted by the channel CRUD surface.
type UpsertChannel struct {
	Name     string
	Enabled  *bool
	Timezone *string
	OwnerID  *int64
}

// Rule is the persisted rule record; MatchJSON/ParamsJSON hold the raw
// documents as stored, Match/Params the parsed views used by the pipeline.
type Rule struct {
	ID         int64
	ChannelID  int64
	Name       string
	Priority   int
	Enabled    bool
	MatchJSON  string
	ParamsJSON string
	Action     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// UpsertRule is the payload accepted by the rule CRUD surface. Priority -1
// means "append at the end" (current max + 10).
type UpsertRule struct {
	Name       string
	Priority   int
	Enabled    *bool
	MatchJSON  string
	Action     string
	ParamsJSON string
}

// Store wraps the database connection pool and implements both the CRUD
// surface and the pipeline's read-only store contract.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at dsn and applies
// the schema, bounding the connection pool to poolSize.
func Open(dsn string, poolSize int) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if poolSize > 0 {
		db.SetMaxOpenConns(poolSize)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for collaborators (the event logger) that share
// the same connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS channels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			enabled INTEGER NOT NULL DEFAULT 1,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			owner_id INTEGER,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			deleted_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			channel_id INTEGER NOT NULL REFERENCES channels(id),
			name TEXT NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			enabled INTEGER NOT NULL DEFAULT 1,
			match_json TEXT NOT NULL DEFAULT '{}',
			action TEXT NOT NULL,
			params_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			deleted_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_channel ON rules(channel_id, priority, id)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			enabled INTEGER NOT NULL DEFAULT 1,
			email TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			last_login TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS api_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			token_hash TEXT NOT NULL DEFAULT '',
			user_id INTEGER NOT NULL REFERENCES users(id),
			expires_at TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			last_used TEXT,
			revoked INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS esam_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			channel_name TEXT NOT NULL,
			acquisition_signal_id TEXT NOT NULL,
			utc_point TEXT NOT NULL,
			source_ip TEXT,
			user_agent TEXT,
			scte35_command TEXT,
			scte35_type_id TEXT,
			scte35_upid TEXT,
			matched_rule_id INTEGER,
			matched_rule_name TEXT,
			action TEXT NOT NULL,
			request_size INTEGER,
			processing_time_ms INTEGER,
			response_status INTEGER NOT NULL,
			error_message TEXT,
			raw_esam_request TEXT,
			raw_esam_response TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON esam_events(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_events_channel ON esam_events(channel_name)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// FindChannel implements the pipeline's channel lookup. Soft-deleted
// channels are invisible: ErrNotFound is returned.
func (s *Store) FindChannel(ctx context.Context, name string) (*Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, enabled, timezone, owner_id, created_at, updated_at, deleted_at
		 FROM channels WHERE name = ? AND deleted_at IS NULL`, name)
	return scanChannel(row)
}

// GetChannel fetches a channel by id regardless of soft-delete state, for
// the CRUD surface.
func (s *Store) GetChannel(ctx context.Context, id int64) (*Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, enabled, timezone, owner_id, created_at, updated_at, deleted_at
		 FROM channels WHERE id = ?`, id)
	return scanChannel(row)
}

// ListChannels returns every non-deleted channel, optionally restricted to
// one owner (nil means all channels, for admins).
func (s *Store) ListChannels(ctx context.Context, ownerID *int64) ([]Channel, error) {
	query := `SELECT id, name, enabled, timezone, owner_id, created_at, updated_at, deleted_at
	          FROM channels WHERE deleted_at IS NULL`
	args := []any{}
	if ownerID != nil {
		query += ` AND owner_id = ?`
		args = append(args, *ownerID)
	}
	query += ` ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list channels: %w", err)
	}
	defer rows.Close()

	var out []Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpsertChannel creates or updates a channel by name.
func (s *Store) UpsertChannel(ctx context.Context, in UpsertChannel) (*Channel, error) {
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	timezone := "UTC"
	if in.Timezone != nil {
		timezone = *in.Timezone
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (name, enabled, timezone, owner_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET enabled=excluded.enabled, timezone=excluded.timezone,
		 owner_id=excluded.owner_id, updated_at=strftime('%Y-%m-%dT%H:%M:%fZ','now'), deleted_at=NULL`,
		in.Name, enabled, timezone, in.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("store: upsert channel: %w", err)
	}
	return s.FindChannel(ctx, in.Name)
}

// DeleteChannel soft-deletes a channel.
func (s *Store) DeleteChannel(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET deleted_at = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete channel: %w", err)
	}
	return nil
}

// ListRules implements the pipeline's rule load: enabled, non-deleted rules
// for a channel, sorted by (priority asc, id asc).
func (s *Store) ListRules(ctx context.Context, channelID int64) ([]rules.Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, priority, enabled, match_json, action, params_json
		 FROM rules WHERE channel_id = ? AND enabled = 1 AND deleted_at IS NULL
		 ORDER BY priority ASC, id ASC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("store: list rules: %w", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		var r rules.Rule
		var matchJSON, paramsJSON string
		if err := rows.Scan(&r.ID, &r.Name, &r.Priority, &r.Enabled, &matchJSON, &r.Action, &paramsJSON); err != nil {
			return nil, fmt.Errorf("store: scan rule: %w", err)
		}
		if err := json.Unmarshal([]byte(matchJSON), &r.Match); err != nil {
			return nil, fmt.Errorf("store: rule %d match_json: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
			return nil, fmt.Errorf("store: rule %d params_json: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAllRules returns every non-deleted rule for a channel (including
// disabled ones), for the CRUD surface.
func (s *Store) ListAllRules(ctx context.Context, channelID int64) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, name, priority, enabled, match_json, action, params_json, created_at, updated_at, deleted_at
		 FROM rules WHERE channel_id = ? AND deleted_at IS NULL ORDER BY priority ASC, id ASC`, channelID)
	if err != nil {
		return nil, fmt.Errorf("store: list all rules: %w", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// UpsertRule creates a new rule, or updates it when id > 0.
func (s *Store) UpsertRule(ctx context.Context, channelID, id int64, in UpsertRule) (*Rule, error) {
	enabled := true
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	matchJSON := in.MatchJSON
	if matchJSON == "" {
		matchJSON = "{}"
	}
	paramsJSON := in.ParamsJSON
	if paramsJSON == "" {
		paramsJSON = "{}"
	}
	priority := in.Priority
	if priority < 0 {
		var maxPriority sql.NullInt64
		if err := s.db.QueryRowContext(ctx,
			`SELECT MAX(priority) FROM rules WHERE channel_id = ? AND deleted_at IS NULL`, channelID,
		).Scan(&maxPriority); err != nil {
			return nil, fmt.Errorf("store: max priority: %w", err)
		}
		priority = 10
		if maxPriority.Valid {
			priority = int(maxPriority.Int64) + 10
		}
	}

	if id > 0 {
		_, err := s.db.ExecContext(ctx,
			`UPDATE rules SET name=?, priority=?, enabled=?, match_json=?, action=?, params_json=?,
			 updated_at=strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id=? AND channel_id=?`,
			in.Name, priority, enabled, matchJSON, in.Action, paramsJSON, id, channelID)
		if err != nil {
			return nil, fmt.Errorf("store: update rule: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO rules (channel_id, name, priority, enabled, match_json, action, params_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			channelID, in.Name, priority, enabled, matchJSON, in.Action, paramsJSON)
		if err != nil {
			return nil, fmt.Errorf("store: insert rule: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("store: rule last insert id: %w", err)
		}
	}
	return s.GetRule(ctx, id)
}

// GetRule fetches a single rule by id regardless of soft-delete state.
func (s *Store) GetRule(ctx context.Context, id int64) (*Rule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, name, priority, enabled, match_json, action, params_json, created_at, updated_at, deleted_at
		 FROM rules WHERE id = ?`, id)
	return scanRule(row)
}

// DeleteRule soft-deletes a rule.
func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rules SET deleted_at = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete rule: %w", err)
	}
	return nil
}

// ReorderRules renumbers a channel's rules to 0, 10, 20, ... following
// orderedIDs.
func (s *Store) ReorderRules(ctx context.Context, channelID int64, orderedIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: reorder rules: %w", err)
	}
	defer tx.Rollback()

	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE rules SET priority = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = ? AND channel_id = ?`,
			i*10, id, channelID); err != nil {
			return fmt.Errorf("store: reorder rule %d: %w", id, err)
		}
	}
	return tx.Commit()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanChannel(row scannable) (*Channel, error) {
	var c Channel
	var ownerID sql.NullInt64
	var createdAt, updatedAt string
	var deletedAt sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Enabled, &c.Timezone, &ownerID, &createdAt, &updatedAt, &deletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan channel: %w", err)
	}
	if ownerID.Valid {
		c.OwnerID = &ownerID.Int64
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, deletedAt.String)
		c.DeletedAt = &t
	}
	return &c, nil
}

func scanRule(row scannable) (*Rule, error) {
	var r Rule
	var createdAt, updatedAt string
	var deletedAt sql.NullString
	if err := row.Scan(&r.ID, &r.ChannelID, &r.Name, &r.Priority, &r.Enabled, &r.MatchJSON, &r.Action, &r.ParamsJSON, &createdAt, &updatedAt, &deletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan rule: %w", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if deletedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, deletedAt.String)
		r.DeletedAt = &t
	}
	return &r, nil
}
