// Package eventlog is the append-only record of every processed ESAM
// signal: matched rule, action, latency, and (optionally) raw payloads.
package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Detail when no event with the given id exists.
var ErrNotFound = errors.New("eventlog: not found")

// Record is one EventRecord as described by the data model.
type Record struct {
	ID                  int64
	Timestamp           time.Time
	ChannelName         string
	AcquisitionSignalID string
	UTCPoint            string
	SourceIP            *string
	UserAgent           *string
	SCTE35Command       *string
	SCTE35TypeID        *string
	SCTE35UPID          *string
	MatchedRuleID       *int64
	MatchedRuleName     *string
	Action              string
	RequestSize         *int
	ProcessingTimeMs    *int
	ResponseStatus      int
	ErrorMessage        *string
	RawRequest          *string
	RawResponse         *string
}

// Filters narrows Recent's result set.
type Filters struct {
	ChannelName string
	Action      string
	Since       string
}

// Stats is the aggregate summary returned by Logger.Stats.
type Stats struct {
	TotalEvents        int64
	Last24hEvents      int64
	ActionCounts       map[string]int64
	AvgProcessingTimeMs *float64
}

// Logger is an append-only writer and query surface over the esam_events
// table, sharing the store's connection pool.
type Logger struct {
	db               *sql.DB
	storeRawPayloads bool
}

// New constructs a Logger. storeRawPayloads gates whether RawRequest /
// RawResponse are persisted (POIS_STORE_RAW_PAYLOADS).
func New(db *sql.DB, storeRawPayloads bool) *Logger {
	return &Logger{db: db, storeRawPayloads: storeRawPayloads}
}

// Insert appends one EventRecord. Called exactly once per processed
// request, regardless of match outcome, per the event count law.
func (l *Logger) Insert(ctx context.Context, rec Record) (int64, error) {
	rawRequest, rawResponse := rec.RawRequest, rec.RawResponse
	if !l.storeRawPayloads {
		rawRequest, rawResponse = nil, nil
	}
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO esam_events (
			channel_name, acquisition_signal_id, utc_point, source_ip, user_agent,
			scte35_command, scte35_type_id, scte35_upid,
			matched_rule_id, matched_rule_name, action,
			request_size, processing_time_ms, response_status, error_message,
			raw_esam_request, raw_esam_response
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ChannelName, rec.AcquisitionSignalID, rec.UTCPoint, rec.SourceIP, rec.UserAgent,
		rec.SCTE35Command, rec.SCTE35TypeID, rec.SCTE35UPID,
		rec.MatchedRuleID, rec.MatchedRuleName, rec.Action,
		rec.RequestSize, rec.ProcessingTimeMs, rec.ResponseStatus, rec.ErrorMessage,
		rawRequest, rawResponse)
	if err != nil {
		return 0, fmt.Errorf("eventlog: insert: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns events in descending timestamp order, limit capped at
// 1000. ownerChannels, when non-nil, restricts results to those channel
// names (non-admin scoping); nil means unrestricted.
func (l *Logger) Recent(ctx context.Context, limit, offset int, f Filters, ownerChannels []string) ([]Record, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	var where []string
	var args []any
	if f.ChannelName != "" {
		where = append(where, "channel_name = ?")
		args = append(args, f.ChannelName)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if f.Since != "" {
		where = append(where, "timestamp >= ?")
		args = append(args, f.Since)
	}
	if ownerChannels != nil {
		if len(ownerChannels) == 0 {
			return nil, nil
		}
		placeholders := make([]string, len(ownerChannels))
		for i, name := range ownerChannels {
			placeholders[i] = "?"
			args = append(args, name)
		}
		where = append(where, "channel_name IN ("+strings.Join(placeholders, ",")+")")
	}

	query := `SELECT id, timestamp, channel_name, acquisition_signal_id, utc_point, source_ip, user_agent,
	          scte35_command, scte35_type_id, scte35_upid, matched_rule_id, matched_rule_name, action,
	          request_size, processing_time_ms, response_status, error_message, raw_esam_request, raw_esam_response
	          FROM esam_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("eventlog: recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Detail fetches a single record including raw payloads.
func (l *Logger) Detail(ctx context.Context, id int64) (*Record, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT id, timestamp, channel_name, acquisition_signal_id, utc_point, source_ip, user_agent,
		       scte35_command, scte35_type_id, scte35_upid, matched_rule_id, matched_rule_name, action,
		       request_size, processing_time_ms, response_status, error_message, raw_esam_request, raw_esam_response
		FROM esam_events WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// Stats computes the 24-hour rollup: total count, last-24h count, per-action
// counts over the last 24h, and mean processing time over the last 24h.
func (l *Logger) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{ActionCounts: map[string]int64{}}

	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM esam_events`).Scan(&s.TotalEvents); err != nil {
		return nil, fmt.Errorf("eventlog: total: %w", err)
	}
	if err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM esam_events WHERE timestamp >= datetime('now', '-1 day')`,
	).Scan(&s.Last24hEvents); err != nil {
		return nil, fmt.Errorf("eventlog: last24h: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT action, COUNT(*) FROM esam_events
		WHERE timestamp >= datetime('now', '-1 day')
		GROUP BY action ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("eventlog: action counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("eventlog: scan action count: %w", err)
		}
		s.ActionCounts[action] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	if err := l.db.QueryRowContext(ctx, `
		SELECT AVG(processing_time_ms) FROM esam_events
		WHERE timestamp >= datetime('now', '-1 day') AND processing_time_ms IS NOT NULL`,
	).Scan(&avg); err != nil {
		return nil, fmt.Errorf("eventlog: avg processing time: %w", err)
	}
	if avg.Valid {
		s.AvgProcessingTimeMs = &avg.Float64
	}
	return s, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	var r Record
	var ts string
	if err := row.Scan(&r.ID, &ts, &r.ChannelName, &r.AcquisitionSignalID, &r.UTCPoint, &r.SourceIP, &r.UserAgent,
		&r.SCTE35Command, &r.SCTE35TypeID, &r.SCTE35UPID, &r.MatchedRuleID, &r.MatchedRuleName, &r.Action,
		&r.RequestSize, &r.ProcessingTimeMs, &r.ResponseStatus, &r.ErrorMessage, &r.RawRequest, &r.RawResponse,
	); err != nil {
		return nil, fmt.Errorf("eventlog: scan: %w", err)
	}
	r.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	return &r, nil
}
