// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const eventColumns = "id, timestamp, agent_id, destination, content_hash, action, findings_count, duration_ms"

// recentScanCount is how many events GetStats includes verbatim.
const recentScanCount = 5

// SQLRepository implements Repository on database/sql. The dialect supplies
// schema, placeholder style, and timestamp representation, so the same
// implementation serves SQLite, PostgreSQL, and MySQL.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ Repository = (*SQLRepository)(nil)

// NewSQLRepository creates a repository over db using dialect.
func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Migrate creates the audit tables when they do not exist yet.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.Schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run %s migration: %w", r.dialect.Name, err)
		}
	}
	return nil
}

// LogScan inserts the event and all findings in one transaction.
func (r *SQLRepository) LogScan(ctx context.Context, record *ScanRecord) (int64, error) {
	if record == nil {
		return 0, ErrInvalidInput
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	eventQuery := r.dialect.rebind(`INSERT INTO scan_events
		(timestamp, agent_id, destination, content_hash, action, findings_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	args := []any{
		r.dialect.timeArg(time.Now()),
		nullString(record.AgentID),
		nullString(record.Destination),
		record.ContentHash,
		record.Action,
		record.FindingsCount,
		record.DurationMs,
	}

	var eventID int64
	if r.dialect.ReturningID {
		err = tx.QueryRowContext(ctx, eventQuery+" RETURNING id", args...).Scan(&eventID)
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx, eventQuery, args...)
		if err == nil {
			eventID, err = res.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan event: %w", err)
	}

	findingQuery := r.dialect.rebind(`INSERT INTO findings
		(scan_event_id, scanner_type, finding_type, severity, start_offset, end_offset, redacted_snippet)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for i := range record.Findings {
		f := &record.Findings[i]
		_, err := tx.ExecContext(ctx, findingQuery,
			eventID, f.ScannerType, f.FindingType, f.Severity,
			f.StartOffset, f.EndOffset, nullString(f.RedactedSnippet),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan event: %w", err)
	}
	return eventID, nil
}

// QueryEvents returns events matching q, newest first, findings attached.
func (r *SQLRepository) QueryEvents(ctx context.Context, q Query) ([]Event, error) {
	q = q.normalized()

	query := "SELECT " + eventColumns + " FROM scan_events"
	var conditions []string
	var args []any

	if q.AgentID != "" {
		conditions = append(conditions, "agent_id = ?")
		args = append(args, q.AgentID)
	}
	if q.Destination != "" {
		conditions = append(conditions, "destination = ?")
		args = append(args, q.Destination)
	}
	if q.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, q.Action)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	// id breaks ties between events stored within one timestamp tick.
	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		event, err := scanEventRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan events: %w", err)
	}

	if err := r.attachFindings(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent returns one event with findings, or ErrNotFound.
func (r *SQLRepository) GetEvent(ctx context.Context, id int64) (*Event, error) {
	query := r.dialect.rebind("SELECT " + eventColumns + " FROM scan_events WHERE id = ?")

	event, err := scanEventRow(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan event: %w", err)
	}

	events := []Event{event}
	if err := r.attachFindings(ctx, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

// GetStats aggregates the dashboard statistics.
func (r *SQLRepository) GetStats(ctx context.Context) (*Stats, error) {
	stats := emptyStats()

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scan_events").Scan(&stats.TotalScans); err != nil {
		return nil, fmt.Errorf("failed to count scans: %w", err)
	}

	err := r.queryCounts(ctx,
		"SELECT action, COUNT(*) FROM scan_events GROUP BY action ORDER BY COUNT(*) DESC, action ASC",
		func(label string, count int64) {
			stats.ActionCounts = append(stats.ActionCounts, ActionCount{Action: label, Count: count})
		})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate actions: %w", err)
	}

	err = r.queryCounts(ctx,
		"SELECT severity, COUNT(*) FROM findings GROUP BY severity ORDER BY COUNT(*) DESC, severity ASC",
		func(label string, count int64) {
			stats.SeverityCounts = append(stats.SeverityCounts, SeverityCount{Severity: label, Count: count})
		})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate severities: %w", err)
	}

	err = r.queryCounts(ctx,
		"SELECT finding_type, COUNT(*) FROM findings GROUP BY finding_type ORDER BY COUNT(*) DESC, finding_type ASC LIMIT 10",
		func(label string, count int64) {
			stats.TopFindingTypes = append(stats.TopFindingTypes, FindingTypeCount{FindingType: label, Count: count})
		})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate finding types: %w", err)
	}

	recent, err := r.QueryEvents(ctx, Query{Limit: recentScanCount})
	if err != nil {
		return nil, err
	}
	stats.RecentScans = recent

	return stats, nil
}

// Ping verifies database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// attachFindings loads the findings for every event in one query and
// fills them in, ordered by insertion.
func (r *SQLRepository) attachFindings(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	index := make(map[int64]*Event, len(events))
	placeholders := make([]string, len(events))
	args := make([]any, len(events))
	for i := range events {
		index[events[i].ID] = &events[i]
		placeholders[i] = "?"
		args[i] = events[i].ID
	}

	query := fmt.Sprintf(`SELECT id, scan_event_id, scanner_type, finding_type, severity, start_offset, end_offset, redacted_snippet
		FROM findings WHERE scan_event_id IN (%s) ORDER BY scan_event_id ASC, id ASC`,
		strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Finding
		var eventID int64
		var snippet sql.NullString
		err := rows.Scan(&f.ID, &eventID, &f.ScannerType, &f.FindingType, &f.Severity, &f.StartOffset, &f.EndOffset, &snippet)
		if err != nil {
			return fmt.Errorf("failed to scan finding row: %w", err)
		}
		if snippet.Valid {
			f.RedactedSnippet = snippet.String
		}
		if event, ok := index[eventID]; ok {
			event.Findings = append(event.Findings, f)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating findings: %w", err)
	}
	return nil
}

func (r *SQLRepository) queryCounts(ctx context.Context, query string, emit func(label string, count int64)) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return err
		}
		emit(label, count)
	}
	return rows.Err()
}

// scanEventRow reads one scan_events row. The scan argument is either
// sql.Row.Scan or sql.Rows.Scan.
func scanEventRow(scan func(dest ...any) error) (Event, error) {
	var e Event
	var ts timeScanner
	var agentID, destination sql.NullString

	err := scan(&e.ID, &ts, &agentID, &destination, &e.ContentHash, &e.Action, &e.FindingsCount, &e.DurationMs)
	if err != nil {
		return Event{}, err
	}

	e.Timestamp = ts.Time
	if agentID.Valid {
		e.AgentID = agentID.String
	}
	if destination.Valid {
		e.Destination = destination.String
	}
	e.Findings = []Finding{}
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timeScanner reads timestamps stored natively or as text, covering the
// formats the three supported drivers hand back.
type timeScanner struct {
	Time time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (s *timeScanner) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		s.Time = v
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", value)
	}
}

func (s *timeScanner) parse(raw string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			s.Time = t
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", raw)
}
