// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package audit

import (
	"fmt"
	"strings"
	"time"
)

// Dialect captures the differences between the supported SQL backends so a
// single repository implementation can serve all of them.
type Dialect struct {
	// Name identifies the backend in logs.
	Name string

	// Numbered rewrites ? placeholders to $1..$n (PostgreSQL).
	Numbered bool

	// ReturningID appends RETURNING id to inserts instead of reading
	// LastInsertId from the driver result.
	ReturningID bool

	// TextTime stores timestamps as RFC3339 text. SQLite has no native
	// timestamp type, so writing text keeps reads portable.
	TextTime bool

	// Schema holds the DDL statements run by Migrate.
	Schema []string
}

var SQLiteDialect = Dialect{
	Name:     "sqlite",
	TextTime: true,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS scan_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			agent_id TEXT,
			destination TEXT,
			content_hash TEXT NOT NULL,
			action TEXT NOT NULL,
			findings_count INTEGER NOT NULL DEFAULT 0,
			duration_ms REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_event_id INTEGER NOT NULL REFERENCES scan_events(id) ON DELETE CASCADE,
			scanner_type TEXT NOT NULL,
			finding_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			redacted_snippet TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_events_timestamp ON scan_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_scan_event ON findings(scan_event_id)`,
	},
}

var PostgresDialect = Dialect{
	Name:        "postgres",
	Numbered:    true,
	ReturningID: true,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS scan_events (
			id BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			agent_id VARCHAR(255),
			destination VARCHAR(1024),
			content_hash VARCHAR(64) NOT NULL,
			action VARCHAR(10) NOT NULL,
			findings_count INTEGER NOT NULL DEFAULT 0,
			duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			id BIGSERIAL PRIMARY KEY,
			scan_event_id BIGINT NOT NULL REFERENCES scan_events(id) ON DELETE CASCADE,
			scanner_type VARCHAR(20) NOT NULL,
			finding_type VARCHAR(100) NOT NULL,
			severity VARCHAR(10) NOT NULL,
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			redacted_snippet TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_events_timestamp ON scan_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_scan_event ON findings(scan_event_id)`,
	},
}

var MySQLDialect = Dialect{
	Name: "mysql",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS scan_events (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			timestamp TIMESTAMP(6) NOT NULL,
			agent_id VARCHAR(255) NULL,
			destination VARCHAR(1024) NULL,
			content_hash VARCHAR(64) NOT NULL,
			action VARCHAR(10) NOT NULL,
			findings_count INT NOT NULL DEFAULT 0,
			duration_ms DOUBLE NOT NULL DEFAULT 0,
			INDEX idx_scan_events_timestamp (timestamp)
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			scan_event_id BIGINT NOT NULL,
			scanner_type VARCHAR(20) NOT NULL,
			finding_type VARCHAR(100) NOT NULL,
			severity VARCHAR(10) NOT NULL,
			start_offset INT NOT NULL,
			end_offset INT NOT NULL,
			redacted_snippet TEXT NULL,
			INDEX idx_findings_scan_event (scan_event_id),
			CONSTRAINT fk_findings_scan_event FOREIGN KEY (scan_event_id)
				REFERENCES scan_events(id) ON DELETE CASCADE
		)`,
	},
}

// rebind rewrites ? placeholders into the dialect's bindvar form. Queries
// are written with ? throughout and rebound once.
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteTimeLayout is fixed width, unlike RFC3339Nano which trims trailing
// zeros, so lexicographic ORDER BY over the text column stays chronological.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000-07:00"

// timeArg converts a timestamp into the dialect's storage representation.
func (d Dialect) timeArg(t time.Time) any {
	if d.TextTime {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}
