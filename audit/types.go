// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

// Package audit persists scan events and their findings. Raw scanned
// content is never stored: events carry only a SHA-256 content hash and
// redacted snippets, so the audit trail cannot itself become a leak.
package audit

import "time"

// Finding is one stored finding attached to a scan event.
type Finding struct {
	ID              int64  `json:"id"`
	ScannerType     string `json:"scanner_type"`
	FindingType     string `json:"finding_type"`
	Severity        string `json:"severity"`
	StartOffset     int    `json:"start_offset"`
	EndOffset       int    `json:"end_offset"`
	RedactedSnippet string `json:"redacted_snippet,omitempty"`
}

// Event is one persisted scan with its findings.
type Event struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	AgentID       string    `json:"agent_id,omitempty"`
	Destination   string    `json:"destination,omitempty"`
	ContentHash   string    `json:"content_hash"`
	Action        string    `json:"action"`
	FindingsCount int       `json:"findings_count"`
	DurationMs    float64   `json:"duration_ms"`
	Findings      []Finding `json:"findings"`
}

// ScanRecord is the input to LogScan. Finding IDs are assigned by the
// store.
type ScanRecord struct {
	AgentID       string
	Destination   string
	ContentHash   string
	Action        string
	FindingsCount int
	DurationMs    float64
	Findings      []Finding
}

// Query filters QueryEvents. Zero-value string fields are not applied.
// Limit falls back to DefaultQueryLimit and is capped at MaxQueryLimit.
type Query struct {
	AgentID     string
	Destination string
	Action      string
	Limit       int
	Offset      int
}

const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 500
)

// normalized returns q with limit and offset clamped to their bounds.
func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultQueryLimit
	}
	if q.Limit > MaxQueryLimit {
		q.Limit = MaxQueryLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// ActionCount is the number of scans that ended in one action.
type ActionCount struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// SeverityCount is the number of stored findings at one severity.
type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int64  `json:"count"`
}

// FindingTypeCount is the number of stored findings of one type.
type FindingTypeCount struct {
	FindingType string `json:"finding_type"`
	Count       int64  `json:"count"`
}

// Stats is the aggregated dashboard view of the audit trail.
type Stats struct {
	TotalScans      int64              `json:"total_scans"`
	ActionCounts    []ActionCount      `json:"action_counts"`
	SeverityCounts  []SeverityCount    `json:"severity_counts"`
	TopFindingTypes []FindingTypeCount `json:"top_finding_types"`
	RecentScans     []Event            `json:"recent_scans"`
}

func emptyStats() *Stats {
	return &Stats{
		ActionCounts:    []ActionCount{},
		SeverityCounts:  []SeverityCount{},
		TopFindingTypes: []FindingTypeCount{},
		RecentScans:     []Event{},
	}
}
