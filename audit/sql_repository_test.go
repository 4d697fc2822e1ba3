// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) *SQLRepository {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLRepository(db, SQLiteDialect)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func sampleRecord(agentID, destination, action string, findings ...Finding) *ScanRecord {
	return &ScanRecord{
		AgentID:       agentID,
		Destination:   destination,
		ContentHash:   strings.Repeat("ab", 32),
		Action:        action,
		FindingsCount: len(findings),
		DurationMs:    1.5,
		Findings:      findings,
	}
}

func TestSQLLogScanAndGetEvent(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	id, err := repo.LogScan(ctx, sampleRecord("agent-1", "api.openai.com", "BLOCK",
		Finding{ScannerType: "SECRET", FindingType: "aws_access_key_id", Severity: "CRITICAL", StartOffset: 6, EndOffset: 26, RedactedSnippet: "AKIA************MPLE"},
		Finding{ScannerType: "PII", FindingType: "email", Severity: "MEDIUM", StartOffset: 30, EndOffset: 45},
	))
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	event, err := repo.GetEvent(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, event.ID)
	assert.Equal(t, "agent-1", event.AgentID)
	assert.Equal(t, "api.openai.com", event.Destination)
	assert.Equal(t, strings.Repeat("ab", 32), event.ContentHash)
	assert.Equal(t, "BLOCK", event.Action)
	assert.Equal(t, 2, event.FindingsCount)
	assert.Equal(t, 1.5, event.DurationMs)
	assert.WithinDuration(t, time.Now(), event.Timestamp, 5*time.Second)

	require.Len(t, event.Findings, 2)
	first := event.Findings[0]
	assert.Greater(t, first.ID, int64(0))
	assert.Equal(t, "SECRET", first.ScannerType)
	assert.Equal(t, "aws_access_key_id", first.FindingType)
	assert.Equal(t, "CRITICAL", first.Severity)
	assert.Equal(t, 6, first.StartOffset)
	assert.Equal(t, 26, first.EndOffset)
	assert.Equal(t, "AKIA************MPLE", first.RedactedSnippet)
	assert.Equal(t, "email", event.Findings[1].FindingType)
	assert.Empty(t, event.Findings[1].RedactedSnippet)
}

func TestSQLLogScanNilRecord(t *testing.T) {
	repo := newSQLiteRepo(t)
	_, err := repo.LogScan(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSQLGetEventNotFound(t *testing.T) {
	repo := newSQLiteRepo(t)
	_, err := repo.GetEvent(context.Background(), 12345)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLEventWithoutAgentOrDestination(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	id, err := repo.LogScan(ctx, sampleRecord("", "", "ALLOW"))
	require.NoError(t, err)

	event, err := repo.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, event.AgentID)
	assert.Empty(t, event.Destination)
	assert.NotNil(t, event.Findings)
	assert.Empty(t, event.Findings)
}

func TestSQLQueryEventsFilters(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	_, err := repo.LogScan(ctx, sampleRecord("agent-a", "dest-1", "BLOCK"))
	require.NoError(t, err)
	_, err = repo.LogScan(ctx, sampleRecord("agent-a", "dest-2", "REDACT"))
	require.NoError(t, err)
	_, err = repo.LogScan(ctx, sampleRecord("agent-b", "dest-1", "ALLOW"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		query Query
		want  int
	}{
		{"no filters", Query{}, 3},
		{"by agent", Query{AgentID: "agent-a"}, 2},
		{"by destination", Query{Destination: "dest-1"}, 2},
		{"by action", Query{Action: "ALLOW"}, 1},
		{"combined", Query{AgentID: "agent-a", Action: "REDACT"}, 1},
		{"no match", Query{AgentID: "agent-z"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := repo.QueryEvents(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, events, tt.want)
		})
	}
}

func TestSQLQueryEventsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := repo.LogScan(ctx, sampleRecord("agent-a", "", "BLOCK"))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	events, err := repo.QueryEvents(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, ids[2], events[0].ID)
	assert.Equal(t, ids[1], events[1].ID)
	assert.Equal(t, ids[0], events[2].ID)
}

func TestSQLQueryEventsPagination(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	for i := 0; i < 5; i++ {
		_, err := repo.LogScan(ctx, sampleRecord("agent-a", "", "BLOCK"))
		require.NoError(t, err)
	}

	page1, err := repo.QueryEvents(ctx, Query{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := repo.QueryEvents(ctx, Query{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Less(t, page2[0].ID, page1[1].ID)

	tail, err := repo.QueryEvents(ctx, Query{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, tail, 1)
}

func TestSQLQueryEventsEmpty(t *testing.T) {
	repo := newSQLiteRepo(t)

	events, err := repo.QueryEvents(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestSQLGetStats(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)

	_, err := repo.LogScan(ctx, sampleRecord("agent-a", "", "BLOCK",
		Finding{ScannerType: "SECRET", FindingType: "aws_access_key_id", Severity: "CRITICAL", StartOffset: 0, EndOffset: 20},
		Finding{ScannerType: "SECRET", FindingType: "github_pat", Severity: "HIGH", StartOffset: 30, EndOffset: 70},
	))
	require.NoError(t, err)
	_, err = repo.LogScan(ctx, sampleRecord("agent-b", "", "REDACT",
		Finding{ScannerType: "SECRET", FindingType: "github_pat", Severity: "HIGH", StartOffset: 0, EndOffset: 40},
	))
	require.NoError(t, err)
	_, err = repo.LogScan(ctx, sampleRecord("agent-c", "", "BLOCK"))
	require.NoError(t, err)

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.TotalScans)
	assert.Equal(t, []ActionCount{
		{Action: "BLOCK", Count: 2},
		{Action: "REDACT", Count: 1},
	}, stats.ActionCounts)
	assert.Equal(t, []SeverityCount{
		{Severity: "HIGH", Count: 2},
		{Severity: "CRITICAL", Count: 1},
	}, stats.SeverityCounts)
	assert.Equal(t, []FindingTypeCount{
		{FindingType: "github_pat", Count: 2},
		{FindingType: "aws_access_key_id", Count: 1},
	}, stats.TopFindingTypes)
	require.Len(t, stats.RecentScans, 3)
	assert.Equal(t, "BLOCK", stats.RecentScans[0].Action)
}

func TestSQLGetStatsEmpty(t *testing.T) {
	repo := newSQLiteRepo(t)

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TotalScans)
	assert.Empty(t, stats.ActionCounts)
	assert.NotNil(t, stats.ActionCounts)
	assert.Empty(t, stats.RecentScans)
	assert.NotNil(t, stats.RecentScans)
}

func TestSQLPing(t *testing.T) {
	repo := newSQLiteRepo(t)
	require.NoError(t, repo.Ping(context.Background()))
}
