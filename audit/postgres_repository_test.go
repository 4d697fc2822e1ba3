// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresLogScan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRepository(db, PostgresDialect)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO scan_events`).
		WithArgs(sqlmock.AnyArg(), "agent-1", nil, "hash-value", "BLOCK", 1, 12.5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(`INSERT INTO findings`).
		WithArgs(int64(7), "SECRET", "github_pat", "HIGH", 0, 40, "ghp_****").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := repo.LogScan(context.Background(), &ScanRecord{
		AgentID:       "agent-1",
		ContentHash:   "hash-value",
		Action:        "BLOCK",
		FindingsCount: 1,
		DurationMs:    12.5,
		Findings: []Finding{
			{ScannerType: "SECRET", FindingType: "github_pat", Severity: "HIGH", StartOffset: 0, EndOffset: 40, RedactedSnippet: "ghp_****"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLogScanRollsBackOnFindingError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRepository(db, PostgresDialect)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO scan_events`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectExec(`INSERT INTO findings`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = repo.LogScan(context.Background(), &ScanRecord{
		ContentHash:   "hash-value",
		Action:        "BLOCK",
		FindingsCount: 1,
		Findings:      []Finding{{ScannerType: "SECRET", FindingType: "github_pat", Severity: "HIGH"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert finding")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryEventsBuildsFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRepository(db, PostgresDialect)

	mock.ExpectQuery(`SELECT .+ FROM scan_events WHERE agent_id = \$1 AND action = \$2 ORDER BY timestamp DESC, id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("agent-1", "BLOCK", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "timestamp", "agent_id", "destination", "content_hash", "action", "findings_count", "duration_ms",
		}))

	events, err := repo.QueryEvents(context.Background(), Query{AgentID: "agent-1", Action: "BLOCK"})
	require.NoError(t, err)
	assert.Empty(t, events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetEventNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLRepository(db, PostgresDialect)

	mock.ExpectQuery(`SELECT .+ FROM scan_events WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "timestamp", "agent_id", "destination", "content_hash", "action", "findings_count", "duration_ms",
		}))

	_, err = repo.GetEvent(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
