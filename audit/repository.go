// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package audit

import (
	"context"
)

// Repository defines the interface for audit trail persistence.
type Repository interface {
	// LogScan persists a scan event with its findings in one atomic write
	// and returns the new event ID.
	LogScan(ctx context.Context, record *ScanRecord) (int64, error)

	// QueryEvents returns events matching q, newest first.
	QueryEvents(ctx context.Context, q Query) ([]Event, error)

	// GetEvent returns a single event by ID, or ErrNotFound.
	GetEvent(ctx context.Context, id int64) (*Event, error)

	// GetStats returns aggregated dashboard statistics.
	GetStats(ctx context.Context) (*Stats, error)

	// Ping checks the backing store.
	Ping(ctx context.Context) error

	// Close releases the backing store connections.
	Close() error
}

// NoOpRepository is used when no database is configured. Scans proceed,
// nothing is recorded.
type NoOpRepository struct{}

var _ Repository = (*NoOpRepository)(nil)

func (r *NoOpRepository) LogScan(ctx context.Context, record *ScanRecord) (int64, error) {
	return 0, nil
}

func (r *NoOpRepository) QueryEvents(ctx context.Context, q Query) ([]Event, error) {
	return []Event{}, nil
}

func (r *NoOpRepository) GetEvent(ctx context.Context, id int64) (*Event, error) {
	return nil, ErrNotFound
}

func (r *NoOpRepository) GetStats(ctx context.Context) (*Stats, error) {
	return emptyStats(), nil
}

func (r *NoOpRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *NoOpRepository) Close() error {
	return nil
}
