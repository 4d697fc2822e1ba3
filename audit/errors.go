// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package audit

import "errors"

var (
	// ErrNotFound is returned when a requested scan event does not exist.
	ErrNotFound = errors.New("scan event not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDatabaseUnavailable is returned when the backing store cannot be
	// reached.
	ErrDatabaseUnavailable = errors.New("database unavailable")
)
