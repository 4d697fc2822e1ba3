// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomScannerLoadAndScan(t *testing.T) {
	s := NewCustomScanner()
	err := s.LoadPatterns([]CustomPatternSpec{
		{Name: "employee_id", Regex: `EMP-\d{6}`},
		{Name: "project_codename", Regex: `PRJ_[A-Z]{4,}`, Severity: "high"},
	})
	require.NoError(t, err)

	findings := s.Scan("assigned EMP-123456 to PRJ_ATLAS")
	require.Len(t, findings, 2)

	assert.Equal(t, "employee_id", findings[0].FindingType)
	assert.Equal(t, SeverityMedium, findings[0].Severity)
	assert.Equal(t, "EMP-123456", findings[0].MatchedText)

	assert.Equal(t, "project_codename", findings[1].FindingType)
	assert.Equal(t, SeverityHigh, findings[1].Severity)
}

func TestCustomScannerLoadIsAllOrNothing(t *testing.T) {
	s := NewCustomScanner()
	require.NoError(t, s.LoadPatterns([]CustomPatternSpec{
		{Name: "employee_id", Regex: `EMP-\d{6}`},
	}))

	err := s.LoadPatterns([]CustomPatternSpec{
		{Name: "ok_pattern", Regex: `OK-\d+`},
		{Name: "broken", Regex: `[unclosed`},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	// The previous set stays active after a failed load.
	findings := s.Scan("EMP-123456 OK-22")
	require.Len(t, findings, 1)
	assert.Equal(t, "employee_id", findings[0].FindingType)
}

func TestCustomScannerRejectsUnknownSeverity(t *testing.T) {
	s := NewCustomScanner()
	err := s.LoadPatterns([]CustomPatternSpec{
		{Name: "bad", Regex: `x+`, Severity: "URGENT"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "URGENT")
}

func TestCustomScannerEmptyLoadClears(t *testing.T) {
	s := NewCustomScanner()
	require.NoError(t, s.LoadPatterns([]CustomPatternSpec{
		{Name: "employee_id", Regex: `EMP-\d{6}`},
	}))
	require.NoError(t, s.LoadPatterns(nil))

	assert.Empty(t, s.Scan("EMP-123456"))
	assert.Empty(t, s.Patterns())
}
