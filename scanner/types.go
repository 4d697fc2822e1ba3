// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

// Package scanner implements content inspection for secrets, PII, and
// operator-defined custom patterns. Scanners are pure functions over text:
// they hold compiled patterns plus per-pattern toggles and produce Findings
// with byte offsets into the scanned content.
package scanner

// Type identifies a scanner family.
type Type string

const (
	TypeSecret Type = "SECRET"
	TypePII    Type = "PII"
	TypeCustom Type = "CUSTOM"
)

// Severity classifies how sensitive a finding is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityRanks orders severities for threshold comparisons.
var severityRanks = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the position of s in the LOW < MEDIUM < HIGH < CRITICAL
// ordering. Unknown severities rank below LOW.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Finding is a single match produced by a scanner. Start and End are byte
// offsets into the scanned content, End exclusive.
type Finding struct {
	ScannerType Type              `json:"scanner_type"`
	FindingType string            `json:"finding_type"`
	Severity    Severity          `json:"severity"`
	MatchedText string            `json:"matched_text"`
	Start       int               `json:"start"`
	End         int               `json:"end"`
	Context     string            `json:"context,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Scanner is the contract every scanner family implements.
type Scanner interface {
	// Type returns the scanner family identifier.
	Type() Type
	// Scan inspects content and returns all findings.
	Scan(content string) []Finding
}

// contextWindow is the number of characters captured on each side of a
// match for the Finding context snippet.
const contextWindow = 30

func extractContext(content string, start, end int) string {
	ctxStart := start - contextWindow
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := end + contextWindow
	if ctxEnd > len(content) {
		ctxEnd = len(content)
	}
	return content[ctxStart:ctxEnd]
}
