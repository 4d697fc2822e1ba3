// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package scanner

import "sync"

// PIIScanner detects personally identifiable information. Matches that fail
// a pattern's validator (Luhn, SSN area-code rules) are dropped silently.
// Pattern toggles and severity overrides are safe for concurrent use with
// scanning.
type PIIScanner struct {
	mu        sync.RWMutex
	disabled  map[string]struct{}
	overrides map[string]Severity
}

// NewPIIScanner returns a PIIScanner with every built-in pattern enabled at
// its default severity.
func NewPIIScanner() *PIIScanner {
	return &PIIScanner{
		disabled:  make(map[string]struct{}),
		overrides: make(map[string]Severity),
	}
}

// Type implements Scanner.
func (s *PIIScanner) Type() Type { return TypePII }

// SetDisabledPatterns replaces the set of pattern names this scanner skips.
// Unknown names are ignored.
func (s *PIIScanner) SetDisabledPatterns(names []string) {
	disabled := make(map[string]struct{}, len(names))
	for _, n := range names {
		disabled[n] = struct{}{}
	}
	s.mu.Lock()
	s.disabled = disabled
	s.mu.Unlock()
}

// SetSeverityOverrides replaces the per-pattern severity overrides applied
// to emitted findings.
func (s *PIIScanner) SetSeverityOverrides(overrides map[string]Severity) {
	copied := make(map[string]Severity, len(overrides))
	for name, sev := range overrides {
		copied[name] = sev
	}
	s.mu.Lock()
	s.overrides = copied
	s.mu.Unlock()
}

// SeverityFor returns the effective severity for a pattern name after
// overrides, falling back to def.
func (s *PIIScanner) SeverityFor(name string, def Severity) Severity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sev, ok := s.overrides[name]; ok {
		return sev
	}
	return def
}

// Scan implements Scanner.
func (s *PIIScanner) Scan(content string) []Finding {
	s.mu.RLock()
	disabled := s.disabled
	overrides := s.overrides
	s.mu.RUnlock()

	var findings []Finding
	for i := range piiPatterns {
		pp := &piiPatterns[i]
		if _, off := disabled[pp.Name]; off {
			continue
		}
		for _, loc := range pp.Regexp.FindAllStringIndex(content, -1) {
			start, end := loc[0], loc[1]
			if pp.Boundary != nil && !pp.Boundary(content, start, end) {
				continue
			}
			matched := content[start:end]
			if pp.Validator != nil && !pp.Validator(matched) {
				continue
			}
			severity := pp.Severity
			if sev, ok := overrides[pp.Name]; ok {
				severity = sev
			}
			findings = append(findings, Finding{
				ScannerType: TypePII,
				FindingType: pp.Name,
				Severity:    severity,
				MatchedText: matched,
				Start:       start,
				End:         end,
				Context:     extractContext(content, start, end),
			})
		}
	}
	return findings
}
