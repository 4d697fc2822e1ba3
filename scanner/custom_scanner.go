// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package scanner

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// CustomPatternSpec is an uncompiled custom pattern, typically decoded from
// a policy file. An empty Severity defaults to MEDIUM.
type CustomPatternSpec struct {
	Name     string `json:"name" yaml:"name"`
	Regex    string `json:"regex" yaml:"regex"`
	Severity string `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// CustomPattern is a compiled operator-defined pattern.
type CustomPattern struct {
	Name     string
	Regex    string
	Severity Severity
	Regexp   *regexp.Regexp
}

// CustomScanner runs operator-defined patterns loaded from policy. Loading
// is all-or-nothing: one bad pattern rejects the whole set and leaves the
// previous set active.
type CustomScanner struct {
	mu       sync.RWMutex
	patterns []CustomPattern
}

// NewCustomScanner returns an empty CustomScanner.
func NewCustomScanner() *CustomScanner {
	return &CustomScanner{}
}

// Type implements Scanner.
func (s *CustomScanner) Type() Type { return TypeCustom }

// LoadPatterns compiles and installs specs, replacing the active set. On any
// compile or severity error nothing is replaced and the error names the
// offending pattern.
func (s *CustomScanner) LoadPatterns(specs []CustomPatternSpec) error {
	compiled := make([]CustomPattern, 0, len(specs))
	for _, spec := range specs {
		severity := SeverityMedium
		if spec.Severity != "" {
			severity = Severity(strings.ToUpper(spec.Severity))
			if !severity.Valid() {
				return fmt.Errorf("custom pattern %q: unknown severity %q", spec.Name, spec.Severity)
			}
		}
		re, err := CompilePatternSafe(spec.Regex)
		if err != nil {
			return fmt.Errorf("custom pattern %q: %w", spec.Name, err)
		}
		compiled = append(compiled, CustomPattern{
			Name:     spec.Name,
			Regex:    spec.Regex,
			Severity: severity,
			Regexp:   re,
		})
	}

	s.mu.Lock()
	s.patterns = compiled
	s.mu.Unlock()
	return nil
}

// Patterns returns the active compiled patterns.
func (s *CustomScanner) Patterns() []CustomPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CustomPattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Scan implements Scanner.
func (s *CustomScanner) Scan(content string) []Finding {
	s.mu.RLock()
	patterns := s.patterns
	s.mu.RUnlock()

	var findings []Finding
	for i := range patterns {
		cp := &patterns[i]
		for _, loc := range cp.Regexp.FindAllStringIndex(content, -1) {
			start, end := loc[0], loc[1]
			findings = append(findings, Finding{
				ScannerType: TypeCustom,
				FindingType: cp.Name,
				Severity:    cp.Severity,
				MatchedText: content[start:end],
				Start:       start,
				End:         end,
				Context:     extractContext(content, start, end),
			})
		}
	}
	return findings
}
