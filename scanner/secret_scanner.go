// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package scanner

import (
	"regexp"
	"sync"
)

// Entropy pass defaults. Tokens at least EntropyMinLength characters long
// with Shannon entropy above EntropyThreshold are flagged when no pattern
// already covers them.
const (
	EntropyThreshold = 4.5
	EntropyMinLength = 20
)

// entropyCandidate matches token shapes worth an entropy measurement:
// base64/base62 runs with the usual padding and separator characters.
var entropyCandidate = regexp.MustCompile(`[A-Za-z0-9+/=_\-]{20,}`)

// SecretScanner detects known credential formats plus unrecognized
// high-entropy tokens. Pattern toggles are safe for concurrent use with
// scanning.
type SecretScanner struct {
	entropyThreshold float64
	entropyMinLength int

	mu       sync.RWMutex
	disabled map[string]struct{}
}

// NewSecretScanner returns a SecretScanner with default entropy tuning.
func NewSecretScanner() *SecretScanner {
	return &SecretScanner{
		entropyThreshold: EntropyThreshold,
		entropyMinLength: EntropyMinLength,
		disabled:         make(map[string]struct{}),
	}
}

// Type implements Scanner.
func (s *SecretScanner) Type() Type { return TypeSecret }

// SetDisabledPatterns replaces the set of pattern names this scanner skips.
// Unknown names are ignored.
func (s *SecretScanner) SetDisabledPatterns(names []string) {
	disabled := make(map[string]struct{}, len(names))
	for _, n := range names {
		disabled[n] = struct{}{}
	}
	s.mu.Lock()
	s.disabled = disabled
	s.mu.Unlock()
}

type matchSpan struct{ start, end int }

// Scan implements Scanner. It runs the pattern corpus first, then an entropy
// pass over candidate tokens not already covered by a pattern match.
func (s *SecretScanner) Scan(content string) []Finding {
	s.mu.RLock()
	disabled := s.disabled
	s.mu.RUnlock()

	var findings []Finding
	seen := make(map[matchSpan]struct{})

	for i := range secretPatterns {
		sp := &secretPatterns[i]
		if _, off := disabled[sp.Name]; off {
			continue
		}
		for _, loc := range sp.Regexp.FindAllStringIndex(content, -1) {
			start, end := loc[0], loc[1]
			if sp.Boundary != nil && !sp.Boundary(content, start, end) {
				continue
			}
			key := matchSpan{start, end}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			findings = append(findings, Finding{
				ScannerType: TypeSecret,
				FindingType: sp.Name,
				Severity:    sp.Severity,
				MatchedText: content[start:end],
				Start:       start,
				End:         end,
				Context:     extractContext(content, start, end),
				Metadata:    map[string]string{"category": sp.Category},
			})
		}
	}

	for _, loc := range entropyCandidate.FindAllStringIndex(content, -1) {
		start, end := loc[0], loc[1]
		if coveredBy(seen, start, end) {
			continue
		}
		token := content[start:end]
		if !IsHighEntropy(token, s.entropyThreshold, s.entropyMinLength) {
			continue
		}
		findings = append(findings, Finding{
			ScannerType: TypeSecret,
			FindingType: "high_entropy_string",
			Severity:    SeverityMedium,
			MatchedText: token,
			Start:       start,
			End:         end,
			Context:     extractContext(content, start, end),
			Metadata:    map[string]string{"category": "entropy"},
		})
	}

	return findings
}

// coveredBy reports whether some already-recorded pattern span fully
// contains [start, end).
func coveredBy(seen map[matchSpan]struct{}, start, end int) bool {
	for s := range seen {
		if s.start <= start && s.end >= end {
			return true
		}
	}
	return false
}
