// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

// Package redact rewrites matched spans in scanned content and dispatches
// the policy action. Redacted output never contains the original matched
// text, whatever the strategy.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"clawguard/platform/policy"
	"clawguard/platform/scanner"
)

// Redactor applies the configured redaction strategy to content spans. The
// config is swapped whole on policy reload, so a scan in flight keeps the
// strategy it started with.
type Redactor struct {
	mu  sync.RWMutex
	cfg policy.RedactionConfig
}

// NewRedactor returns a Redactor using cfg. Missing fields fall back to the
// mask strategy with `*` and 4 preserved edge characters.
func NewRedactor(cfg policy.RedactionConfig) *Redactor {
	return &Redactor{cfg: normalize(cfg)}
}

// Config returns the active redaction config.
func (r *Redactor) Config() policy.RedactionConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// SetConfig installs cfg as the active redaction config.
func (r *Redactor) SetConfig(cfg policy.RedactionConfig) {
	cfg = normalize(cfg)
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

func normalize(cfg policy.RedactionConfig) policy.RedactionConfig {
	if !cfg.Strategy.Valid() {
		cfg.Strategy = policy.StrategyMask
	}
	if cfg.MaskChar == "" {
		cfg.MaskChar = "*"
	}
	if cfg.MaskPreserveEdges < 0 {
		cfg.MaskPreserveEdges = 0
	}
	return cfg
}

// Redact replaces every finding's span in content using the configured
// strategy. Spans are applied from the end of the content backwards so
// earlier replacements cannot shift later offsets. Findings whose offsets
// fall outside the content are skipped.
func (r *Redactor) Redact(content string, findings []scanner.Finding) string {
	if len(findings) == 0 {
		return content
	}

	ordered := make([]scanner.Finding, len(findings))
	copy(ordered, findings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	result := content
	for i := range ordered {
		f := &ordered[i]
		if f.Start < 0 || f.End > len(result) || f.Start > f.End {
			continue
		}
		result = result[:f.Start] + r.RedactValue(f.MatchedText) + result[f.End:]
	}
	return result
}

// RedactValue applies the configured strategy to a single matched value.
// Under the hash strategy the result is a stable fingerprint of the value,
// so the same secret redacts to the same placeholder across scans.
func (r *Redactor) RedactValue(text string) string {
	cfg := r.Config()

	switch cfg.Strategy {
	case policy.StrategyRemove:
		return "[REDACTED]"
	case policy.StrategyHash:
		return "[REDACTED:sha256:" + sha256Short(text) + "]"
	default:
		return mask(text, cfg.MaskChar, cfg.MaskPreserveEdges)
	}
}

// mask keeps the first and last preserve characters and overwrites the rest.
// Values too short to keep both edges are masked entirely. Edges are counted
// in runes so multibyte text is never split mid-character.
func mask(text, maskChar string, preserve int) string {
	runes := []rune(text)
	if len(runes) <= preserve*2 {
		return strings.Repeat(maskChar, len(runes))
	}

	masked := strings.Repeat(maskChar, len(runes)-preserve*2)
	return string(runes[:preserve]) + masked + string(runes[len(runes)-preserve:])
}

func sha256Short(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:8]
}
