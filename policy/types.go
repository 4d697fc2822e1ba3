// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

// Package policy defines the YAML policy schema and the evaluation engine
// that turns scan findings into an enforcement action. Policies are loaded
// from disk, validated as a whole, and swapped atomically so an in-flight
// scan always sees exactly one policy value end-to-end.
package policy

import (
	"clawguard/platform/scanner"
)

// Action is the enforcement decision for a scan.
type Action string

const (
	ActionAllow  Action = "ALLOW"
	ActionBlock  Action = "BLOCK"
	ActionRedact Action = "REDACT"
	ActionPrompt Action = "PROMPT"
)

// Valid reports whether a is a known action. PROMPT is only ever produced
// by the engine, but it is accepted in policy rules too.
func (a Action) Valid() bool {
	switch a {
	case ActionAllow, ActionBlock, ActionRedact, ActionPrompt:
		return true
	}
	return false
}

// RedactStrategy selects how matched spans are rewritten.
type RedactStrategy string

const (
	StrategyMask   RedactStrategy = "mask"
	StrategyHash   RedactStrategy = "hash"
	StrategyRemove RedactStrategy = "remove"
)

// Valid reports whether s is a known redaction strategy.
func (s RedactStrategy) Valid() bool {
	switch s {
	case StrategyMask, StrategyHash, StrategyRemove:
		return true
	}
	return false
}

// RedactionConfig tunes the redactor.
type RedactionConfig struct {
	Strategy          RedactStrategy `json:"strategy" yaml:"strategy" validate:"required,redactstrategy"`
	MaskChar          string         `json:"mask_char" yaml:"mask_char" validate:"required"`
	MaskPreserveEdges int            `json:"mask_preserve_edges" yaml:"mask_preserve_edges" validate:"gte=0"`
}

// SeverityOverride maps a finding severity to an action. Overrides are
// evaluated in order and the first severity present among the findings wins.
type SeverityOverride struct {
	Severity scanner.Severity `json:"severity" yaml:"severity" validate:"required,severity"`
	Action   Action           `json:"action" yaml:"action" validate:"required,action"`
}

// DestinationRule applies an action when the request destination matches a
// shell-style glob. A non-empty Scanners list additionally restricts which
// scanner families run for that destination.
type DestinationRule struct {
	Pattern  string         `json:"pattern" yaml:"pattern" validate:"required,glob"`
	Action   Action         `json:"action" yaml:"action" validate:"required,action"`
	Scanners []scanner.Type `json:"scanners,omitempty" yaml:"scanners,omitempty" validate:"dive,scannertype"`
}

// AgentRule applies per-agent destination controls. Action may be empty, in
// which case an allowed-destination match falls back to ALLOW and otherwise
// evaluation falls through to the default action.
type AgentRule struct {
	AgentID             string   `json:"agent_id" yaml:"agent_id" validate:"required"`
	Action              Action   `json:"action,omitempty" yaml:"action,omitempty" validate:"omitempty,action"`
	AllowedDestinations []string `json:"allowed_destinations,omitempty" yaml:"allowed_destinations,omitempty" validate:"dive,glob"`
	BlockedDestinations []string `json:"blocked_destinations,omitempty" yaml:"blocked_destinations,omitempty" validate:"dive,glob"`
}

// Config is the full policy document.
type Config struct {
	DefaultAction            Action                      `json:"default_action" yaml:"default_action" validate:"required,action"`
	Redaction                RedactionConfig             `json:"redaction" yaml:"redaction"`
	SeverityOverrides        []SeverityOverride          `json:"severity_overrides" yaml:"severity_overrides" validate:"dive"`
	PatternSeverityOverrides map[string]scanner.Severity `json:"pattern_severity_overrides" yaml:"pattern_severity_overrides" validate:"dive,severity"`
	PromptThreshold          *scanner.Severity           `json:"prompt_threshold,omitempty" yaml:"prompt_threshold,omitempty"`
	DestinationAllowlist     []string                    `json:"destination_allowlist" yaml:"destination_allowlist" validate:"dive,glob"`
	DestinationBlocklist     []string                    `json:"destination_blocklist" yaml:"destination_blocklist" validate:"dive,glob"`
	DestinationRules         []DestinationRule           `json:"destination_rules" yaml:"destination_rules" validate:"dive"`
	AgentRules               []AgentRule                 `json:"agent_rules" yaml:"agent_rules" validate:"dive"`
	CustomPatterns           []scanner.CustomPatternSpec `json:"custom_patterns" yaml:"custom_patterns"`
	DisabledPatterns         []string                    `json:"disabled_patterns" yaml:"disabled_patterns"`
}

// Default returns the policy used when no file exists yet: block on any
// finding, mask redaction preserving 4 edge characters, no rules.
func Default() *Config {
	return &Config{
		DefaultAction: ActionBlock,
		Redaction: RedactionConfig{
			Strategy:          StrategyMask,
			MaskChar:          "*",
			MaskPreserveEdges: 4,
		},
		SeverityOverrides:        []SeverityOverride{},
		PatternSeverityOverrides: map[string]scanner.Severity{},
		DestinationAllowlist:     []string{},
		DestinationBlocklist:     []string{},
		DestinationRules:         []DestinationRule{},
		AgentRules:               []AgentRule{},
		CustomPatterns:           []scanner.CustomPatternSpec{},
		DisabledPatterns:         []string{},
	}
}
