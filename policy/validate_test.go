// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawguard/platform/scanner"
)

func TestValidateDefaults(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestValidateNilConfig(t *testing.T) {
	require.ErrorIs(t, Validate(nil), ErrInvalidPolicy)
}

func TestValidateAcceptsFullPolicy(t *testing.T) {
	medium := scanner.SeverityMedium
	cfg := Default()
	cfg.DefaultAction = ActionRedact
	cfg.Redaction = RedactionConfig{Strategy: StrategyHash, MaskChar: "#", MaskPreserveEdges: 0}
	cfg.SeverityOverrides = []SeverityOverride{
		{Severity: scanner.SeverityCritical, Action: ActionBlock},
		{Severity: scanner.SeverityLow, Action: ActionAllow},
	}
	cfg.PatternSeverityOverrides = map[string]scanner.Severity{"email": scanner.SeverityHigh}
	cfg.PromptThreshold = &medium
	cfg.DestinationAllowlist = []string{"*.internal.corp"}
	cfg.DestinationBlocklist = []string{"*.pastebin.com"}
	cfg.DestinationRules = []DestinationRule{
		{Pattern: "api.openai.com", Action: ActionRedact, Scanners: []scanner.Type{scanner.TypeSecret, scanner.TypePII}},
	}
	cfg.AgentRules = []AgentRule{
		{AgentID: "deploy-bot", AllowedDestinations: []string{"*.internal.corp"}},
	}
	cfg.CustomPatterns = []scanner.CustomPatternSpec{
		{Name: "employee_id", Regex: "EMP-[0-9]{6}", Severity: "HIGH"},
		{Name: "project_code", Regex: "PRJ_[A-Z]+"},
	}
	cfg.DisabledPatterns = []string{"ipv4", "ipv6"}

	require.NoError(t, Validate(cfg))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantSubstr string
	}{
		{
			name: "unknown default action",
			mutate: func(cfg *Config) {
				cfg.DefaultAction = "MAYBE"
			},
			wantSubstr: "not an action",
		},
		{
			name: "missing default action",
			mutate: func(cfg *Config) {
				cfg.DefaultAction = ""
			},
			wantSubstr: "required",
		},
		{
			name: "unknown severity in override",
			mutate: func(cfg *Config) {
				cfg.SeverityOverrides = []SeverityOverride{
					{Severity: "EXTREME", Action: ActionBlock},
				}
			},
			wantSubstr: "not a severity",
		},
		{
			name: "unknown action in destination rule",
			mutate: func(cfg *Config) {
				cfg.DestinationRules = []DestinationRule{
					{Pattern: "*", Action: "DROP"},
				}
			},
			wantSubstr: "not an action",
		},
		{
			name: "unknown scanner type in destination rule",
			mutate: func(cfg *Config) {
				cfg.DestinationRules = []DestinationRule{
					{Pattern: "*", Action: ActionBlock, Scanners: []scanner.Type{"REGEX"}},
				}
			},
			wantSubstr: "not a scanner type",
		},
		{
			name: "bad glob in allowlist",
			mutate: func(cfg *Config) {
				cfg.DestinationAllowlist = []string{"["}
			},
			wantSubstr: "not a valid glob",
		},
		{
			name: "unknown redaction strategy",
			mutate: func(cfg *Config) {
				cfg.Redaction.Strategy = "rot13"
			},
			wantSubstr: "not a redaction strategy",
		},
		{
			name: "missing mask char",
			mutate: func(cfg *Config) {
				cfg.Redaction.MaskChar = ""
			},
			wantSubstr: "required",
		},
		{
			name: "negative mask preserve edges",
			mutate: func(cfg *Config) {
				cfg.Redaction.MaskPreserveEdges = -1
			},
			wantSubstr: "gte",
		},
		{
			name: "agent rule without id",
			mutate: func(cfg *Config) {
				cfg.AgentRules = []AgentRule{{Action: ActionAllow}}
			},
			wantSubstr: "required",
		},
		{
			name: "unknown severity in pattern overrides",
			mutate: func(cfg *Config) {
				cfg.PatternSeverityOverrides = map[string]scanner.Severity{"email": "WHATEVER"}
			},
			wantSubstr: "not a severity",
		},
		{
			name: "unknown prompt threshold",
			mutate: func(cfg *Config) {
				bogus := scanner.Severity("SOMETIMES")
				cfg.PromptThreshold = &bogus
			},
			wantSubstr: "not a severity",
		},
		{
			name: "custom pattern with empty name",
			mutate: func(cfg *Config) {
				cfg.CustomPatterns = []scanner.CustomPatternSpec{
					{Name: "   ", Regex: "x"},
				}
			},
			wantSubstr: "empty name",
		},
		{
			name: "custom pattern with unknown severity",
			mutate: func(cfg *Config) {
				cfg.CustomPatterns = []scanner.CustomPatternSpec{
					{Name: "employee_id", Regex: "EMP-[0-9]{6}", Severity: "URGENT"},
				}
			},
			wantSubstr: "unknown severity",
		},
		{
			name: "custom pattern with invalid regex",
			mutate: func(cfg *Config) {
				cfg.CustomPatterns = []scanner.CustomPatternSpec{
					{Name: "broken", Regex: "["},
				}
			},
			wantSubstr: `custom pattern "broken"`,
		},
		{
			name: "custom pattern with nested quantifier",
			mutate: func(cfg *Config) {
				cfg.CustomPatterns = []scanner.CustomPatternSpec{
					{Name: "redos", Regex: "(a+)+$"},
				}
			},
			wantSubstr: `custom pattern "redos"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.ErrorIs(t, err, ErrInvalidPolicy)
			assert.Contains(t, err.Error(), tt.wantSubstr)
		})
	}
}
