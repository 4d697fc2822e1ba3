// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawguard/platform/scanner"
)

func TestLoadFromFileMissing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_action: REDACT\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ActionRedact, cfg.DefaultAction)
	// Fields absent from the document keep their defaults.
	assert.Equal(t, StrategyMask, cfg.Redaction.Strategy)
	assert.Equal(t, "*", cfg.Redaction.MaskChar)
	assert.Equal(t, 4, cfg.Redaction.MaskPreserveEdges)
	assert.Empty(t, cfg.DestinationRules)
}

func TestLoadFromFileParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_action: [oops\n"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPolicy)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadFromFileValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_action: MAYBE\n"), 0o644))

	_, err := LoadFromFile(path)
	require.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseFullDocument(t *testing.T) {
	doc := `
default_action: REDACT
redaction:
  strategy: hash
  mask_char: "#"
  mask_preserve_edges: 2
severity_overrides:
  - severity: CRITICAL
    action: BLOCK
pattern_severity_overrides:
  email: HIGH
prompt_threshold: HIGH
destination_allowlist:
  - "*.internal.corp"
destination_blocklist:
  - "*.pastebin.com"
destination_rules:
  - pattern: api.openai.com
    action: REDACT
    scanners: [SECRET, PII]
agent_rules:
  - agent_id: deploy-bot
    action: ALLOW
    allowed_destinations: ["*.internal.corp"]
custom_patterns:
  - name: employee_id
    regex: "EMP-[0-9]{6}"
    severity: HIGH
disabled_patterns:
  - ipv4
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, ActionRedact, cfg.DefaultAction)
	assert.Equal(t, StrategyHash, cfg.Redaction.Strategy)
	assert.Equal(t, "#", cfg.Redaction.MaskChar)
	assert.Equal(t, 2, cfg.Redaction.MaskPreserveEdges)
	require.Len(t, cfg.SeverityOverrides, 1)
	assert.Equal(t, scanner.SeverityCritical, cfg.SeverityOverrides[0].Severity)
	assert.Equal(t, scanner.SeverityHigh, cfg.PatternSeverityOverrides["email"])
	require.NotNil(t, cfg.PromptThreshold)
	assert.Equal(t, scanner.SeverityHigh, *cfg.PromptThreshold)
	assert.Equal(t, []string{"*.internal.corp"}, cfg.DestinationAllowlist)
	require.Len(t, cfg.DestinationRules, 1)
	assert.Equal(t, []scanner.Type{scanner.TypeSecret, scanner.TypePII}, cfg.DestinationRules[0].Scanners)
	require.Len(t, cfg.AgentRules, 1)
	assert.Equal(t, "deploy-bot", cfg.AgentRules[0].AgentID)
	require.Len(t, cfg.CustomPatterns, 1)
	assert.Equal(t, "employee_id", cfg.CustomPatterns[0].Name)
	assert.Equal(t, []string{"ipv4"}, cfg.DisabledPatterns)
}

func TestSaveToFileRoundTrip(t *testing.T) {
	high := scanner.SeverityHigh
	cfg := Default()
	cfg.DefaultAction = ActionRedact
	cfg.PromptThreshold = &high
	cfg.SeverityOverrides = []SeverityOverride{
		{Severity: scanner.SeverityCritical, Action: ActionBlock},
	}
	cfg.PatternSeverityOverrides["email"] = scanner.SeverityLow
	cfg.DestinationRules = []DestinationRule{
		{Pattern: "api.openai.com", Action: ActionRedact, Scanners: []scanner.Type{scanner.TypeSecret}},
	}
	cfg.CustomPatterns = []scanner.CustomPatternSpec{
		{Name: "employee_id", Regex: "EMP-[0-9]{6}", Severity: "HIGH"},
	}

	path := filepath.Join(t.TempDir(), "nested", "policy.yaml")
	require.NoError(t, SaveToFile(path, cfg))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSaveToFileRejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.DefaultAction = "SOMETIMES"

	path := filepath.Join(t.TempDir(), "policy.yaml")
	err := SaveToFile(path, cfg)
	require.ErrorIs(t, err, ErrInvalidPolicy)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "invalid policy must not be written")
}

func TestEnsureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")

	created, err := EnsureFile(path)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureFile(path)
	require.NoError(t, err)
	assert.False(t, created)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
