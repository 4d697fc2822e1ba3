// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		value   string
		want    bool
	}{
		{"exact match", "api.openai.com", "api.openai.com", true},
		{"exact mismatch", "api.openai.com", "api.anthropic.com", false},
		{"star crosses subdomains", "*.internal.corp", "api.internal.corp", true},
		{"star crosses multiple labels", "*.internal.corp", "a.b.internal.corp", true},
		{"star needs the leading label", "*.internal.corp", "internal.corp", false},
		{"lone star matches everything", "*", "anything.example.com", true},
		{"question mark matches one char", "api-?.corp", "api-1.corp", true},
		{"question mark rejects two chars", "api-?.corp", "api-10.corp", false},
		{"blocklist style pattern", "*.pastebin.com", "www.pastebin.com", true},
		{"invalid pattern matches nothing", "[", "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchGlob(tt.pattern, tt.value))
		})
	}
}

func TestCompileGlob(t *testing.T) {
	g, err := compileGlob("*.internal.corp")
	require.NoError(t, err)
	assert.True(t, g.Match("api.internal.corp"))

	// Cached second compile of the same pattern.
	_, err = compileGlob("*.internal.corp")
	require.NoError(t, err)

	_, err = compileGlob("[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid glob")
}
