// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShannonEntropy(t *testing.T) {
	tests := []struct {
		name string
		data string
		want float64
	}{
		{
			name: "empty string",
			data: "",
			want: 0.0,
		},
		{
			name: "single repeated character",
			data: "aaaaaaaa",
			want: 0.0,
		},
		{
			name: "two symbols",
			data: "abab",
			want: 1.0,
		},
		{
			name: "four symbols",
			data: "abcd",
			want: 2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ShannonEntropy(tt.data), 1e-9)
		})
	}
}

func TestIsHighEntropy(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{
			name: "too short",
			data: "abcdefghij",
			want: false,
		},
		{
			name: "long but uniform",
			data: "aaaaaaaaaaaaaaaaaaaaaaaa",
			want: false,
		},
		{
			name: "24 distinct characters",
			data: "abcdefghijklmnopqrstuvwx",
			want: true,
		},
		{
			name: "22 distinct characters sits under threshold",
			data: "abcdefghijklmnopqrstuv",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHighEntropy(tt.data, EntropyThreshold, EntropyMinLength))
		})
	}
}
