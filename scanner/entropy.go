// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package scanner

import "math"

// ShannonEntropy returns the Shannon entropy of data in bits per character.
// Random or secret material typically scores above 4.5.
func ShannonEntropy(data string) float64 {
	if data == "" {
		return 0.0
	}

	counts := make(map[rune]int)
	for _, r := range data {
		counts[r]++
	}

	length := float64(len([]rune(data)))
	entropy := 0.0
	for _, count := range counts {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// IsHighEntropy reports whether data is long enough and random enough to be
// treated as likely secret material.
func IsHighEntropy(data string, threshold float64, minLength int) bool {
	if len(data) < minLength {
		return false
	}
	return ShannonEntropy(data) > threshold
}
