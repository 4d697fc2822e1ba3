// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package scanner

import (
	"regexp"
	"strconv"
	"strings"
)

// PIIPattern is one compiled PII-detection rule. Validator, when set, runs
// on each raw match; matches it rejects are dropped silently.
type PIIPattern struct {
	Name      string
	Regexp    *regexp.Regexp
	Severity  Severity
	Validator func(raw string) bool
	Boundary  BoundaryCheck
}

// validateSSN rejects SSNs with impossible area, group, or serial numbers:
// area 000, 666, or 900-999, group 00, serial 0000.
func validateSSN(raw string) bool {
	digits := strings.ReplaceAll(raw, "-", "")
	if len(digits) != 9 {
		return false
	}
	area, err := strconv.Atoi(digits[:3])
	if err != nil {
		return false
	}
	group, err := strconv.Atoi(digits[3:5])
	if err != nil {
		return false
	}
	serial, err := strconv.Atoi(digits[5:])
	if err != nil {
		return false
	}
	if area == 0 || area == 666 || area >= 900 {
		return false
	}
	if group == 0 || serial == 0 {
		return false
	}
	return true
}

// luhnCheck runs the Luhn checksum over the digits of number.
func luhnCheck(number string) bool {
	var digits []int
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 {
		return false
	}
	checksum := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		checksum += d
	}
	return checksum%10 == 0
}

// validateCreditCard strips separators and runs the Luhn check.
func validateCreditCard(raw string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(raw)
	return luhnCheck(cleaned)
}

var piiPatterns = []PIIPattern{
	{
		Name:      "ssn",
		Regexp:    regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		Severity:  SeverityCritical,
		Validator: validateSSN,
	},
	{
		Name:      "credit_card_visa",
		Regexp:    regexp.MustCompile(`\b4\d{3}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}\b`),
		Severity:  SeverityCritical,
		Validator: validateCreditCard,
	},
	{
		Name:      "credit_card_mastercard",
		Regexp:    regexp.MustCompile(`\b5[1-5]\d{2}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}\b`),
		Severity:  SeverityCritical,
		Validator: validateCreditCard,
	},
	{
		Name:      "credit_card_amex",
		Regexp:    regexp.MustCompile(`\b3[47]\d{2}[\s\-]?\d{6}[\s\-]?\d{5}\b`),
		Severity:  SeverityCritical,
		Validator: validateCreditCard,
	},
	{
		Name:      "credit_card_discover",
		Regexp:    regexp.MustCompile(`\b6(?:011|5\d{2})[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}\b`),
		Severity:  SeverityCritical,
		Validator: validateCreditCard,
	},
	{
		Name:     "email",
		Regexp:   regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
		Severity: SeverityMedium,
	},
	{
		Name:     "phone_us",
		Regexp:   regexp.MustCompile(`(?:\+?1[\s\-.]?)?(?:\(?\d{3}\)?[\s\-.]?)\d{3}[\s\-.]?\d{4}`),
		Severity: SeverityMedium,
		Boundary: notAdjacentTo(classDigits),
	},
	{
		Name:     "phone_e164",
		Regexp:   regexp.MustCompile(`\+[1-9]\d{6,14}\b`),
		Severity: SeverityMedium,
	},
	{
		Name:     "ipv4_address",
		Regexp:   regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\.){3}(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\b`),
		Severity: SeverityLow,
	},
	{
		Name:     "ipv6_address",
		Regexp:   regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b|\b(?:[0-9a-fA-F]{1,4}:){1,7}:\b|\b::(?:[0-9a-fA-F]{1,4}:){0,5}[0-9a-fA-F]{1,4}\b`),
		Severity: SeverityLow,
	},
}

// PIIPatterns returns the built-in PII pattern corpus. The returned slice is
// shared; callers must not modify it.
func PIIPatterns() []PIIPattern {
	return piiPatterns
}
