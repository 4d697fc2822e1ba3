// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package scanner

import "log"

// Registry holds one scanner per Type and runs them in registration order.
type Registry struct {
	order    []Type
	scanners map[Type]Scanner
	logger   *log.Logger
}

// NewRegistry returns an empty Registry. A nil logger falls back to
// log.Default().
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		scanners: make(map[Type]Scanner),
		logger:   logger,
	}
}

// Register installs scanner, replacing any previous scanner of the same
// Type while keeping its original position in the run order.
func (r *Registry) Register(s Scanner) {
	t := s.Type()
	if _, exists := r.scanners[t]; !exists {
		r.order = append(r.order, t)
	}
	r.scanners[t] = s
}

// Get returns the scanner registered for t, or nil.
func (r *Registry) Get(t Type) Scanner {
	return r.scanners[t]
}

// Types returns the registered scanner types in run order.
func (r *Registry) Types() []Type {
	out := make([]Type, len(r.order))
	copy(out, r.order)
	return out
}

// ScanAll runs every registered scanner over content and concatenates the
// findings. A non-nil only restricts the run to the listed types. A panic in
// one scanner is contained: its findings are lost but the remaining scanners
// still run.
func (r *Registry) ScanAll(content string, only []Type) []Finding {
	var selected map[Type]struct{}
	if only != nil {
		selected = make(map[Type]struct{}, len(only))
		for _, t := range only {
			selected[t] = struct{}{}
		}
	}

	var findings []Finding
	for _, t := range r.order {
		if selected != nil {
			if _, ok := selected[t]; !ok {
				continue
			}
		}
		findings = append(findings, r.scanOne(t, content)...)
	}
	return findings
}

func (r *Registry) scanOne(t Type, content string) (findings []Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("[Scanner] %s scanner panicked, skipping its findings: %v", t, rec)
			findings = nil
		}
	}()
	return r.scanners[t].Scan(content)
}

// NewDefaultRegistry returns a Registry pre-loaded with the built-in secret,
// PII, and custom scanners, in that order.
func NewDefaultRegistry(logger *log.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(NewSecretScanner())
	r.Register(NewPIIScanner())
	r.Register(NewCustomScanner())
	return r
}
