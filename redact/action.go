// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package redact

import (
	"clawguard/platform/policy"
	"clawguard/platform/scanner"
)

// Result is the outcome of applying a policy action to scanned content.
// Content is nil whenever the action withholds the payload.
type Result struct {
	Action        policy.Action
	Content       *string
	FindingsCount int
}

// ActionHandler turns a policy verdict into the content the caller may
// forward.
type ActionHandler struct {
	redactor *Redactor
}

// NewActionHandler returns an ActionHandler backed by redactor.
func NewActionHandler(redactor *Redactor) *ActionHandler {
	return &ActionHandler{redactor: redactor}
}

// Handle applies action to content. ALLOW passes the content through,
// REDACT rewrites the finding spans, and everything else (BLOCK, PROMPT)
// withholds the content.
func (h *ActionHandler) Handle(action policy.Action, content string, findings []scanner.Finding) Result {
	switch action {
	case policy.ActionAllow:
		return Result{Action: action, Content: &content, FindingsCount: len(findings)}
	case policy.ActionRedact:
		redacted := h.redactor.Redact(content, findings)
		return Result{Action: action, Content: &redacted, FindingsCount: len(findings)}
	default:
		return Result{Action: action, FindingsCount: len(findings)}
	}
}
