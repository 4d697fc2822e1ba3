// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package policy

import (
	"log"
	"sync"
	"sync/atomic"

	"clawguard/platform/scanner"
)

// Decision is the engine's verdict for one scan. SuggestedAction is set
// only when Action is PROMPT and names the action the policy would have
// taken without the prompt threshold.
type Decision struct {
	Action          Action `json:"action"`
	SuggestedAction Action `json:"suggested_action,omitempty"`
}

// Engine evaluates findings against the active policy. The policy value is
// swapped whole under a write lock; readers take a snapshot pointer, so an
// in-flight evaluation never observes a half-applied policy.
type Engine struct {
	mu       sync.RWMutex
	policy   *Config
	revision atomic.Int64
	logger   *log.Logger
}

// NewEngine returns an Engine holding the default policy. A nil logger
// falls back to log.Default().
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		policy: Default(),
		logger: logger,
	}
}

// Policy returns the active policy snapshot. Callers must treat it as
// read-only.
func (e *Engine) Policy() *Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

// SetPolicy installs cfg as the active policy and bumps the revision.
func (e *Engine) SetPolicy(cfg *Config) {
	e.mu.Lock()
	e.policy = cfg
	e.mu.Unlock()
	rev := e.revision.Add(1)
	e.logger.Printf("[Policy] installed revision %d (default_action=%s)", rev, cfg.DefaultAction)
}

// Revision returns a counter that increments on every policy install. Cache
// layers key on it so stale entries die with the old policy.
func (e *Engine) Revision() int64 {
	return e.revision.Load()
}

// Evaluate walks the policy ladder and returns the action for findings.
//
// Priority:
//  1. Severity overrides
//  2. Destination allowlist, then blocklist
//  3. Destination rules
//  4. Agent rules
//  5. Global default
//
// An empty findings list always allows. An empty destination or agent id
// skips the rungs that need one.
func (e *Engine) Evaluate(findings []scanner.Finding, destination, agentID string) Action {
	if len(findings) == 0 {
		return ActionAllow
	}

	p := e.Policy()

	for _, override := range p.SeverityOverrides {
		for i := range findings {
			if findings[i].Severity == override.Severity {
				return override.Action
			}
		}
	}

	if destination != "" {
		for _, pattern := range p.DestinationAllowlist {
			if matchGlob(pattern, destination) {
				return ActionAllow
			}
		}
		for _, pattern := range p.DestinationBlocklist {
			if matchGlob(pattern, destination) {
				return ActionBlock
			}
		}
		for _, rule := range p.DestinationRules {
			if matchGlob(rule.Pattern, destination) {
				return rule.Action
			}
		}
	}

	if agentID != "" {
		for _, rule := range p.AgentRules {
			if rule.AgentID != agentID {
				continue
			}
			if destination != "" && len(rule.AllowedDestinations) > 0 {
				for _, pattern := range rule.AllowedDestinations {
					if matchGlob(pattern, destination) {
						if rule.Action != "" {
							return rule.Action
						}
						return ActionAllow
					}
				}
			}
			if destination != "" && len(rule.BlockedDestinations) > 0 {
				for _, pattern := range rule.BlockedDestinations {
					if matchGlob(pattern, destination) {
						return ActionBlock
					}
				}
			}
			if rule.Action != "" {
				return rule.Action
			}
		}
	}

	return p.DefaultAction
}

// Decide evaluates findings and upgrades the result to PROMPT when the
// policy sets prompt_threshold and the maximum finding severity reaches it.
// ALLOW results are never upgraded.
func (e *Engine) Decide(findings []scanner.Finding, destination, agentID string) Decision {
	base := e.Evaluate(findings, destination, agentID)
	if len(findings) == 0 || base == ActionAllow {
		return Decision{Action: base}
	}

	threshold := e.Policy().PromptThreshold
	if threshold == nil {
		return Decision{Action: base}
	}

	maxRank := -1
	for i := range findings {
		if r := findings[i].Severity.Rank(); r > maxRank {
			maxRank = r
		}
	}
	if maxRank >= threshold.Rank() {
		return Decision{Action: ActionPrompt, SuggestedAction: base}
	}
	return Decision{Action: base}
}

// ScannersForDestination returns the scanner subset configured for
// destination, or nil to run every scanner. The first destination rule
// whose glob matches and whose scanner list is non-empty wins.
func (e *Engine) ScannersForDestination(destination string) []scanner.Type {
	if destination == "" {
		return nil
	}
	p := e.Policy()
	for _, rule := range p.DestinationRules {
		if len(rule.Scanners) > 0 && matchGlob(rule.Pattern, destination) {
			out := make([]scanner.Type, len(rule.Scanners))
			copy(out, rule.Scanners)
			return out
		}
	}
	return nil
}
