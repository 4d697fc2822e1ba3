// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

// Package main is the entry point for the ClawGuard service.
//
// ClawGuard is a data-loss-prevention gateway that:
// - Scans outbound content for secrets, PII, and custom patterns
// - Enforces policy decisions (allow, block, redact, prompt)
// - Records a content-free audit trail of every decision
//
// Usage:
//
//	./guard
//
// Environment Variables:
//
//	CLAWGUARD_HOST - bind address (default: 0.0.0.0)
//	CLAWGUARD_PORT - HTTP server port (default: 8642)
//	CLAWGUARD_DATABASE_URL - audit store URL: sqlite://, postgres://,
//	    mysql://, mongodb:// (default: sqlite://clawguard.db)
//	CLAWGUARD_POLICY_PATH - policy YAML path (default: config/default_policy.yaml)
//	CLAWGUARD_REDIS_URL - enables the scan decision cache
//	CLAWGUARD_CACHE_TTL - cache entry lifetime (default: 5m)
//	CLAWGUARD_AUTH_SECRET - enables admin JWT auth on policy mutation
//	CLAWGUARD_LOG_LEVEL - DEBUG, INFO, WARN, ERROR (default: INFO)
//
// Values for DATABASE_URL, REDIS_URL, and AUTH_SECRET may be AWS Secrets
// Manager references of the form aws-sm://<secret-id>#<json-key>.
package main

import (
	"clawguard/platform/guard"
)

func main() {
	guard.Run()
}
