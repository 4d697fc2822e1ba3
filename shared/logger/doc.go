// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

/*
Package logger provides structured JSON logging for ClawGuard components.

# Overview

The logger package provides structured logging that outputs JSON to stdout,
making logs easily consumable by CloudWatch, ELK stack, or other log
aggregation systems.

Each log entry includes:
  - Timestamp (RFC3339Nano format)
  - Log level (DEBUG, INFO, WARN, ERROR)
  - Component name (guard, scanner, etc.)
  - Instance ID and container name (for distributed tracing)
  - Agent ID (the AI agent whose content was scanned)
  - Request ID (for request correlation)
  - Custom fields

# Usage

Create a logger for your component:

	log := logger.New("guard")

Log messages with agent and request context:

	log.Info("agent-123", "req-456", "Scan completed", map[string]interface{}{
	    "action":   "REDACT",
	    "findings": 2,
	})

Log errors with status codes:

	log.ErrorWithCode("agent-123", "req-456", "Audit write failed", 500, err, map[string]interface{}{
	    "endpoint": "/api/v1/scan",
	})

Log with duration tracking:

	start := time.Now()
	// ... do work ...
	log.InfoWithDuration("agent-123", "req-456", "Scan completed",
	    float64(time.Since(start).Milliseconds()), nil)

# Output Format

Log entries are output as single-line JSON:

	{"timestamp":"2025-01-15T10:30:00.123456789Z","level":"INFO",
	 "component":"guard","instance_id":"i-abc123","container":"guard-xyz",
	 "agent_id":"agent-123","request_id":"req-456",
	 "message":"Scan completed","fields":{"action":"REDACT"}}

# Environment Variables

The logger reads these environment variables:

  - CLAWGUARD_LOG_LEVEL: Minimum level to emit (default INFO)
  - INSTANCE_ID: Deployment instance identifier
  - HOSTNAME: Container hostname (auto-detected)

# Thread Safety

Logger instances are safe for concurrent use from multiple goroutines.
*/
package logger
