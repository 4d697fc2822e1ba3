// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"clawguard/platform/audit"
	"clawguard/platform/policy"
	"clawguard/platform/scanner"
	"clawguard/platform/shared/logger"
)

// ScanRequest is the POST /scan payload. Content is required; destination,
// agent_id, and tool_name are optional routing context. tool_name is
// recorded in logs only, rules never consume it.
type ScanRequest struct {
	Content     *string `json:"content"`
	Destination string  `json:"destination,omitempty"`
	AgentID     string  `json:"agent_id,omitempty"`
	ToolName    string  `json:"tool_name,omitempty"`
}

// FindingResponse is one finding as returned to the caller. The raw matched
// text never appears; RedactedSnippet carries the redacted form.
type FindingResponse struct {
	ScannerType     scanner.Type     `json:"scanner_type"`
	FindingType     string           `json:"finding_type"`
	Severity        scanner.Severity `json:"severity"`
	Start           int              `json:"start"`
	End             int              `json:"end"`
	RedactedSnippet string           `json:"redacted_snippet"`
}

// ScanResponse is the POST /scan result. Content is null when the action
// withholds the payload (BLOCK, PROMPT).
type ScanResponse struct {
	Action          policy.Action     `json:"action"`
	SuggestedAction policy.Action     `json:"suggested_action,omitempty"`
	Content         *string           `json:"content"`
	Findings        []FindingResponse `json:"findings"`
	FindingsCount   int               `json:"findings_count"`
	ScanID          int64             `json:"scan_id"`
	DurationMs      float64           `json:"duration_ms"`
}

// Orchestrator runs the scan pipeline for one request: scanner selection,
// scanning (or a cache hit), policy decision, action handling, and the
// audit write. The audit write completes before the response is returned.
type Orchestrator struct {
	c       *Container
	scanLog *logger.Logger
}

// NewOrchestrator returns an Orchestrator over the container's pipeline.
func NewOrchestrator(c *Container) *Orchestrator {
	return &Orchestrator{
		c:       c,
		scanLog: logger.NewWithLevel("scan", logger.ParseLevel(c.Settings.LogLevel)),
	}
}

// Scan executes the full pipeline for content. The returned error means the
// decision was made but could not be audited; the response is withheld in
// that case because the scan id cannot be produced.
func (o *Orchestrator) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	start := time.Now()
	content := *req.Content

	subset := o.c.Engine.ScannersForDestination(req.Destination)

	var (
		decision policy.Decision
		findings []scanner.Finding
		cacheKey string
		cached   bool
	)
	if o.c.Cache != nil {
		cacheKey = o.c.Cache.Key(o.c.Engine.Revision(), content, req.Destination, req.AgentID)
		decision, findings, cached = o.c.Cache.Get(ctx, cacheKey, content)
		if cached {
			cacheHitsTotal.Inc()
		} else {
			cacheMissesTotal.Inc()
		}
	}
	if !cached {
		findings = o.c.Registry.ScanAll(content, subset)
		decision = o.c.Engine.Decide(findings, req.Destination, req.AgentID)
		if o.c.Cache != nil {
			o.c.Cache.Set(ctx, cacheKey, decision, findings)
		}
	}

	result := o.c.Actions.Handle(decision.Action, content, findings)

	responseFindings := make([]FindingResponse, 0, len(findings))
	auditFindings := make([]audit.Finding, 0, len(findings))
	for i := range findings {
		f := &findings[i]
		snippet := o.c.Redactor.RedactValue(f.MatchedText)
		responseFindings = append(responseFindings, FindingResponse{
			ScannerType:     f.ScannerType,
			FindingType:     f.FindingType,
			Severity:        f.Severity,
			Start:           f.Start,
			End:             f.End,
			RedactedSnippet: snippet,
		})
		auditFindings = append(auditFindings, audit.Finding{
			ScannerType:     string(f.ScannerType),
			FindingType:     f.FindingType,
			Severity:        string(f.Severity),
			StartOffset:     f.Start,
			EndOffset:       f.End,
			RedactedSnippet: snippet,
		})
		findingsTotal.WithLabelValues(string(f.ScannerType)).Inc()
	}

	elapsed := time.Since(start)
	durationMs := math.Round(elapsed.Seconds()*1000*100) / 100

	record := &audit.ScanRecord{
		AgentID:       req.AgentID,
		Destination:   req.Destination,
		ContentHash:   contentHash(content),
		Action:        string(decision.Action),
		FindingsCount: len(findings),
		DurationMs:    durationMs,
		Findings:      auditFindings,
	}
	scanID, err := o.c.Audit.LogScan(ctx, record)
	if err != nil {
		auditFailuresTotal.Inc()
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	scansTotal.WithLabelValues(string(decision.Action)).Inc()
	scanDuration.Observe(elapsed.Seconds())

	fields := map[string]interface{}{
		"scan_id":  scanID,
		"action":   string(decision.Action),
		"findings": len(findings),
		"cached":   cached,
	}
	if req.Destination != "" {
		fields["destination"] = req.Destination
	}
	if req.ToolName != "" {
		fields["tool_name"] = req.ToolName
	}
	o.scanLog.InfoWithDuration(req.AgentID, RequestIDFrom(ctx), "scan completed", durationMs, fields)

	return &ScanResponse{
		Action:          decision.Action,
		SuggestedAction: decision.SuggestedAction,
		Content:         result.Content,
		Findings:        responseFindings,
		FindingsCount:   result.FindingsCount,
		ScanID:          scanID,
		DurationMs:      durationMs,
	}, nil
}

// contentHash is the SHA-256 hex digest stored in place of scanned content.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
