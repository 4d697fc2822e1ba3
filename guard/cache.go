// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"clawguard/platform/policy"
	"clawguard/platform/scanner"
)

// cachedFinding is the content-free projection of a scanner.Finding stored
// in Redis. Offsets are enough to rebuild MatchedText on a hit, because the
// cache key commits to the exact content bytes.
type cachedFinding struct {
	ScannerType scanner.Type     `json:"scanner_type"`
	FindingType string           `json:"finding_type"`
	Severity    scanner.Severity `json:"severity"`
	Start       int              `json:"start"`
	End         int              `json:"end"`
}

// cachedDecision is the Redis payload for one scan outcome. It never holds
// raw or redacted content, only the verdict and finding coordinates.
type cachedDecision struct {
	Action          policy.Action   `json:"action"`
	SuggestedAction policy.Action   `json:"suggested_action,omitempty"`
	Findings        []cachedFinding `json:"findings"`
}

// ScanCache memoizes scan decisions in Redis, keyed on the policy revision
// and a digest of the request. Redis failures degrade to cache misses so a
// broken cache never blocks scanning.
type ScanCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewScanCache connects to redisURL and verifies the connection.
func NewScanCache(redisURL string, ttl time.Duration, logger *log.Logger) (*ScanCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger == nil {
		logger = log.Default()
	}
	return &ScanCache{client: client, ttl: ttl, logger: logger}, nil
}

// Key builds the cache key for one request. The digest covers content,
// destination, and agent id with NUL separators so field boundaries cannot
// collide, and the policy revision prefix retires every entry when the
// policy changes.
func (c *ScanCache) Key(revision int64, content, destination, agentID string) string {
	h := sha256.New()
	h.Write([]byte(content))
	h.Write([]byte{0})
	h.Write([]byte(destination))
	h.Write([]byte{0})
	h.Write([]byte(agentID))
	return fmt.Sprintf("scan:%d:%s", revision, hex.EncodeToString(h.Sum(nil)))
}

// Get returns the cached decision for key and rebuilds the findings by
// re-slicing content at the stored offsets. A miss or any Redis error
// returns ok=false.
func (c *ScanCache) Get(ctx context.Context, key, content string) (policy.Decision, []scanner.Finding, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return policy.Decision{}, nil, false
	}
	if err != nil {
		c.logger.Printf("[Cache] get failed, treating as miss: %v", err)
		return policy.Decision{}, nil, false
	}

	var entry cachedDecision
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Printf("[Cache] corrupt entry, treating as miss: %v", err)
		return policy.Decision{}, nil, false
	}

	findings := make([]scanner.Finding, 0, len(entry.Findings))
	for _, f := range entry.Findings {
		if f.Start < 0 || f.End > len(content) || f.Start > f.End {
			c.logger.Printf("[Cache] entry offsets out of range, treating as miss")
			return policy.Decision{}, nil, false
		}
		findings = append(findings, scanner.Finding{
			ScannerType: f.ScannerType,
			FindingType: f.FindingType,
			Severity:    f.Severity,
			MatchedText: content[f.Start:f.End],
			Start:       f.Start,
			End:         f.End,
		})
	}

	return policy.Decision{Action: entry.Action, SuggestedAction: entry.SuggestedAction}, findings, true
}

// Set stores decision and findings under key. Only offsets and finding
// metadata are written; matched text stays out of Redis. Write failures are
// logged and dropped.
func (c *ScanCache) Set(ctx context.Context, key string, decision policy.Decision, findings []scanner.Finding) {
	entry := cachedDecision{
		Action:          decision.Action,
		SuggestedAction: decision.SuggestedAction,
		Findings:        make([]cachedFinding, 0, len(findings)),
	}
	for i := range findings {
		f := &findings[i]
		entry.Findings = append(entry.Findings, cachedFinding{
			ScannerType: f.ScannerType,
			FindingType: f.FindingType,
			Severity:    f.Severity,
			Start:       f.Start,
			End:         f.End,
		})
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Printf("[Cache] marshal failed, skipping store: %v", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Printf("[Cache] set failed, skipping store: %v", err)
	}
}

// Ping checks the Redis connection.
func (c *ScanCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (c *ScanCache) Close() error {
	return c.client.Close()
}
