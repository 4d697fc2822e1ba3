// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"context"
	"fmt"
	"log"

	"clawguard/platform/audit"
	"clawguard/platform/policy"
	"clawguard/platform/redact"
	"clawguard/platform/scanner"
)

// Container owns the wired scanning pipeline: scanners, policy engine,
// redactor, audit repository, and the optional decision cache. It is built
// once at startup and shared by every handler.
type Container struct {
	Settings Settings
	Logger   *log.Logger

	Registry *scanner.Registry
	Engine   *policy.Engine
	Redactor *redact.Redactor
	Actions  *redact.ActionHandler
	Audit    audit.Repository
	Cache    *ScanCache
}

// NewContainer builds the pipeline from settings. The policy file is seeded
// with defaults on first start, then loaded and applied. The audit store and
// cache are connected last so a failed connect never leaves a half-applied
// policy behind.
func NewContainer(ctx context.Context, settings Settings, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	c := &Container{
		Settings: settings,
		Logger:   logger,
		Registry: scanner.NewDefaultRegistry(logger),
		Engine:   policy.NewEngine(logger),
	}
	c.Redactor = redact.NewRedactor(policy.Default().Redaction)
	c.Actions = redact.NewActionHandler(c.Redactor)

	created, err := policy.EnsureFile(settings.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to seed policy file: %w", err)
	}
	if created {
		logger.Printf("[Container] seeded default policy at %s", settings.PolicyPath)
	}

	cfg, err := policy.LoadFromFile(settings.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if err := c.ApplyPolicy(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply policy: %w", err)
	}

	if settings.DatabaseURL == "" {
		logger.Printf("[Container] no database configured, audit trail disabled")
		c.Audit = &audit.NoOpRepository{}
	} else {
		repo, err := audit.Open(ctx, settings.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		c.Audit = repo
	}

	if settings.RedisURL != "" {
		cache, err := NewScanCache(settings.RedisURL, settings.CacheTTL, logger)
		if err != nil {
			c.Audit.Close()
			return nil, fmt.Errorf("failed to connect scan cache: %w", err)
		}
		c.Cache = cache
		logger.Printf("[Container] scan cache enabled (ttl=%s)", settings.CacheTTL)
	}

	return c, nil
}

// ApplyPolicy projects cfg into every component that consumes part of it,
// then installs it on the engine. The engine swap comes last: once the
// revision bumps, the projections are already in place for new scans.
func (c *Container) ApplyPolicy(cfg *policy.Config) error {
	custom, ok := c.Registry.Get(scanner.TypeCustom).(*scanner.CustomScanner)
	if ok {
		if err := custom.LoadPatterns(cfg.CustomPatterns); err != nil {
			return fmt.Errorf("failed to load custom patterns: %w", err)
		}
	}

	if secrets, ok := c.Registry.Get(scanner.TypeSecret).(*scanner.SecretScanner); ok {
		secrets.SetDisabledPatterns(cfg.DisabledPatterns)
	}
	if pii, ok := c.Registry.Get(scanner.TypePII).(*scanner.PIIScanner); ok {
		pii.SetDisabledPatterns(cfg.DisabledPatterns)
		pii.SetSeverityOverrides(cfg.PatternSeverityOverrides)
	}

	c.Redactor.SetConfig(cfg.Redaction)
	c.Engine.SetPolicy(cfg)
	return nil
}

// ReloadPolicy re-reads the policy file and applies it. On any failure the
// previously applied policy stays active.
func (c *Container) ReloadPolicy() error {
	cfg, err := policy.LoadFromFile(c.Settings.PolicyPath)
	if err != nil {
		return err
	}
	return c.ApplyPolicy(cfg)
}

// UpdatePolicy validates cfg, persists it to the policy file, and applies
// it. Validation failures leave both the file and the active policy
// untouched.
func (c *Container) UpdatePolicy(cfg *policy.Config) error {
	if err := policy.Validate(cfg); err != nil {
		return err
	}
	if err := policy.SaveToFile(c.Settings.PolicyPath, cfg); err != nil {
		return err
	}
	return c.ApplyPolicy(cfg)
}

// Close releases the audit store and cache connections.
func (c *Container) Close() error {
	var firstErr error
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Audit != nil {
		if err := c.Audit.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
