// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Version is reported by the health endpoint and startup logs.
const Version = "0.2.0"

// Settings is the process configuration, read from CLAWGUARD_* environment
// variables at startup.
type Settings struct {
	Host  string
	Port  int
	Debug bool

	// DatabaseURL selects the audit store backend by scheme: sqlite://,
	// postgres://, mysql://, mongodb://. Empty disables audit persistence.
	DatabaseURL string

	// RedisURL enables the scan decision cache when set.
	RedisURL string

	// CacheTTL bounds the lifetime of cached scan decisions.
	CacheTTL time.Duration

	// PolicyPath is the YAML policy document location. Seeded with the
	// default policy on first start.
	PolicyPath string

	LogLevel string

	// AuthSecret, when set, gates the mutating policy endpoints behind
	// admin JWTs signed with it.
	AuthSecret string
}

// Defaults for Settings fields.
const (
	DefaultHost       = "0.0.0.0"
	DefaultPort       = 8642
	DefaultDatabase   = "sqlite://clawguard.db"
	DefaultPolicyPath = "config/default_policy.yaml"
	DefaultCacheTTL   = 5 * time.Minute
)

// LoadSettings reads the CLAWGUARD_* environment and resolves any aws-sm://
// secret references through resolver. A nil resolver leaves references
// unresolved, which the affected component will reject at connect time.
func LoadSettings(ctx context.Context, resolver SecretsManager) (Settings, error) {
	s := Settings{
		Host:        getEnv("CLAWGUARD_HOST", DefaultHost),
		Port:        DefaultPort,
		Debug:       getEnv("CLAWGUARD_DEBUG", "false") == "true",
		DatabaseURL: getEnv("CLAWGUARD_DATABASE_URL", DefaultDatabase),
		RedisURL:    getEnv("CLAWGUARD_REDIS_URL", ""),
		CacheTTL:    DefaultCacheTTL,
		PolicyPath:  getEnv("CLAWGUARD_POLICY_PATH", DefaultPolicyPath),
		LogLevel:    getEnv("CLAWGUARD_LOG_LEVEL", "INFO"),
		AuthSecret:  getEnv("CLAWGUARD_AUTH_SECRET", ""),
	}

	if raw := os.Getenv("CLAWGUARD_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return Settings{}, fmt.Errorf("invalid CLAWGUARD_PORT %q", raw)
		}
		s.Port = port
	}

	if raw := os.Getenv("CLAWGUARD_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return Settings{}, fmt.Errorf("invalid CLAWGUARD_CACHE_TTL %q", raw)
		}
		s.CacheTTL = ttl
	}

	// Debug implies verbose logging unless a level was set explicitly.
	if s.Debug && os.Getenv("CLAWGUARD_LOG_LEVEL") == "" {
		s.LogLevel = "DEBUG"
	}

	for name, field := range map[string]*string{
		"CLAWGUARD_DATABASE_URL": &s.DatabaseURL,
		"CLAWGUARD_REDIS_URL":    &s.RedisURL,
		"CLAWGUARD_AUTH_SECRET":  &s.AuthSecret,
	} {
		resolved, err := ResolveSecretRef(ctx, resolver, *field)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to resolve %s: %w", name, err)
		}
		*field = resolved
	}

	return s, nil
}

// Addr returns the host:port the HTTP server binds to.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
