// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package policy

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"
)

// Compiled globs are cached for the lifetime of the process. Policies are
// write-rare and read-hot, so the cache only ever grows by the handful of
// patterns operators actually use.
var globCache = struct {
	sync.RWMutex
	m map[string]glob.Glob
}{m: make(map[string]glob.Glob)}

// compileGlob compiles a shell-style wildcard pattern, consulting the cache
// first. Patterns have no separator characters: `*` crosses the whole value.
func compileGlob(pattern string) (glob.Glob, error) {
	globCache.RLock()
	g, ok := globCache.m[pattern]
	globCache.RUnlock()
	if ok {
		return g, nil
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}

	globCache.Lock()
	globCache.m[pattern] = g
	globCache.Unlock()
	return g, nil
}

// matchGlob reports whether value matches pattern. Patterns that fail to
// compile match nothing; Validate rejects them before a policy is installed.
func matchGlob(pattern, value string) bool {
	g, err := compileGlob(pattern)
	if err != nil {
		return false
	}
	return g.Match(value)
}
