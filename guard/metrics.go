// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clawguard_scans_total",
			Help: "Total number of scan requests by decision",
		},
		[]string{"action"},
	)

	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clawguard_scan_duration_seconds",
			Help:    "Scan request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	findingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clawguard_findings_total",
			Help: "Total number of findings by scanner type",
		},
		[]string{"scanner_type"},
	)

	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clawguard_cache_hits_total",
			Help: "Scan decisions served from the cache",
		},
	)

	cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clawguard_cache_misses_total",
			Help: "Scan requests that missed the cache",
		},
	)

	auditFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clawguard_audit_failures_total",
			Help: "Scan requests whose audit write failed",
		},
	)
)

func init() {
	prometheus.MustRegister(scansTotal)
	prometheus.MustRegister(scanDuration)
	prometheus.MustRegister(findingsTotal)
	prometheus.MustRegister(cacheHitsTotal)
	prometheus.MustRegister(cacheMissesTotal)
	prometheus.MustRegister(auditFailuresTotal)
}
