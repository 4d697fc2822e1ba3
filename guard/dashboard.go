// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// DashboardHandler serves the read-only dashboard endpoints.
type DashboardHandler struct {
	container *Container
	logger    *log.Logger
}

// NewDashboardHandler creates a dashboard handler over the container.
func NewDashboardHandler(c *Container, logger *log.Logger) *DashboardHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &DashboardHandler{container: c, logger: logger}
}

// RegisterRoutes registers the dashboard routes with a gorilla/mux router.
func (h *DashboardHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/dashboard/stats", h.Stats).Methods("GET")
	r.HandleFunc("/api/v1/dashboard/policy", h.Policy).Methods("GET")
	r.HandleFunc("/api/v1/dashboard/patterns", h.Patterns).Methods("GET")
}

// Stats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.container.Audit.GetStats(r.Context())
	if err != nil {
		h.logger.Printf("[Dashboard] stats query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Policy handles GET /api/v1/dashboard/policy.
func (h *DashboardHandler) Policy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.container.Engine.Policy())
}

// Patterns handles GET /api/v1/dashboard/patterns.
func (h *DashboardHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BuildPatternCatalog(h.container))
}
