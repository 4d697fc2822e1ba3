// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gorilla/mux"

	"clawguard/platform/policy"
	"clawguard/platform/scanner"
)

// Handler serves the scan, health, and policy endpoints.
type Handler struct {
	container    *Container
	orchestrator *Orchestrator
	auth         *AdminAuth
	ready        *atomic.Bool
	logger       *log.Logger
}

// NewHandler creates the core API handler. ready gates the health status
// while startup is still connecting backing stores.
func NewHandler(c *Container, auth *AdminAuth, ready *atomic.Bool, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		container:    c,
		orchestrator: NewOrchestrator(c),
		auth:         auth,
		ready:        ready,
		logger:       logger,
	}
}

// RegisterRoutes registers the scan, health, and policy routes with a
// gorilla/mux router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/scan", h.Scan).Methods("POST")
	r.HandleFunc("/api/v1/health", h.Health).Methods("GET")
	r.HandleFunc("/api/v1/policy", h.auth.Wrap(h.UpdatePolicy)).Methods("PUT")
	r.HandleFunc("/api/v1/policy/reload", h.auth.Wrap(h.ReloadPolicy)).Methods("POST")
}

// Scan handles POST /api/v1/scan.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Content == nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "content is required")
		return
	}

	resp, err := h.orchestrator.Scan(r.Context(), &req)
	if err != nil {
		h.logger.Printf("[Scan] request %s failed: %v", RequestIDFrom(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "AUDIT_FAILURE", "Failed to record audit event")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthResponse is the GET /api/v1/health payload.
type HealthResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	Scanners      []scanner.Type `json:"scanners"`
	PolicyLoaded  bool           `json:"policy_loaded"`
	DefaultAction policy.Action  `json:"default_action"`
}

// Health handles GET /api/v1/health. It responds while startup is still in
// progress so load balancer checks pass during slow initialization.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "starting"
	if h.ready == nil || h.ready.Load() {
		status = "healthy"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        status,
		Version:       Version,
		Scanners:      h.container.Registry.Types(),
		PolicyLoaded:  h.container.Engine.Revision() > 0,
		DefaultAction: h.container.Engine.Policy().DefaultAction,
	})
}

// UpdatePolicy handles PUT /api/v1/policy. The body is decoded over the
// default policy so omitted fields keep their defaults, then validated,
// persisted, and applied in one step.
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	cfg := policy.Default()
	if err := json.NewDecoder(r.Body).Decode(cfg); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid policy document")
		return
	}

	if err := h.container.UpdatePolicy(cfg); err != nil {
		if errors.Is(err, policy.ErrInvalidPolicy) {
			writeError(w, http.StatusUnprocessableEntity, "POLICY_VALIDATION", err.Error())
			return
		}
		h.logger.Printf("[Policy] update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "POLICY_IO_FAILURE", "Failed to persist policy")
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// ReloadPolicyResponse is the POST /api/v1/policy/reload payload.
type ReloadPolicyResponse struct {
	Status              string        `json:"status"`
	DefaultAction       policy.Action `json:"default_action"`
	CustomPatternsCount int           `json:"custom_patterns_count"`
}

// ReloadPolicy handles POST /api/v1/policy/reload. On any failure the
// previously applied policy stays in force.
func (h *Handler) ReloadPolicy(w http.ResponseWriter, r *http.Request) {
	if err := h.container.ReloadPolicy(); err != nil {
		if errors.Is(err, policy.ErrInvalidPolicy) {
			writeError(w, http.StatusUnprocessableEntity, "POLICY_VALIDATION", err.Error())
			return
		}
		h.logger.Printf("[Policy] reload failed: %v", err)
		writeError(w, http.StatusInternalServerError, "POLICY_IO_FAILURE", "Failed to reload policy")
		return
	}

	active := h.container.Engine.Policy()
	writeJSON(w, http.StatusOK, ReloadPolicyResponse{
		Status:              "reloaded",
		DefaultAction:       active.DefaultAction,
		CustomPatternsCount: len(active.CustomPatterns),
	})
}

// ErrorResponse is the JSON error envelope for every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   strings.ToLower(code),
		Code:    code,
		Message: message,
	})
}
