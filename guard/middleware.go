// Copyright 2025 ClawGuard
// SPDX-License-Identifier: BUSL-1.1

package guard

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDMiddleware tags every request with an ID, reusing an inbound
// X-Request-ID when the caller supplied one. The ID is echoed back in the
// response header and carried in the request context for log correlation.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom returns the request ID stored by RequestIDMiddleware, or "".
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// AdminAuth gates mutating endpoints behind an HMAC-signed bearer token with
// an admin role claim. With no secret configured the gate is open, matching
// single-operator deployments.
type AdminAuth struct {
	secret []byte
	logger *log.Logger
}

// NewAdminAuth returns an AdminAuth for secret. An empty secret disables
// enforcement.
func NewAdminAuth(secret string, logger *log.Logger) *AdminAuth {
	if logger == nil {
		logger = log.Default()
	}
	return &AdminAuth{secret: []byte(secret), logger: logger}
}

// Enabled reports whether a secret is configured.
func (a *AdminAuth) Enabled() bool {
	return len(a.secret) > 0
}

// Wrap enforces admin auth on next. Requests without a valid token get 401,
// valid tokens without the admin role get 403.
func (a *AdminAuth) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next(w, r)
			return
		}

		tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if tokenString == "" || tokenString == r.Header.Get("Authorization") {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			a.logger.Printf("[Auth] rejected admin token: %v", err)
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token claims")
			return
		}
		if role, _ := claims["role"].(string); role != "admin" {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin role required")
			return
		}

		next(w, r)
	}
}
