package jwt

import (
	"context"
	"net/http"
	"strings"

	"nexchat/internal/pkg/logx"
)

// contextKey prevents key collisions with other packages storing values
// in the request context.
type contextKey string

// ContextAuthPayloadKey is the key under which the parsed Payload is
// stored in the request context.
const ContextAuthPayloadKey contextKey = "auth_payload"

// RequireAdmin validates the Bearer token on the request and rejects
// anything that is not a valid admin token. Unlike a soft identity
// extractor, the admin surface has no anonymous mode: a missing or
// invalid token ends the request with the unauthorized handler.
func RequireAdmin(secretKey string, reject http.HandlerFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				reject(w, r)
				return
			}

			payload, err := ParseToken(parts[1], secretKey)
			if err != nil {
				logx.Warn("Invalid or expired admin token", "error", err)
				reject(w, r)
				return
			}

			if payload.Role != RoleAdmin {
				reject(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext returns the Payload previously injected by
// RequireAdmin, or nil.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)
	if !ok {
		return nil
	}
	return payload
}
