// Package auth turns a bearer token into the requestcontext.Caller that every
// guarded service call needs.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"hrcore/pkg/domain"
	"hrcore/pkg/platform/middleware/metadata"
	"hrcore/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID         string
	OrganizationID string
	Role           string
	JTI            string
}

// Caller builds the request caller from validated claims and the request
// metadata already in ctx.
func (c *JWTClaims) Caller(r *http.Request) (requestcontext.Caller, error) {
	userID, err := domain.ParseUserID(c.UserID)
	if err != nil {
		return requestcontext.Caller{}, err
	}
	orgID, err := domain.ParseOrganizationID(c.OrganizationID)
	if err != nil {
		return requestcontext.Caller{}, err
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return requestcontext.Caller{}, err
	}
	ctx := r.Context()
	return requestcontext.Caller{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		RequestID:      requestcontext.RequestID(ctx),
		IPAddress:      metadata.GetClientIP(ctx),
		UserAgent:      metadata.GetUserAgent(ctx),
	}, nil
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireCaller rejects requests without a valid bearer token and stores the
// caller in the request context.
func RequireCaller(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			caller, err := claims.Caller(r)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed identity claims",
					"error", err,
					"jti", claims.JTI,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid token claims")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, caller)))
		})
	}
}

// RequireRole rejects callers ranked below min. Mount after RequireCaller.
func RequireRole(min domain.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			caller, ok := requestcontext.CallerFrom(ctx)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if !caller.Role.AtLeast(min) {
				logger.WarnContext(ctx, "role below route minimum",
					"user_id", caller.UserID,
					"role", caller.Role,
					"required", min,
					"request_id", caller.RequestID,
				)
				writeJSONError(w, http.StatusForbidden, "insufficient_permission", "Role not permitted for this route")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
