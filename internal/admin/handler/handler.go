package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/admin"
	"hrcore/internal/audit"
	"hrcore/internal/authz"
	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
	"hrcore/pkg/platform/httputil"
	"hrcore/pkg/platform/middleware/auth"
	"hrcore/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the administrative operations behind the routes.
type Service interface {
	ListRulesForRole(ctx context.Context, caller requestcontext.Caller, role domain.Role) ([]authz.Grant, error)
	QueryAudit(ctx context.Context, caller requestcontext.Caller, limit int, scope domain.Scope) ([]audit.Entry, error)
	ClearAudit(ctx context.Context, caller requestcontext.Caller) error
}

// Handler serves /admin routes.
type Handler struct {
	logger       *slog.Logger
	admin        Service
	jwtValidator auth.JWTValidator
	limiter      func(http.Handler) http.Handler
}

// New creates a new admin Handler. limiter may be nil.
func New(
	admin Service,
	logger *slog.Logger,
	jwtValidator auth.JWTValidator,
	limiter func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:       logger,
		admin:        admin,
		jwtValidator: jwtValidator,
		limiter:      limiter,
	}
}

// Register mounts the admin routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(auth.RequireCaller(h.jwtValidator, h.logger))
		if h.limiter != nil {
			ar.Use(h.limiter)
		}
		ar.Get("/permissions", h.handleListPermissions)
		ar.Get("/audit", h.handleQueryAudit)
		ar.With(auth.RequireRole(domain.TopRole, h.logger)).Delete("/audit", h.handleClearAudit)
	})
}

// handleListPermissions lists the grants of ?role=, defaulting to the caller's.
func (h *Handler) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	role := caller.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, err := domain.ParseRole(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		role = parsed
	}

	grants, err := h.admin.ListRulesForRole(ctx, caller, role)
	if err != nil {
		h.logFailure(ctx, "list permissions", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, admin.NewGrantsResponse(role, grants))
}

// handleQueryAudit returns audit entries for ?limit= and ?scope=organization|all.
func (h *Handler) handleQueryAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	scope, err := domain.ParseScope(q.Get("scope"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.admin.QueryAudit(ctx, caller, limit, scope)
	if err != nil {
		h.logFailure(ctx, "query audit", caller, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, admin.NewAuditResponse(scope, entries))
}

func (h *Handler) handleClearAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.admin.ClearAudit(ctx, caller); err != nil {
		h.logFailure(ctx, "clear audit", caller, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (requestcontext.Caller, bool) {
	caller, ok := requestcontext.CallerFrom(r.Context())
	if !ok {
		// RequireCaller guarantees a caller; reaching here is a wiring bug.
		h.logger.ErrorContext(r.Context(), "caller missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return requestcontext.Caller{}, false
	}
	return caller, true
}

func (h *Handler) logFailure(ctx context.Context, op string, caller requestcontext.Caller, err error) {
	code := dErrors.CodeOf(err)
	if httputil.StatusFor(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "admin request failed",
			"operation", op,
			"user_id", caller.UserID,
			"request_id", caller.RequestID,
			"error", err,
		)
		return
	}
	h.logger.WarnContext(ctx, "admin request refused",
		"operation", op,
		"code", code,
		"user_id", caller.UserID,
		"request_id", caller.RequestID,
	)
}
