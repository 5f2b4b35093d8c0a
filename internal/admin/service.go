// Package admin backs the administrative surface: listing the permission rules a
// role can exercise, querying the audit trail, and resetting it.
package admin

import (
	"context"
	"errors"
	"log/slog"

	"hrcore/internal/audit"
	"hrcore/internal/authz"
	"hrcore/internal/platform/metrics"
	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
	"hrcore/pkg/requestcontext"
)

// Service authorizes administrative reads through the same engine the domain
// services use.
type Service struct {
	engine  *authz.Engine
	trail   *audit.Trail
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(engine *authz.Engine, trail *audit.Trail, opts ...Option) (*Service, error) {
	if engine == nil {
		return nil, errors.New("authorization engine is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	s := &Service{engine: engine, trail: trail}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s, nil
}

// ListRulesForRole returns the grants of role. Any caller may list their own
// role; listing another role needs permissions.read.
func (s *Service) ListRulesForRole(ctx context.Context, caller requestcontext.Caller, role domain.Role) ([]authz.Grant, error) {
	if !caller.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated caller required")
	}
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", role)
	}
	if role != caller.Role {
		if err := s.authorize(ctx, caller, authz.ResourcePermissions, authz.ActionRead); err != nil {
			return nil, err
		}
	}
	return s.engine.Registry().RulesForRole(role), nil
}

// QueryAudit returns up to limit of the newest entries, oldest first. ScopeAll
// crosses organizations and is reserved for the top role.
func (s *Service) QueryAudit(ctx context.Context, caller requestcontext.Caller, limit int, scope domain.Scope) ([]audit.Entry, error) {
	if !caller.IsAuthenticated() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated caller required")
	}
	if err := s.authorize(ctx, caller, authz.ResourceAuditLogs, authz.ActionRead,
		authz.WithScope(scope),
		authz.WithTargetOrganization(caller.OrganizationID),
	); err != nil {
		return nil, err
	}
	return s.trail.GetAll(ctx, caller, limit, scope)
}

// ClearAudit empties the trail. Reserved for the top role.
func (s *Service) ClearAudit(ctx context.Context, caller requestcontext.Caller) error {
	if !caller.IsAuthenticated() {
		return dErrors.New(dErrors.CodeUnauthorized, "authenticated caller required")
	}
	if err := s.authorize(ctx, caller, authz.ResourceAuditLogs, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.trail.Clear(ctx); err != nil {
		return err
	}
	s.logger.WarnContext(ctx, "audit trail cleared by administrator",
		"user_id", caller.UserID,
		"organization_id", caller.OrganizationID,
		"request_id", caller.RequestID,
	)
	return nil
}

func (s *Service) authorize(ctx context.Context, caller requestcontext.Caller, resource string, action authz.Action, opts ...authz.EvalOption) error {
	d := s.engine.Evaluate(caller, resource, action, opts...)
	if d.Allowed {
		return nil
	}
	if s.metrics != nil {
		s.metrics.IncDenied(resource, string(action), string(d.Reason))
	}
	s.logger.WarnContext(ctx, "admin access denied",
		"user_id", caller.UserID,
		"resource", resource,
		"action", action,
		"reason", d.Reason,
		"request_id", caller.RequestID,
	)
	return authz.DenialError(d, resource, action)
}
