// Package authz decides whether a caller may perform an action on a resource.
//
// Evaluation order for a registered rule:
//  1. self-access: the caller owns the resource and the rule allows it → allow
//  2. rank: caller's role must rank at least the rule's minimum role
//  3. organization boundary: target organization must be the caller's own,
//     unless the caller holds the top role and asked for ScopeAll
//
// A missing rule is always a denial. Evaluate performs no I/O and never blocks.
package authz

import (
	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
	"hrcore/pkg/requestcontext"
)

// Reason explains a decision.
type Reason string

const (
	ReasonSelfAccess Reason = "self_access"
	ReasonRoleRank   Reason = "role_rank"

	ReasonUnknownPermission      Reason = "unknown_permission"
	ReasonInsufficientPermission Reason = "insufficient_permission"
	ReasonOrgBoundaryViolation   Reason = "org_boundary_violation"
)

// Decision is the outcome of Evaluate.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow(r Reason) Decision { return Decision{Allowed: true, Reason: r} }
func deny(r Reason) Decision  { return Decision{Allowed: false, Reason: r} }

// OwnerFunc extracts the owner of the resource being accessed. It must be pure.
type OwnerFunc func(requestcontext.Caller) domain.UserID

type evalOptions struct {
	owner     OwnerFunc
	targetOrg domain.OrganizationID
	scope     domain.Scope
}

// EvalOption configures a single evaluation.
type EvalOption func(*evalOptions)

// WithOwner supplies the resource-owner extractor used for self-access.
func WithOwner(fn OwnerFunc) EvalOption {
	return func(o *evalOptions) { o.owner = fn }
}

// OwnedBy is WithOwner for an owner known up front.
func OwnedBy(userID domain.UserID) EvalOption {
	return WithOwner(func(requestcontext.Caller) domain.UserID { return userID })
}

// WithTargetOrganization names the organization the resource belongs to. When
// omitted, the resource is taken to live in the caller's organization.
func WithTargetOrganization(org domain.OrganizationID) EvalOption {
	return func(o *evalOptions) { o.targetOrg = org }
}

// WithScope requests a tenant reach; ScopeAll only takes effect for the top role.
func WithScope(scope domain.Scope) EvalOption {
	return func(o *evalOptions) { o.scope = scope }
}

// Engine evaluates requests against a Registry.
type Engine struct {
	registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry exposes the rule set for administrative listing.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Evaluate decides whether caller may perform action on resource.
func (e *Engine) Evaluate(caller requestcontext.Caller, resource string, action Action, opts ...EvalOption) Decision {
	o := evalOptions{scope: domain.ScopeOrganization}
	for _, opt := range opts {
		opt(&o)
	}

	rule, ok := e.registry.Lookup(resource, action)
	if !ok {
		return deny(ReasonUnknownPermission)
	}

	if rule.AllowSelfAccess && o.owner != nil && !caller.UserID.IsNil() {
		if o.owner(caller) == caller.UserID {
			return allow(ReasonSelfAccess)
		}
	}

	if !caller.Role.AtLeast(rule.MinRole) {
		return deny(ReasonInsufficientPermission)
	}

	if rule.OrganizationBoundary && !crossTenantAllowed(caller, o.scope) {
		if o.scope == domain.ScopeAll {
			return deny(ReasonOrgBoundaryViolation)
		}
		if !o.targetOrg.IsNil() && o.targetOrg != caller.OrganizationID {
			return deny(ReasonOrgBoundaryViolation)
		}
	}

	return allow(ReasonRoleRank)
}

func crossTenantAllowed(caller requestcontext.Caller, scope domain.Scope) bool {
	return scope == domain.ScopeAll && caller.Role.IsTop()
}

// Authorize is Evaluate translated into an error for callers that gate work on it.
// It returns nil when allowed.
func (e *Engine) Authorize(caller requestcontext.Caller, resource string, action Action, opts ...EvalOption) error {
	d := e.Evaluate(caller, resource, action, opts...)
	if d.Allowed {
		return nil
	}
	return DenialError(d, resource, action)
}

// DenialError converts a denied decision into a coded domain error.
func DenialError(d Decision, resource string, action Action) error {
	switch d.Reason {
	case ReasonUnknownPermission:
		return dErrors.Newf(dErrors.CodeUnknownPermission, "no permission rule for %s.%s", resource, action)
	case ReasonOrgBoundaryViolation:
		return dErrors.Newf(dErrors.CodeOrgBoundaryViolation, "%s belongs to another organization", resource)
	default:
		return dErrors.Newf(dErrors.CodeInsufficientPermission, "role cannot %s %s", action, resource)
	}
}
