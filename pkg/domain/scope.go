package domain

import dErrors "hrcore/pkg/domain-errors"

// Scope selects the tenant reach of a query or permission check.
// ScopeAll is honoured only for the top role.
type Scope string

const (
	ScopeOrganization Scope = "organization"
	ScopeAll          Scope = "all"
)

// ParseScope parses external input. An empty value means ScopeOrganization.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeOrganization:
		return ScopeOrganization, nil
	case ScopeAll:
		return ScopeAll, nil
	default:
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown scope %q", s)
	}
}
