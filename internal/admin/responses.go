package admin

import (
	"hrcore/internal/audit"
	"hrcore/internal/authz"
	"hrcore/pkg/domain"
)

// GrantsResponse is the HTTP response DTO for a role's permission grants.
type GrantsResponse struct {
	Role   domain.Role   `json:"role"`
	Grants []authz.Grant `json:"grants"`
	Total  int           `json:"total"`
}

// AuditResponse wraps audit entries, oldest first.
type AuditResponse struct {
	Scope   domain.Scope  `json:"scope"`
	Entries []audit.Entry `json:"entries"`
	Total   int           `json:"total"`
}

func NewGrantsResponse(role domain.Role, grants []authz.Grant) *GrantsResponse {
	if grants == nil {
		grants = []authz.Grant{}
	}
	return &GrantsResponse{Role: role, Grants: grants, Total: len(grants)}
}

func NewAuditResponse(scope domain.Scope, entries []audit.Entry) *AuditResponse {
	if entries == nil {
		entries = []audit.Entry{}
	}
	return &AuditResponse{Scope: scope, Entries: entries, Total: len(entries)}
}
