package authz

import (
	"strings"

	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
)

// Action is the verb a rule governs.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

var validActions = map[Action]bool{
	ActionCreate:  true,
	ActionRead:    true,
	ActionUpdate:  true,
	ActionDelete:  true,
	ActionApprove: true,
}

// ParseAction constructs an Action from external input.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !validActions[a] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown action %q", s)
	}
	return a, nil
}

func (a Action) IsValid() bool { return validActions[a] }

// Resources guarded by the default rule set.
const (
	ResourceEmployees      = "employees"
	ResourceReportingLines = "reporting_lines"
	ResourceLeaves         = "leaves"
	ResourcePayroll        = "payroll"
	ResourceDocuments      = "documents"
	ResourceNotifications  = "notifications"
	ResourceDepartments    = "departments"
	ResourceAuditLogs      = "audit_logs"
	ResourcePermissions    = "permissions"
)

// Rule grants action on resource to callers ranked at least MinRole.
//
// AllowSelfAccess lets a caller act on a resource they own regardless of rank.
// OrganizationBoundary confines access to the caller's own organization.
type Rule struct {
	Resource             string      `yaml:"resource" json:"resource"`
	Action               Action      `yaml:"action" json:"action"`
	MinRole              domain.Role `yaml:"min_role" json:"min_role"`
	AllowSelfAccess      bool        `yaml:"allow_self_access" json:"allow_self_access"`
	OrganizationBoundary bool        `yaml:"organization_boundary" json:"organization_boundary"`
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.Resource) == "" {
		return dErrors.New(dErrors.CodeValidation, "rule resource is required")
	}
	if !r.Action.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "rule %s: unknown action %q", r.Resource, r.Action)
	}
	if !r.MinRole.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "rule %s.%s: unknown min role %q", r.Resource, r.Action, r.MinRole)
	}
	return nil
}

// DefaultRules is the built-in rule set for the HR back office.
func DefaultRules() []Rule {
	bounded := func(resource string, action Action, min domain.Role, self bool) Rule {
		return Rule{Resource: resource, Action: action, MinRole: min, AllowSelfAccess: self, OrganizationBoundary: true}
	}
	return []Rule{
		bounded(ResourceEmployees, ActionCreate, domain.RoleHRAdmin, false),
		bounded(ResourceEmployees, ActionRead, domain.RoleManager, true),
		bounded(ResourceEmployees, ActionUpdate, domain.RoleHRAdmin, true),
		bounded(ResourceEmployees, ActionDelete, domain.RoleHRAdmin, false),

		bounded(ResourceReportingLines, ActionRead, domain.RoleEmployee, false),
		bounded(ResourceReportingLines, ActionUpdate, domain.RoleHRAdmin, false),

		bounded(ResourceLeaves, ActionCreate, domain.RoleHRAdmin, true),
		bounded(ResourceLeaves, ActionRead, domain.RoleManager, true),
		bounded(ResourceLeaves, ActionUpdate, domain.RoleHRAdmin, true),
		bounded(ResourceLeaves, ActionApprove, domain.RoleManager, false),
		bounded(ResourceLeaves, ActionDelete, domain.RoleHRAdmin, false),

		bounded(ResourcePayroll, ActionCreate, domain.RoleHRAdmin, false),
		bounded(ResourcePayroll, ActionRead, domain.RoleHRAdmin, true),
		bounded(ResourcePayroll, ActionUpdate, domain.RoleHRAdmin, false),
		bounded(ResourcePayroll, ActionDelete, domain.RoleSuperAdmin, false),

		bounded(ResourceDocuments, ActionCreate, domain.RoleHRAdmin, true),
		bounded(ResourceDocuments, ActionRead, domain.RoleHRAdmin, true),
		bounded(ResourceDocuments, ActionUpdate, domain.RoleHRAdmin, false),
		bounded(ResourceDocuments, ActionDelete, domain.RoleHRAdmin, false),

		bounded(ResourceNotifications, ActionCreate, domain.RoleHRAdmin, false),
		bounded(ResourceNotifications, ActionRead, domain.RoleHRAdmin, true),
		bounded(ResourceNotifications, ActionUpdate, domain.RoleHRAdmin, true),
		bounded(ResourceNotifications, ActionDelete, domain.RoleHRAdmin, true),

		bounded(ResourceDepartments, ActionCreate, domain.RoleHRAdmin, false),
		bounded(ResourceDepartments, ActionRead, domain.RoleEmployee, false),
		bounded(ResourceDepartments, ActionUpdate, domain.RoleHRAdmin, false),
		bounded(ResourceDepartments, ActionDelete, domain.RoleHRAdmin, false),

		bounded(ResourceAuditLogs, ActionRead, domain.RoleHRAdmin, false),
		{Resource: ResourceAuditLogs, Action: ActionDelete, MinRole: domain.RoleSuperAdmin},

		{Resource: ResourcePermissions, Action: ActionRead, MinRole: domain.RoleHRAdmin},
	}
}
