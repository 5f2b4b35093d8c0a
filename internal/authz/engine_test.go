package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
	"hrcore/pkg/requestcontext"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
	orgA   domain.OrganizationID
	orgB   domain.OrganizationID
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine(DefaultRegistry())
	s.orgA = domain.OrganizationID(uuid.New())
	s.orgB = domain.OrganizationID(uuid.New())
}

func (s *EngineSuite) caller(role domain.Role, org domain.OrganizationID) requestcontext.Caller {
	return requestcontext.Caller{
		UserID:         domain.UserID(uuid.New()),
		OrganizationID: org,
		Role:           role,
	}
}

func (s *EngineSuite) TestUnknownPermission() {
	s.Run("unregistered pair is denied for every role", func() {
		for _, role := range domain.Roles() {
			d := s.engine.Evaluate(s.caller(role, s.orgA), "spaceships", ActionRead)
			s.False(d.Allowed)
			s.Equal(ReasonUnknownPermission, d.Reason)
		}
	})

	s.Run("self-access cannot rescue an unregistered pair", func() {
		c := s.caller(domain.RoleSuperAdmin, s.orgA)
		d := s.engine.Evaluate(c, ResourceLeaves, Action("archive"), OwnedBy(c.UserID))
		s.False(d.Allowed)
		s.Equal(ReasonUnknownPermission, d.Reason)
	})

	s.Run("Authorize maps to unknown permission code", func() {
		err := s.engine.Authorize(s.caller(domain.RoleSuperAdmin, s.orgA), "spaceships", ActionRead)
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownPermission))
	})
}

func (s *EngineSuite) TestRoleRank() {
	s.Run("rank at or above the minimum is allowed", func() {
		for _, role := range []domain.Role{domain.RoleManager, domain.RoleHRAdmin, domain.RoleSuperAdmin} {
			d := s.engine.Evaluate(s.caller(role, s.orgA), ResourceLeaves, ActionApprove, WithTargetOrganization(s.orgA))
			s.True(d.Allowed, role)
			s.Equal(ReasonRoleRank, d.Reason)
		}
	})

	s.Run("rank below the minimum is denied", func() {
		d := s.engine.Evaluate(s.caller(domain.RoleEmployee, s.orgA), ResourceLeaves, ActionApprove, WithTargetOrganization(s.orgA))
		s.False(d.Allowed)
		s.Equal(ReasonInsufficientPermission, d.Reason)

		err := s.engine.Authorize(s.caller(domain.RoleEmployee, s.orgA), ResourceLeaves, ActionApprove)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientPermission))
	})

	s.Run("unknown caller role ranks below everything", func() {
		d := s.engine.Evaluate(s.caller(domain.Role("intern"), s.orgA), ResourceDepartments, ActionRead)
		s.False(d.Allowed)
		s.Equal(ReasonInsufficientPermission, d.Reason)
	})

	s.Run("raising the role never revokes an allowed decision", func() {
		for _, rule := range DefaultRules() {
			allowedBelow := false
			for _, role := range domain.Roles() {
				d := s.engine.Evaluate(s.caller(role, s.orgA), rule.Resource, rule.Action, WithTargetOrganization(s.orgA))
				if allowedBelow {
					s.True(d.Allowed, "%s.%s as %s", rule.Resource, rule.Action, role)
				}
				allowedBelow = allowedBelow || d.Allowed
			}
		}
	})
}

func (s *EngineSuite) TestSelfAccess() {
	s.Run("owner below the minimum rank is allowed when the rule permits it", func() {
		c := s.caller(domain.RoleEmployee, s.orgA)
		d := s.engine.Evaluate(c, ResourceLeaves, ActionRead, OwnedBy(c.UserID))
		s.True(d.Allowed)
		s.Equal(ReasonSelfAccess, d.Reason)
	})

	s.Run("owner extractor receives the caller", func() {
		c := s.caller(domain.RoleEmployee, s.orgA)
		var seen requestcontext.Caller
		d := s.engine.Evaluate(c, ResourceLeaves, ActionRead, WithOwner(func(got requestcontext.Caller) domain.UserID {
			seen = got
			return got.UserID
		}))
		s.True(d.Allowed)
		s.Equal(c, seen)
	})

	s.Run("non-owner below the minimum rank is denied", func() {
		c := s.caller(domain.RoleEmployee, s.orgA)
		d := s.engine.Evaluate(c, ResourceLeaves, ActionRead, OwnedBy(domain.UserID(uuid.New())))
		s.False(d.Allowed)
		s.Equal(ReasonInsufficientPermission, d.Reason)
	})

	s.Run("rule without self-access ignores ownership", func() {
		c := s.caller(domain.RoleEmployee, s.orgA)
		d := s.engine.Evaluate(c, ResourceLeaves, ActionApprove, OwnedBy(c.UserID))
		s.False(d.Allowed)
		s.Equal(ReasonInsufficientPermission, d.Reason)
	})

	s.Run("self-access skips the organization check", func() {
		c := s.caller(domain.RoleEmployee, s.orgA)
		d := s.engine.Evaluate(c, ResourceLeaves, ActionRead, OwnedBy(c.UserID), WithTargetOrganization(s.orgB))
		s.True(d.Allowed)
		s.Equal(ReasonSelfAccess, d.Reason)
	})

	s.Run("nil caller id never matches a nil owner", func() {
		c := requestcontext.Caller{OrganizationID: s.orgA, Role: domain.RoleEmployee}
		d := s.engine.Evaluate(c, ResourceLeaves, ActionRead, OwnedBy(domain.UserID(uuid.Nil)))
		s.False(d.Allowed)
	})
}

func (s *EngineSuite) TestOrganizationBoundary() {
	s.Run("same organization is allowed", func() {
		d := s.engine.Evaluate(s.caller(domain.RoleHRAdmin, s.orgA), ResourcePayroll, ActionRead, WithTargetOrganization(s.orgA))
		s.True(d.Allowed)
	})

	s.Run("other organization is denied even for the top role", func() {
		for _, role := range domain.Roles() {
			d := s.engine.Evaluate(s.caller(role, s.orgA), ResourceDepartments, ActionRead, WithTargetOrganization(s.orgB))
			s.False(d.Allowed, role)
			s.Equal(ReasonOrgBoundaryViolation, d.Reason)
		}

		err := s.engine.Authorize(s.caller(domain.RoleHRAdmin, s.orgA), ResourcePayroll, ActionRead, WithTargetOrganization(s.orgB))
		s.True(dErrors.HasCode(err, dErrors.CodeOrgBoundaryViolation))
	})

	s.Run("top role with all-organizations scope crosses tenants", func() {
		d := s.engine.Evaluate(s.caller(domain.RoleSuperAdmin, s.orgA), ResourcePayroll, ActionRead,
			WithTargetOrganization(s.orgB), WithScope(domain.ScopeAll))
		s.True(d.Allowed)
		s.Equal(ReasonRoleRank, d.Reason)
	})

	s.Run("all-organizations scope is refused below the top role", func() {
		d := s.engine.Evaluate(s.caller(domain.RoleHRAdmin, s.orgA), ResourceAuditLogs, ActionRead, WithScope(domain.ScopeAll))
		s.False(d.Allowed)
		s.Equal(ReasonOrgBoundaryViolation, d.Reason)
	})

	s.Run("missing target organization means the caller's own", func() {
		d := s.engine.Evaluate(s.caller(domain.RoleHRAdmin, s.orgA), ResourcePayroll, ActionRead)
		s.True(d.Allowed)
	})

	s.Run("unbounded rule ignores the target organization", func() {
		d := s.engine.Evaluate(s.caller(domain.RoleSuperAdmin, s.orgA), ResourceAuditLogs, ActionDelete, WithTargetOrganization(s.orgB))
		s.True(d.Allowed)
	})
}

func (s *EngineSuite) TestRankCheckedBeforeBoundary() {
	d := s.engine.Evaluate(s.caller(domain.RoleEmployee, s.orgA), ResourcePayroll, ActionUpdate, WithTargetOrganization(s.orgB))
	s.False(d.Allowed)
	s.Equal(ReasonInsufficientPermission, d.Reason)
}

func (s *EngineSuite) TestDeterministic() {
	c := s.caller(domain.RoleManager, s.orgA)
	first := s.engine.Evaluate(c, ResourceEmployees, ActionRead, WithTargetOrganization(s.orgA))
	for range 50 {
		s.Equal(first, s.engine.Evaluate(c, ResourceEmployees, ActionRead, WithTargetOrganization(s.orgA)))
	}
}

func (s *EngineSuite) TestLeaveScenario() {
	employee := s.caller(domain.RoleEmployee, s.orgA)
	manager := s.caller(domain.RoleManager, s.orgA)
	foreignAdmin := s.caller(domain.RoleHRAdmin, s.orgB)

	s.Run("employee reads own leave", func() {
		s.NoError(s.engine.Authorize(employee, ResourceLeaves, ActionRead, OwnedBy(employee.UserID)))
	})
	s.Run("employee cannot approve own leave", func() {
		err := s.engine.Authorize(employee, ResourceLeaves, ActionApprove, OwnedBy(employee.UserID))
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientPermission))
	})
	s.Run("manager approves within the organization", func() {
		s.NoError(s.engine.Authorize(manager, ResourceLeaves, ActionApprove, WithTargetOrganization(s.orgA)))
	})
	s.Run("admin of another organization is refused", func() {
		err := s.engine.Authorize(foreignAdmin, ResourceLeaves, ActionApprove, WithTargetOrganization(s.orgA))
		s.True(dErrors.HasCode(err, dErrors.CodeOrgBoundaryViolation))
	})
}
