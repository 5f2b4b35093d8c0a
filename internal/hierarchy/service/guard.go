// Package service guards the reporting hierarchy.
//
// Every change to a manager link goes through Guard, which keeps the graph
// acyclic and the manager/direct-report links bidirectional. The employee, the
// new manager and any previous manager are written in one unit of work together
// with the audit entry describing the change.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hrcore/internal/audit"
	"hrcore/internal/authz"
	"hrcore/internal/hierarchy/models"
	"hrcore/internal/platform/metrics"
	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
	"hrcore/pkg/platform/sentinel"
	"hrcore/pkg/platform/tx"
	"hrcore/pkg/requestcontext"
)

const (
	guardName       = "hierarchy"
	DefaultMaxDepth = 1000
)

// EmployeeStore persists employees. Inside a unit of work, FindByID must see the
// unit's own writes and Save must join it.
type EmployeeStore interface {
	FindByID(ctx context.Context, id domain.EmployeeID) (*models.Employee, error)
	Save(ctx context.Context, employees ...*models.Employee) error
}

// Result holds both records touched by SetManager, as stored after the change.
type Result struct {
	Employee *models.Employee
	Manager  *models.Employee
}

// Guard applies invariant-checked changes to reporting lines.
type Guard struct {
	employees EmployeeStore
	engine    *authz.Engine
	trail     *audit.Trail
	tx        tx.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	maxDepth  int
}

type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

// WithTx sets the unit-of-work runner. Defaults to tx.NewInMemory.
func WithTx(runner tx.Runner) Option {
	return func(g *Guard) {
		g.tx = runner
	}
}

// WithMaxDepth bounds chain walks. A longer chain means the stored graph is
// corrupt and surfaces as CodeInvariantViolation.
func WithMaxDepth(depth int) Option {
	return func(g *Guard) {
		if depth > 0 {
			g.maxDepth = depth
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(g *Guard) {
		g.tracer = tracer
	}
}

func New(employees EmployeeStore, engine *authz.Engine, trail *audit.Trail, opts ...Option) (*Guard, error) {
	if employees == nil {
		return nil, errors.New("employee store is required")
	}
	if engine == nil {
		return nil, errors.New("authorization engine is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	g := &Guard{
		employees: employees,
		engine:    engine,
		trail:     trail,
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.tx == nil {
		g.tx = tx.NewInMemory()
	}
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer("hrcore/internal/hierarchy")
	}
	return g, nil
}

// SetManager makes managerID the manager of employeeID.
//
// Errors:
//   - CodeCycleDetected: employeeID == managerID (audited once the employee is
//     known and the caller authorized), or managerID already reports to
//     employeeID directly or transitively
//   - CodeNotFound: either employee is unknown
//   - CodeValidation: the two employees belong to different organizations
//   - authorization codes from the engine (reporting_lines.update)
//   - CodeUnavailable: the store or the audit trail failed; nothing was changed
func (g *Guard) SetManager(ctx context.Context, caller requestcontext.Caller, employeeID, managerID domain.EmployeeID) (*Result, error) {
	if employeeID.IsNil() || managerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "employee and manager ids are required")
	}

	ctx, span := g.tracer.Start(ctx, "hierarchy.SetManager", trace.WithAttributes(
		attribute.String("employee_id", employeeID.String()),
		attribute.String("manager_id", managerID.String()),
	))
	defer span.End()

	selfManaged := dErrors.New(dErrors.CodeCycleDetected, "an employee cannot manage themselves")
	start := time.Now()
	var (
		result     *Result
		mutation   *audit.Mutation
		auditFault bool
	)
	err := g.tx.RunInTx(ctx, func(txCtx context.Context) error {
		employee, err := g.find(txCtx, employeeID)
		if err != nil {
			if employeeID == managerID && dErrors.HasCode(err, dErrors.CodeNotFound) {
				return selfManaged
			}
			return err
		}
		if err := g.authorize(txCtx, caller, authz.ActionUpdate, employee.OrganizationID); err != nil {
			return err
		}
		mutation = &audit.Mutation{
			Action:         audit.ActionUpdate,
			Resource:       authz.ResourceReportingLines,
			ResourceID:     employeeID.String(),
			OrganizationID: employee.OrganizationID,
		}
		if employeeID == managerID {
			return selfManaged
		}

		manager, err := g.find(txCtx, managerID)
		if err != nil {
			return err
		}
		if manager.OrganizationID != employee.OrganizationID {
			return dErrors.New(dErrors.CodeValidation, "manager belongs to another organization")
		}
		if err := g.checkChain(txCtx, employeeID, manager); err != nil {
			return err
		}

		var previous *models.Employee
		if employee.ManagerID != nil && *employee.ManagerID != managerID {
			previous, err = g.find(txCtx, *employee.ManagerID)
			if err != nil {
				return missingLink(err, "previous manager is missing")
			}
		}

		before := linkSnapshot(employee, manager, previous)
		now := requestcontext.Now(txCtx)
		employee.AssignManager(managerID, now)
		manager.AddDirectReport(employeeID, now)
		touched := []*models.Employee{employee, manager}
		if previous != nil {
			previous.RemoveDirectReport(employeeID, now)
			touched = append(touched, previous)
		}
		if err := g.employees.Save(txCtx, touched...); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "save reporting lines")
		}

		mutation.Changes, err = audit.NewChanges(before, linkSnapshot(employee, manager, previous))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "snapshot reporting lines")
		}
		if _, err := g.trail.Record(txCtx, caller, *mutation, nil); err != nil {
			auditFault = true
			return err
		}
		result = &Result{Employee: employee, Manager: manager}
		return nil
	})
	if err != nil {
		g.fail(ctx, span, caller, mutation, auditFault, err)
		return nil, err
	}

	if g.metrics != nil {
		g.metrics.ObserveMutation(guardName, "set_manager", start)
	}
	g.logger.InfoContext(ctx, "manager assigned",
		"employee_id", employeeID,
		"manager_id", managerID,
		"user_id", caller.UserID,
		"request_id", caller.RequestID,
	)
	return result, nil
}

// RemoveManager detaches employeeID from its current manager.
//
// Errors: CodeConflict when the employee has no manager; otherwise as SetManager.
func (g *Guard) RemoveManager(ctx context.Context, caller requestcontext.Caller, employeeID domain.EmployeeID) (*models.Employee, error) {
	if employeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "employee id is required")
	}

	ctx, span := g.tracer.Start(ctx, "hierarchy.RemoveManager", trace.WithAttributes(
		attribute.String("employee_id", employeeID.String()),
	))
	defer span.End()

	start := time.Now()
	var (
		result     *models.Employee
		mutation   *audit.Mutation
		auditFault bool
	)
	err := g.tx.RunInTx(ctx, func(txCtx context.Context) error {
		employee, err := g.find(txCtx, employeeID)
		if err != nil {
			return err
		}
		if err := g.authorize(txCtx, caller, authz.ActionUpdate, employee.OrganizationID); err != nil {
			return err
		}
		mutation = &audit.Mutation{
			Action:         audit.ActionUpdate,
			Resource:       authz.ResourceReportingLines,
			ResourceID:     employeeID.String(),
			OrganizationID: employee.OrganizationID,
		}

		if employee.ManagerID == nil {
			return dErrors.New(dErrors.CodeConflict, "employee has no manager")
		}
		manager, err := g.find(txCtx, *employee.ManagerID)
		if err != nil {
			return missingLink(err, "current manager is missing")
		}

		before := linkSnapshot(employee, manager, nil)
		now := requestcontext.Now(txCtx)
		employee.ClearManager(now)
		manager.RemoveDirectReport(employeeID, now)
		if err := g.employees.Save(txCtx, employee, manager); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "save reporting lines")
		}

		mutation.Changes, err = audit.NewChanges(before, linkSnapshot(employee, manager, nil))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "snapshot reporting lines")
		}
		if _, err := g.trail.Record(txCtx, caller, *mutation, nil); err != nil {
			auditFault = true
			return err
		}
		result = employee
		return nil
	})
	if err != nil {
		g.fail(ctx, span, caller, mutation, auditFault, err)
		return nil, err
	}

	if g.metrics != nil {
		g.metrics.ObserveMutation(guardName, "remove_manager", start)
	}
	return result, nil
}

// ManagementChain returns the managers above employeeID, nearest first.
func (g *Guard) ManagementChain(ctx context.Context, caller requestcontext.Caller, employeeID domain.EmployeeID) ([]*models.Employee, error) {
	if employeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "employee id is required")
	}
	employee, err := g.find(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := g.authorize(ctx, caller, authz.ActionRead, employee.OrganizationID); err != nil {
		return nil, err
	}

	var chain []*models.Employee
	cur := employee
	for cur.ManagerID != nil {
		if len(chain) >= g.maxDepth {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "management chain of %s exceeds %d levels", employeeID, g.maxDepth)
		}
		next, err := g.find(ctx, *cur.ManagerID)
		if err != nil {
			return nil, missingLink(err, "manager in chain is missing")
		}
		chain = append(chain, next)
		cur = next
	}
	return chain, nil
}

// checkChain walks upward from the candidate manager. Finding employeeID means
// the new link would close a cycle. Cost is bounded by depth, not breadth.
func (g *Guard) checkChain(ctx context.Context, employeeID domain.EmployeeID, manager *models.Employee) error {
	cur := manager
	for depth := 0; cur.ManagerID != nil; depth++ {
		if *cur.ManagerID == employeeID {
			return dErrors.New(dErrors.CodeCycleDetected, "manager already reports to this employee")
		}
		if depth >= g.maxDepth {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "management chain exceeds %d levels", g.maxDepth)
		}
		next, err := g.find(ctx, *cur.ManagerID)
		if err != nil {
			return missingLink(err, "manager in chain is missing")
		}
		cur = next
	}
	return nil
}

func (g *Guard) find(ctx context.Context, id domain.EmployeeID) (*models.Employee, error) {
	e, err := g.employees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "employee %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load employee")
	}
	return e, nil
}

// missingLink reports a dangling manager reference as corruption; other
// failures pass through unchanged.
func missingLink(err error, msg string) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, msg)
	}
	return err
}

func (g *Guard) authorize(ctx context.Context, caller requestcontext.Caller, action authz.Action, org domain.OrganizationID) error {
	d := g.engine.Evaluate(caller, authz.ResourceReportingLines, action, authz.WithTargetOrganization(org))
	if d.Allowed {
		return nil
	}
	if g.metrics != nil {
		g.metrics.IncDenied(authz.ResourceReportingLines, string(action), string(d.Reason))
	}
	g.logger.WarnContext(ctx, "reporting line access denied",
		"user_id", caller.UserID,
		"organization_id", caller.OrganizationID,
		"action", action,
		"reason", d.Reason,
		"request_id", caller.RequestID,
	)
	return authz.DenialError(d, authz.ResourceReportingLines, action)
}

// fail records the failed attempt when the call got past authorization. An
// audit failure is not recorded again; the caller already sees it.
func (g *Guard) fail(ctx context.Context, span trace.Span, caller requestcontext.Caller, m *audit.Mutation, auditFault bool, cause error) {
	span.RecordError(cause)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(cause)))
	g.reject(ctx, cause)
	if m == nil || auditFault {
		return
	}
	if _, err := g.trail.Record(ctx, caller, *m, cause); err != nil {
		g.logger.ErrorContext(ctx, "failed to audit rejected reporting line change",
			"resource_id", m.ResourceID,
			"request_id", caller.RequestID,
			"error", err,
		)
	}
}

func (g *Guard) reject(ctx context.Context, cause error) {
	code := dErrors.CodeOf(cause)
	if dErrors.IsAuthorization(code) {
		return
	}
	if g.metrics != nil {
		g.metrics.IncRejected(guardName, string(code))
	}
	g.logger.WarnContext(ctx, "reporting line change rejected", "code", code, "error", cause)
}

func linkSnapshot(employee, manager, previous *models.Employee) map[string]any {
	s := map[string]any{
		"employee": employee.Snapshot(),
		"manager":  manager.Snapshot(),
	}
	if previous != nil {
		s["previous_manager"] = previous.Snapshot()
	}
	return s
}
