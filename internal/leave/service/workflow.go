// Package service runs the leave-request lifecycle.
//
// Workflow authorizes every call through the authorization engine, enforces the
// status machine in models, and writes the audit entry in the same unit of work
// as the state change.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hrcore/internal/audit"
	"hrcore/internal/authz"
	hmodels "hrcore/internal/hierarchy/models"
	"hrcore/internal/leave/models"
	"hrcore/internal/platform/metrics"
	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
	"hrcore/pkg/platform/sentinel"
	"hrcore/pkg/platform/tx"
	"hrcore/pkg/requestcontext"
)

const guardName = "leave"

// RequestStore persists leave requests. Execute must hold the row for the
// duration of validate and mutate, and join the unit of work in ctx.
type RequestStore interface {
	Create(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, id domain.LeaveRequestID) (*models.Request, error)
	ListByEmployee(ctx context.Context, employeeID domain.EmployeeID) ([]*models.Request, error)
	Execute(ctx context.Context, id domain.LeaveRequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error)
}

// EmployeeDirectory resolves the employee a request is filed for. The hierarchy
// employee stores satisfy it.
type EmployeeDirectory interface {
	FindByID(ctx context.Context, id domain.EmployeeID) (*hmodels.Employee, error)
}

// CreateInput is what a caller supplies for a new request. The day count is
// always derived from the dates.
type CreateInput struct {
	EmployeeID domain.EmployeeID
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// Workflow applies authorized, audited leave-request transitions.
type Workflow struct {
	requests  RequestStore
	employees EmployeeDirectory
	engine    *authz.Engine
	trail     *audit.Trail
	tx        tx.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(*Workflow)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// WithTx sets the unit-of-work runner. Defaults to tx.NewInMemory.
func WithTx(runner tx.Runner) Option {
	return func(w *Workflow) {
		w.tx = runner
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(w *Workflow) {
		w.tracer = tracer
	}
}

func New(requests RequestStore, employees EmployeeDirectory, engine *authz.Engine, trail *audit.Trail, opts ...Option) (*Workflow, error) {
	if requests == nil {
		return nil, errors.New("leave request store is required")
	}
	if employees == nil {
		return nil, errors.New("employee directory is required")
	}
	if engine == nil {
		return nil, errors.New("authorization engine is required")
	}
	if trail == nil {
		return nil, errors.New("audit trail is required")
	}
	w := &Workflow{
		requests:  requests,
		employees: employees,
		engine:    engine,
		trail:     trail,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.tx == nil {
		w.tx = tx.NewInMemory()
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	if w.tracer == nil {
		w.tracer = otel.Tracer("hrcore/internal/leave")
	}
	return w, nil
}

// Create files a PENDING request for in.EmployeeID.
//
// Errors:
//   - CodeNotFound: unknown employee
//   - authorization codes (leaves.create; the employee may file their own)
//   - CodeValidation: end date before start date, or malformed input
//   - CodeUnavailable: store or audit trail failure; nothing was stored
func (w *Workflow) Create(ctx context.Context, caller requestcontext.Caller, in CreateInput) (*models.Request, error) {
	if in.EmployeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "employee id is required")
	}

	ctx, span := w.tracer.Start(ctx, "leave.Create", trace.WithAttributes(
		attribute.String("employee_id", in.EmployeeID.String()),
	))
	defer span.End()

	start := time.Now()
	var (
		result     *models.Request
		mutation   *audit.Mutation
		auditFault bool
	)
	err := w.tx.RunInTx(ctx, func(txCtx context.Context) error {
		employee, err := w.employee(txCtx, in.EmployeeID)
		if err != nil {
			return err
		}
		if err := w.authorize(txCtx, caller, authz.ActionCreate, employee.OrganizationID, employee.UserID); err != nil {
			return err
		}
		mutation = &audit.Mutation{
			Action:         audit.ActionCreate,
			Resource:       authz.ResourceLeaves,
			OrganizationID: employee.OrganizationID,
		}

		now := requestcontext.Now(txCtx)
		r, err := models.NewRequest(
			domain.LeaveRequestID(uuid.New()),
			employee.OrganizationID,
			employee.ID,
			employee.UserID,
			caller.UserID,
			in.StartDate,
			in.EndDate,
			in.Reason,
			now,
		)
		if err != nil {
			return err
		}
		mutation.ResourceID = r.ID.String()
		if err := w.requests.Create(txCtx, r); err != nil {
			return storeErr(err, "create leave request")
		}

		mutation.Changes, err = audit.NewChanges(nil, r)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "snapshot leave request")
		}
		if _, err := w.trail.Record(txCtx, caller, *mutation, nil); err != nil {
			auditFault = true
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		w.fail(ctx, span, caller, mutation, auditFault, err)
		return nil, err
	}

	if w.metrics != nil {
		w.metrics.ObserveMutation(guardName, "create", start)
	}
	w.logger.InfoContext(ctx, "leave request created",
		"leave_request_id", result.ID,
		"employee_id", result.EmployeeID,
		"days", result.Days,
		"user_id", caller.UserID,
		"request_id", caller.RequestID,
	)
	return result, nil
}

// Get returns one request. The employee on leave may read their own.
func (w *Workflow) Get(ctx context.Context, caller requestcontext.Caller, id domain.LeaveRequestID) (*models.Request, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "leave request id is required")
	}
	r, err := w.requests.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load leave request")
	}
	if err := w.authorize(ctx, caller, authz.ActionRead, r.OrganizationID, r.RequesterID); err != nil {
		return nil, err
	}
	return r, nil
}

// ListForEmployee returns the employee's requests, oldest first.
func (w *Workflow) ListForEmployee(ctx context.Context, caller requestcontext.Caller, employeeID domain.EmployeeID) ([]*models.Request, error) {
	if employeeID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "employee id is required")
	}
	employee, err := w.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := w.authorize(ctx, caller, authz.ActionRead, employee.OrganizationID, employee.UserID); err != nil {
		return nil, err
	}
	requests, err := w.requests.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, storeErr(err, "list leave requests")
	}
	return requests, nil
}

// Approve moves a PENDING request to APPROVED. Requires leaves.approve; a
// reviewer cannot approve their own request.
func (w *Workflow) Approve(ctx context.Context, caller requestcontext.Caller, id domain.LeaveRequestID) (*models.Request, error) {
	return w.transition(ctx, caller, id, transition{
		name:   "approve",
		action: authz.ActionApprove,
		target: models.StatusApproved,
		review: true,
		apply: func(r *models.Request, now time.Time) {
			r.ApplyApproval(caller.UserID, now)
		},
	})
}

// Reject moves a PENDING request to REJECTED with an optional reason.
func (w *Workflow) Reject(ctx context.Context, caller requestcontext.Caller, id domain.LeaveRequestID, reason string) (*models.Request, error) {
	return w.transition(ctx, caller, id, transition{
		name:   "reject",
		action: authz.ActionApprove,
		target: models.StatusRejected,
		review: true,
		apply: func(r *models.Request, now time.Time) {
			r.ApplyRejection(caller.UserID, reason, now)
		},
	})
}

// Cancel moves a PENDING or APPROVED request to CANCELLED. The employee on
// leave may cancel their own request.
func (w *Workflow) Cancel(ctx context.Context, caller requestcontext.Caller, id domain.LeaveRequestID) (*models.Request, error) {
	return w.transition(ctx, caller, id, transition{
		name:   "cancel",
		action: authz.ActionUpdate,
		target: models.StatusCancelled,
		self:   true,
		apply: func(r *models.Request, now time.Time) {
			r.ApplyCancellation(now)
		},
	})
}

type transition struct {
	name   string
	action authz.Action
	target models.Status
	// self passes the requester as owner for self-access.
	self bool
	// review forbids the requester from acting on their own request.
	review bool
	apply  func(r *models.Request, now time.Time)
}

func (w *Workflow) transition(ctx context.Context, caller requestcontext.Caller, id domain.LeaveRequestID, t transition) (*models.Request, error) {
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "leave request id is required")
	}

	ctx, span := w.tracer.Start(ctx, "leave."+t.name, trace.WithAttributes(
		attribute.String("leave_request_id", id.String()),
		attribute.String("target_status", t.target.String()),
	))
	defer span.End()

	start := time.Now()
	var (
		result     *models.Request
		mutation   *audit.Mutation
		auditFault bool
		previous   models.Status
	)
	err := w.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var before *models.Request
		now := requestcontext.Now(txCtx)
		updated, err := w.requests.Execute(txCtx, id,
			func(r *models.Request) error {
				var owner domain.UserID
				if t.self {
					owner = r.RequesterID
				}
				if err := w.authorize(txCtx, caller, t.action, r.OrganizationID, owner); err != nil {
					return err
				}
				mutation = &audit.Mutation{
					Action:         audit.ActionUpdate,
					Resource:       authz.ResourceLeaves,
					ResourceID:     r.ID.String(),
					OrganizationID: r.OrganizationID,
				}
				if t.review && !caller.UserID.IsNil() && r.RequesterID == caller.UserID {
					return dErrors.New(dErrors.CodeForbidden, "cannot review your own leave request")
				}
				if err := r.CanMoveTo(t.target); err != nil {
					return err
				}
				before = r.Clone()
				return nil
			},
			func(r *models.Request) {
				t.apply(r, now)
			},
		)
		if err != nil {
			return storeErr(err, "update leave request")
		}
		previous = before.Status

		mutation.Changes, err = audit.NewChanges(before, updated)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "snapshot leave request")
		}
		if _, err := w.trail.Record(txCtx, caller, *mutation, nil); err != nil {
			auditFault = true
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		w.fail(ctx, span, caller, mutation, auditFault, err)
		return nil, err
	}

	if w.metrics != nil {
		w.metrics.ObserveMutation(guardName, t.name, start)
	}
	w.logger.InfoContext(ctx, "leave request transitioned",
		"leave_request_id", id,
		"from", previous,
		"to", result.Status,
		"user_id", caller.UserID,
		"request_id", caller.RequestID,
	)
	return result, nil
}

func (w *Workflow) employee(ctx context.Context, id domain.EmployeeID) (*hmodels.Employee, error) {
	e, err := w.employees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "employee %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load employee")
	}
	return e, nil
}

// authorize evaluates caller against leaves.<action>. A nil owner disables
// self-access for the call.
func (w *Workflow) authorize(ctx context.Context, caller requestcontext.Caller, action authz.Action, org domain.OrganizationID, owner domain.UserID) error {
	opts := []authz.EvalOption{authz.WithTargetOrganization(org)}
	if !owner.IsNil() {
		opts = append(opts, authz.OwnedBy(owner))
	}
	d := w.engine.Evaluate(caller, authz.ResourceLeaves, action, opts...)
	if d.Allowed {
		return nil
	}
	if w.metrics != nil {
		w.metrics.IncDenied(authz.ResourceLeaves, string(action), string(d.Reason))
	}
	w.logger.WarnContext(ctx, "leave access denied",
		"user_id", caller.UserID,
		"organization_id", caller.OrganizationID,
		"action", action,
		"reason", d.Reason,
		"request_id", caller.RequestID,
	)
	return authz.DenialError(d, authz.ResourceLeaves, action)
}

// fail records the failed attempt when the call got past authorization. An
// audit failure is not recorded again; the caller already sees it.
func (w *Workflow) fail(ctx context.Context, span trace.Span, caller requestcontext.Caller, m *audit.Mutation, auditFault bool, cause error) {
	span.RecordError(cause)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(cause)))

	code := dErrors.CodeOf(cause)
	if !dErrors.IsAuthorization(code) {
		if w.metrics != nil {
			w.metrics.IncRejected(guardName, string(code))
		}
		w.logger.WarnContext(ctx, "leave request change rejected", "code", code, "error", cause)
	}
	if m == nil || auditFault {
		return
	}
	if _, err := w.trail.Record(ctx, caller, *m, cause); err != nil {
		w.logger.ErrorContext(ctx, "failed to audit rejected leave request change",
			"resource_id", m.ResourceID,
			"request_id", caller.RequestID,
			"error", err,
		)
	}
}

// storeErr translates store sentinels. Coded errors from callbacks pass through.
func storeErr(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "leave request not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
}
