package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hrcore/internal/audit/metrics"
	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
	"hrcore/pkg/platform/sentinel"
	"hrcore/pkg/requestcontext"
)

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// Trail is the append and query surface over a Store. Appends are synchronous:
// when Append returns nil the entry is stored and visible to every later read.
type Trail struct {
	store        Store
	ids          *idGenerator
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	defaultLimit int
	maxLimit     int
}

// Option configures the Trail.
type Option func(*Trail)

// WithLogger sets a logger for append failures.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) {
		t.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Trail) {
		t.metrics = m
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(t *Trail) {
		t.tracer = tracer
	}
}

// WithLimits sets the GetAll page size used when none is given and the cap
// applied to larger requests. Non-positive values keep the defaults.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(t *Trail) {
		if defaultLimit > 0 {
			t.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			t.maxLimit = maxLimit
		}
	}
}

func New(store Store, opts ...Option) *Trail {
	t := &Trail{
		store:        store,
		ids:          newIDGenerator(),
		defaultLimit: DefaultQueryLimit,
		maxLimit:     MaxQueryLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer("hrcore/internal/audit")
	}
	if t.defaultLimit > t.maxLimit {
		t.defaultLimit = t.maxLimit
	}
	return t
}

// Append assigns an ID and timestamp and stores the entry.
//
// Errors: CodeValidation for malformed entries; CodeUnavailable (wrapping
// sentinel.ErrUnavailable) when the store rejects the write. A caller that
// receives CodeUnavailable after a successful mutation must not report success.
func (t *Trail) Append(ctx context.Context, entry Entry) (EntryID, error) {
	start := time.Now()
	ctx, span := t.tracer.Start(ctx, "audit.Append", trace.WithAttributes(
		attribute.String("audit.action", string(entry.Action)),
		attribute.String("audit.resource", entry.Resource),
		attribute.Bool("audit.success", entry.Success),
	))
	defer span.End()

	if err := entry.validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if entry.Metadata.Timestamp.IsZero() {
		entry.Metadata.Timestamp = requestcontext.Now(ctx)
	}
	entry.Metadata.Timestamp = entry.Metadata.Timestamp.UTC()
	id, err := t.ids.next(entry.Metadata.Timestamp)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "audit timestamp out of range")
	}
	entry.ID = id
	entry.Changes, err = normalizeChanges(entry.Changes)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", dErrors.Wrap(err, dErrors.CodeValidation, "audit changes must be JSON encodable")
	}

	if err := t.store.Append(ctx, entry.Clone()); err != nil {
		if !errors.Is(err, sentinel.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
		}
		if t.metrics != nil {
			t.metrics.IncAppendFailures()
		}
		if t.logger != nil {
			t.logger.ErrorContext(ctx, "CRITICAL: audit append failed",
				"action", entry.Action,
				"resource", entry.Resource,
				"organization_id", entry.OrganizationID,
				"user_id", entry.UserID,
				"request_id", entry.Metadata.RequestID,
				"error", err,
			)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit append failed")
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "audit trail unavailable")
	}

	span.SetAttributes(attribute.String("audit.entry_id", entry.ID.String()))
	if t.metrics != nil {
		t.metrics.IncAppended(string(entry.Action), entry.Success)
		t.metrics.ObserveAppend(start)
	}
	return entry.ID, nil
}

// GetByResource returns every entry for one resource in append order.
func (t *Trail) GetByResource(ctx context.Context, resource, resourceID string) ([]Entry, error) {
	start := time.Now()
	entries, err := t.store.ListByResource(ctx, resource, resourceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read audit trail")
	}
	if t.metrics != nil {
		t.metrics.ObserveQuery(start)
	}
	return entries, nil
}

// GetAll returns the newest entries visible to caller, oldest first.
//
// The default scope is the caller's organization. ScopeAll spans every tenant
// and is reserved for the top role. A non-positive limit selects the default
// page size; larger limits are capped.
//
// Errors: CodeOrgBoundaryViolation when a non-top caller asks for ScopeAll;
// CodeUnauthorized when an organization-scoped caller has no organization.
func (t *Trail) GetAll(ctx context.Context, caller requestcontext.Caller, limit int, scope domain.Scope) ([]Entry, error) {
	start := time.Now()

	filter := Filter{Limit: t.clampLimit(limit)}
	switch scope {
	case domain.ScopeAll:
		if !caller.Role.IsTop() {
			return nil, dErrors.New(dErrors.CodeOrgBoundaryViolation, "cross-organization audit queries require the top role")
		}
	default:
		if caller.OrganizationID.IsNil() {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "caller has no organization")
		}
		org := caller.OrganizationID
		filter.OrganizationID = &org
	}

	entries, err := t.store.ListRecent(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read audit trail")
	}
	if t.metrics != nil {
		t.metrics.ObserveQuery(start)
	}
	return entries, nil
}

func (t *Trail) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return t.defaultLimit
	case limit > t.maxLimit:
		return t.maxLimit
	default:
		return limit
	}
}

// Clear empties the store. Administrative and test use only; callers gate it.
func (t *Trail) Clear(ctx context.Context) error {
	if err := t.store.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "clear audit trail")
	}
	if t.metrics != nil {
		t.metrics.IncClears()
	}
	if t.logger != nil {
		t.logger.WarnContext(ctx, "audit trail cleared", "request_id", requestcontext.RequestID(ctx))
	}
	return nil
}
