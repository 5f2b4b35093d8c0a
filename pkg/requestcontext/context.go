// Package requestcontext provides HTTP-independent accessors for request-scoped values.
//
// The upstream identity layer builds one Caller per inbound call. Services receive
// it as an explicit argument; middleware may also stash it in the context so
// handlers can retrieve it:
//
//	ctx = requestcontext.WithCaller(ctx, caller)
//	caller, ok := requestcontext.CallerFrom(ctx)
//
// Request metadata used for audit entries (method, URL, request time) travels in
// the context as well:
//
//	ctx = requestcontext.WithHTTPRequest(ctx, r.Method, r.URL.String())
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	"hrcore/pkg/domain"
)

// Caller identifies who is making a request. It is read-only downstream and is
// never persisted on its own; audit entries copy the fields they need.
type Caller struct {
	UserID         domain.UserID
	OrganizationID domain.OrganizationID
	Role           domain.Role
	RequestID      string
	IPAddress      string
	UserAgent      string
}

// IsAuthenticated reports whether the caller carries the identity fields every
// authorization decision needs.
func (c Caller) IsAuthenticated() bool {
	return !c.UserID.IsNil() && !c.OrganizationID.IsNil() && c.Role.IsValid()
}

type (
	callerKey      struct{}
	requestIDKey   struct{}
	httpMethodKey  struct{}
	httpURLKey     struct{}
	requestTimeKey struct{}
)

// WithCaller injects the caller into the context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom retrieves the caller from the context.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// WithHTTPRequest records the inbound method and URL for audit metadata.
func WithHTTPRequest(ctx context.Context, method, url string) context.Context {
	ctx = context.WithValue(ctx, httpMethodKey{}, method)
	return context.WithValue(ctx, httpURLKey{}, url)
}

// HTTPMethod returns the inbound method, or "" outside HTTP requests.
func HTTPMethod(ctx context.Context) string {
	m, _ := ctx.Value(httpMethodKey{}).(string)
	return m
}

// HTTPURL returns the inbound URL, or "" outside HTTP requests.
func HTTPURL(ctx context.Context) string {
	u, _ := ctx.Value(httpURLKey{}).(string)
	return u
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
