package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"hrcore/pkg/domain"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()

	t.Run("caller round-trips", func(t *testing.T) {
		c := Caller{
			UserID:         domain.UserID(uuid.New()),
			OrganizationID: domain.OrganizationID(uuid.New()),
			Role:           domain.RoleManager,
			RequestID:      "req-1",
		}
		got, ok := CallerFrom(WithCaller(ctx, c))
		assert.True(t, ok)
		assert.Equal(t, c, got)
		assert.True(t, got.IsAuthenticated())

		_, ok = CallerFrom(ctx)
		assert.False(t, ok)
	})

	t.Run("caller without role is not authenticated", func(t *testing.T) {
		c := Caller{UserID: domain.UserID(uuid.New()), OrganizationID: domain.OrganizationID(uuid.New())}
		assert.False(t, c.IsAuthenticated())
	})

	t.Run("request metadata", func(t *testing.T) {
		rctx := WithHTTPRequest(WithRequestID(ctx, "abc"), "PATCH", "/employees/1/manager")
		assert.Equal(t, "abc", RequestID(rctx))
		assert.Equal(t, "PATCH", HTTPMethod(rctx))
		assert.Equal(t, "/employees/1/manager", HTTPURL(rctx))
		assert.Empty(t, HTTPMethod(ctx))
	})

	t.Run("time override", func(t *testing.T) {
		fixed := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, fixed, Now(WithTime(ctx, fixed)))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})
}
