package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/leave/models"
	"hrcore/pkg/domain"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
)

func newRequest(t *testing.T, employee domain.EmployeeID, created time.Time) *models.Request {
	t.Helper()
	r, err := models.NewRequest(
		domain.LeaveRequestID(uuid.New()),
		domain.OrganizationID(uuid.New()),
		employee,
		domain.UserID(uuid.New()),
		domain.UserID(uuid.New()),
		created, created.AddDate(0, 0, 2), "", created,
	)
	require.NoError(t, err)
	return r
}

func approve(r *models.Request) {
	r.ApplyApproval(domain.UserID(uuid.New()), time.Now())
}

func TestInMemory_Execute(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	r := newRequest(t, domain.EmployeeID(uuid.New()), time.Now())
	require.NoError(t, s.Create(ctx, r))

	t.Run("validate error leaves the request untouched", func(t *testing.T) {
		boom := errors.New("no")
		_, err := s.Execute(ctx, r.ID, func(*models.Request) error { return boom }, approve)
		assert.ErrorIs(t, err, boom)

		got, err := s.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.Execute(ctx, domain.LeaveRequestID(uuid.New()), func(*models.Request) error { return nil }, approve)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("failed unit of work restores the previous state", func(t *testing.T) {
		runner := txcontext.NewInMemory()
		boom := errors.New("audit down")
		err := runner.RunInTx(ctx, func(txCtx context.Context) error {
			updated, err := s.Execute(txCtx, r.ID, func(*models.Request) error { return nil }, approve)
			require.NoError(t, err)
			assert.Equal(t, models.StatusApproved, updated.Status)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Nil(t, got.ReviewerID)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		updated, err := s.Execute(ctx, r.ID, func(*models.Request) error { return nil }, approve)
		require.NoError(t, err)
		updated.Status = models.StatusRejected

		got, err := s.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
	})
}

func TestInMemory_ListByEmployee(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	employee := domain.EmployeeID(uuid.New())
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	later := newRequest(t, employee, base.AddDate(0, 0, 5))
	earlier := newRequest(t, employee, base)
	require.NoError(t, s.Create(ctx, later))
	require.NoError(t, s.Create(ctx, earlier))
	require.NoError(t, s.Create(ctx, newRequest(t, domain.EmployeeID(uuid.New()), base)))

	got, err := s.ListByEmployee(ctx, employee)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, earlier.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)

	assert.ErrorIs(t, s.Create(ctx, earlier), sentinel.ErrConflict)
}
