package models

import (
	"math/rand/v2"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
)

func jan(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func newRequest(t *testing.T, start, end time.Time) (*Request, error) {
	t.Helper()
	return NewRequest(
		domain.LeaveRequestID(uuid.New()),
		domain.OrganizationID(uuid.New()),
		domain.EmployeeID(uuid.New()),
		domain.UserID(uuid.New()),
		domain.UserID(uuid.New()),
		start, end, " family ", jan(1),
	)
}

func TestCountDays(t *testing.T) {
	t.Run("single day", func(t *testing.T) {
		r, err := newRequest(t, jan(10), jan(10))
		require.NoError(t, err)
		assert.Equal(t, 1, r.Days)
	})

	t.Run("three days", func(t *testing.T) {
		r, err := newRequest(t, jan(10), jan(12))
		require.NoError(t, err)
		assert.Equal(t, 3, r.Days)
	})

	t.Run("offset plus one for any start", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))
		for range 500 {
			start := time.Date(2000+rng.IntN(60), time.Month(1+rng.IntN(12)), 1+rng.IntN(28), 0, 0, 0, 0, time.UTC)
			offset := rng.IntN(400)
			days, err := CountDays(start, start.AddDate(0, 0, offset))
			require.NoError(t, err)
			assert.Equal(t, offset+1, days, "start %s offset %d", start, offset)
		}
	})

	t.Run("offset plus one in any zone", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		rng := rand.New(rand.NewPCG(3, 4))
		for _, loc := range []*time.Location{ny, time.FixedZone("UTC+5:30", 5*3600+1800)} {
			for range 200 {
				start := time.Date(2020+rng.IntN(10), time.Month(1+rng.IntN(12)), 1+rng.IntN(28),
					rng.IntN(24), rng.IntN(60), 0, 0, loc)
				offset := rng.IntN(400)
				days, err := CountDays(start, start.Add(time.Duration(offset)*24*time.Hour))
				require.NoError(t, err)
				assert.Equal(t, offset+1, days, "start %s offset %d", start, offset)
			}
		}
	})

	t.Run("daylight saving switch does not add a day", func(t *testing.T) {
		ny, err := time.LoadLocation("America/New_York")
		require.NoError(t, err)
		start := time.Date(2026, time.March, 7, 23, 30, 0, 0, ny)
		end := time.Date(2026, time.March, 9, 0, 30, 0, 0, ny)
		require.Equal(t, 24*time.Hour, end.Sub(start))

		r, err := newRequest(t, start, end)
		require.NoError(t, err)
		assert.Equal(t, 2, r.Days)
	})

	t.Run("partial day rounds down", func(t *testing.T) {
		days, err := CountDays(jan(10), jan(11).Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, days)
	})

	t.Run("end before start is a validation error", func(t *testing.T) {
		_, err := CountDays(jan(12), jan(10))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = newRequest(t, jan(12), jan(10))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestNewRequest(t *testing.T) {
	t.Run("count follows elapsed time and dates are stored in UTC", func(t *testing.T) {
		r, err := newRequest(t, jan(10).Add(23*time.Hour), jan(11).Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, r.Days)
		assert.Equal(t, jan(10).Add(23*time.Hour), r.StartDate)
		assert.Equal(t, time.UTC, r.StartDate.Location())
		assert.Equal(t, StatusPending, r.Status)
		assert.Equal(t, "family", r.Reason)
	})

	t.Run("missing dates", func(t *testing.T) {
		_, err := newRequest(t, time.Time{}, jan(10))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("missing ids", func(t *testing.T) {
		_, err := NewRequest(domain.LeaveRequestID{}, domain.OrganizationID(uuid.New()), domain.EmployeeID(uuid.New()),
			domain.UserID(uuid.New()), domain.UserID{}, jan(1), jan(2), "", jan(1))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestStatusTransitions(t *testing.T) {
	all := []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusApproved}:   true,
		{StatusPending, StatusRejected}:   true,
		{StatusPending, StatusCancelled}:  true,
		{StatusApproved, StatusCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			r := &Request{Status: from}
			err := r.CanMoveTo(to)
			if allowed[[2]Status{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition), "%s -> %s", from, to)
		}
	}
}

func TestApply(t *testing.T) {
	reviewer := domain.UserID(uuid.New())
	now := jan(5)

	r := &Request{Status: StatusPending}
	r.ApplyRejection(reviewer, "  ", now)
	assert.Equal(t, StatusRejected, r.Status)
	assert.Nil(t, r.RejectionReason)
	require.NotNil(t, r.ReviewerID)
	assert.Equal(t, reviewer, *r.ReviewerID)

	r = &Request{Status: StatusPending}
	r.ApplyRejection(reviewer, "overlaps release", now)
	require.NotNil(t, r.RejectionReason)
	assert.Equal(t, "overlaps release", *r.RejectionReason)

	cp := r.Clone()
	*cp.RejectionReason = "changed"
	*cp.ReviewedAt = jan(6)
	assert.Equal(t, "overlaps release", *r.RejectionReason)
	assert.Equal(t, now, *r.ReviewedAt)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" approved ")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, s)

	_, err = ParseStatus("archived")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
