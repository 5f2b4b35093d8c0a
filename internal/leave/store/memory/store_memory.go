package memory

import (
	"context"
	"slices"
	"sync"

	"hrcore/internal/leave/models"
	"hrcore/pkg/domain"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
)

// InMemory stores leave requests in a map. Writes made under a tx.Journal are
// undone if the unit of work fails.
type InMemory struct {
	mu       sync.RWMutex
	requests map[domain.LeaveRequestID]*models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[domain.LeaveRequestID]*models.Request)}
}

func (s *InMemory) Create(ctx context.Context, r *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[r.ID] = r.Clone()
	if j, ok := txcontext.JournalFrom(ctx); ok {
		id := r.ID
		j.OnRollback(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.requests, id)
		})
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.LeaveRequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// ListByEmployee returns the employee's requests, oldest first.
func (s *InMemory) ListByEmployee(_ context.Context, employeeID domain.EmployeeID) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, r := range s.requests {
		if r.EmployeeID == employeeID {
			out = append(out, r.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Request) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.StartDate.Compare(b.StartDate)
	})
	return out, nil
}

// Execute loads the request, runs validate, then mutate, and stores the result,
// all under the write lock. A validate error leaves the request untouched.
func (s *InMemory) Execute(ctx context.Context, id domain.LeaveRequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := current.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.requests[id] = working

	if j, ok := txcontext.JournalFrom(ctx); ok {
		j.OnRollback(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.requests[id] = current
		})
	}
	return working.Clone(), nil
}
