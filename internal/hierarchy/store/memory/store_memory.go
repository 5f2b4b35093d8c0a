package memory

import (
	"context"
	"sync"

	"hrcore/internal/hierarchy/models"
	"hrcore/pkg/domain"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
)

// InMemory stores employees in a map. Writes made under a tx.Journal are undone
// if the unit of work fails.
type InMemory struct {
	mu        sync.RWMutex
	employees map[domain.EmployeeID]*models.Employee
}

func NewInMemory() *InMemory {
	return &InMemory{employees: make(map[domain.EmployeeID]*models.Employee)}
}

func (s *InMemory) Create(ctx context.Context, e *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.employees[e.ID]; exists {
		return sentinel.ErrConflict
	}
	s.employees[e.ID] = e.Clone()
	if j, ok := txcontext.JournalFrom(ctx); ok {
		id := e.ID
		j.OnRollback(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.employees, id)
		})
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.EmployeeID) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.Clone(), nil
}

// Save replaces every given employee in one step. All must already exist.
func (s *InMemory) Save(ctx context.Context, employees ...*models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range employees {
		if _, ok := s.employees[e.ID]; !ok {
			return sentinel.ErrNotFound
		}
	}

	previous := make([]*models.Employee, 0, len(employees))
	for _, e := range employees {
		previous = append(previous, s.employees[e.ID])
		s.employees[e.ID] = e.Clone()
	}

	if j, ok := txcontext.JournalFrom(ctx); ok {
		j.OnRollback(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, p := range previous {
				s.employees[p.ID] = p
			}
		})
	}
	return nil
}

// ListByOrganization returns every employee of org, unordered.
func (s *InMemory) ListByOrganization(_ context.Context, org domain.OrganizationID) ([]*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Employee
	for _, e := range s.employees {
		if e.OrganizationID == org {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}
