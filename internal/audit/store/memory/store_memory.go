package memory

import (
	"context"
	"sync"

	"hrcore/internal/audit"
)

// InMemoryStore keeps entries in a single append-ordered slice. Appends take the
// write lock, so concurrent callers never lose or tear an entry.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(ctx context.Context, entry audit.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry.Clone())
	return nil
}

func (s *InMemoryStore) ListByResource(_ context.Context, resource, resourceID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for i := range s.entries {
		e := &s.entries[i]
		if e.Resource != resource {
			continue
		}
		if e.ResourceID == nil || *e.ResourceID != resourceID {
			continue
		}
		out = append(out, e.Clone())
	}
	return out, nil
}

// ListRecent walks backwards to collect the newest matches, then restores append order.
func (s *InMemoryStore) ListRecent(_ context.Context, filter audit.Filter) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
		e := &s.entries[i]
		if filter.OrganizationID != nil && e.OrganizationID != *filter.OrganizationID {
			continue
		}
		out = append(out, e.Clone())
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// Len reports the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
