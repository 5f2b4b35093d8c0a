package audit

import (
	"context"

	"hrcore/pkg/domain"
)

// Filter narrows ListRecent. A nil OrganizationID spans every tenant.
// Limit <= 0 means no limit.
type Filter struct {
	OrganizationID *domain.OrganizationID
	Limit          int
}

// Store persists entries. Implementations must:
//   - keep entries in append order and never reorder or drop them
//   - copy on Append and on every read
//   - return sentinel.ErrUnavailable (wrapped) when the backend cannot be reached
//
// ListRecent returns the newest Limit matching entries, oldest first.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByResource(ctx context.Context, resource, resourceID string) ([]Entry, error)
	ListRecent(ctx context.Context, filter Filter) ([]Entry, error)
	Clear(ctx context.Context) error
}
