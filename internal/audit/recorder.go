package audit

import (
	"context"

	"hrcore/pkg/domain"
	"hrcore/pkg/requestcontext"
)

// Mutation describes one attempted change for Record.
// OrganizationID is the tenant owning the resource; it falls back to the caller's.
type Mutation struct {
	Action         Action
	Resource       string
	ResourceID     string
	OrganizationID domain.OrganizationID
	Changes        *Changes
}

// Record appends the entry for m. A nil outcome records success; otherwise the
// entry is marked failed and carries the outcome's message.
func (t *Trail) Record(ctx context.Context, caller requestcontext.Caller, m Mutation, outcome error) (EntryID, error) {
	return t.Append(ctx, EntryFor(ctx, caller, m, outcome))
}

// EntryFor builds the entry Record would append.
func EntryFor(ctx context.Context, caller requestcontext.Caller, m Mutation, outcome error) Entry {
	org := m.OrganizationID
	if org.IsNil() {
		org = caller.OrganizationID
	}
	requestID := caller.RequestID
	if requestID == "" {
		requestID = requestcontext.RequestID(ctx)
	}

	e := Entry{
		OrganizationID: org,
		UserID:         caller.UserID,
		Action:         m.Action,
		Resource:       m.Resource,
		Changes:        m.Changes,
		Metadata: Metadata{
			IPAddress: caller.IPAddress,
			UserAgent: caller.UserAgent,
			RequestID: requestID,
			Timestamp: requestcontext.Now(ctx),
			Method:    requestcontext.HTTPMethod(ctx),
			URL:       requestcontext.HTTPURL(ctx),
		},
		Success: outcome == nil,
	}
	if m.ResourceID != "" {
		e.ResourceID = StringPtr(m.ResourceID)
	}
	if outcome != nil {
		e.ErrorMessage = StringPtr(outcome.Error())
	}
	return e
}
