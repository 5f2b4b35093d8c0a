// Package audit records an append-only trail of attempted mutations.
//
// Every mutating call that passes authorization produces exactly one Entry,
// whether it succeeds or fails. Entries are immutable once appended: stores hand
// out deep copies, so a caller changing a returned Entry never affects a later
// query. The only removal path is Clear, reserved for administrative resets.
package audit

import (
	"time"

	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
)

// EntryID identifies an audit entry. IDs are ULIDs, so their lexical order
// follows append order within a process.
type EntryID string

func (id EntryID) String() string { return string(id) }

// Action is the kind of mutation recorded.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Changes captures the state of the touched records before and after the
// mutation. Fields lists the top-level keys whose values differ, sorted.
type Changes struct {
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`
	Fields []string       `json:"fields,omitempty"`
}

// Metadata is copied from the caller and the inbound request.
type Metadata struct {
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// Entry is one immutable record of an attempted mutation.
type Entry struct {
	ID             EntryID               `json:"id"`
	OrganizationID domain.OrganizationID `json:"organization_id"`
	UserID         domain.UserID         `json:"user_id"`
	Action         Action                `json:"action"`
	Resource       string                `json:"resource"`
	ResourceID     *string               `json:"resource_id,omitempty"`
	Changes        *Changes              `json:"changes,omitempty"`
	Metadata       Metadata              `json:"metadata"`
	Success        bool                  `json:"success"`
	ErrorMessage   *string               `json:"error_message,omitempty"`
}

func (e *Entry) validate() error {
	if !e.Action.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "invalid audit action %q", e.Action)
	}
	if e.Resource == "" {
		return dErrors.New(dErrors.CodeValidation, "audit resource is required")
	}
	if e.OrganizationID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "audit organization is required")
	}
	if !e.Success && (e.ErrorMessage == nil || *e.ErrorMessage == "") {
		return dErrors.New(dErrors.CodeValidation, "failed audit entry requires an error message")
	}
	return nil
}

// Clone returns a deep copy of e. Stores call it on the way in and on the way out.
func (e Entry) Clone() Entry {
	out := e
	if e.ResourceID != nil {
		v := *e.ResourceID
		out.ResourceID = &v
	}
	if e.ErrorMessage != nil {
		v := *e.ErrorMessage
		out.ErrorMessage = &v
	}
	if e.Changes != nil {
		c := e.Changes.clone()
		out.Changes = &c
	}
	return out
}

// CloneEntries deep-copies a slice of entries.
func CloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i := range entries {
		out[i] = entries[i].Clone()
	}
	return out
}

// StringPtr is a convenience for optional entry fields.
func StringPtr(s string) *string { return &s }
