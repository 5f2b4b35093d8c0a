package models

import (
	"strings"
	"time"

	"hrcore/pkg/domain"
	dErrors "hrcore/pkg/domain-errors"
)

// Status is the lifecycle state of a leave request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown leave status %q", s)
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
// REJECTED and CANCELLED are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

const day = 24 * time.Hour

// CountDays returns the inclusive number of days between start and end:
// floor((end-start)/24h)+1 on the elapsed time, so zones and DST shifts do not
// change the count.
func CountDays(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, dErrors.New(dErrors.CodeValidation, "end date must not be before start date")
	}
	days := int(end.Sub(start)/day) + 1
	// Clamp kept for the minimum of one day; unreachable once end >= start.
	return max(days, 1), nil
}

// Request is one leave request.
//
// Invariants:
//   - EndDate >= StartDate, both stored in UTC
//   - Days is the inclusive day count of the dates, computed here and never
//     accepted from input
//   - Status only moves along the transitions CanTransitionTo allows
//
// RequesterID is the user account of the employee on leave and is the owner
// checked for self-access. CreatedBy is whoever filed it.
type Request struct {
	ID              domain.LeaveRequestID `json:"id"`
	OrganizationID  domain.OrganizationID `json:"organization_id"`
	EmployeeID      domain.EmployeeID     `json:"employee_id"`
	RequesterID     domain.UserID         `json:"requester_id"`
	CreatedBy       domain.UserID         `json:"created_by"`
	StartDate       time.Time             `json:"start_date"`
	EndDate         time.Time             `json:"end_date"`
	Days            int                   `json:"days"`
	Status          Status                `json:"status"`
	Reason          string                `json:"reason,omitempty"`
	ReviewerID      *domain.UserID        `json:"reviewer_id,omitempty"`
	ReviewedAt      *time.Time            `json:"reviewed_at,omitempty"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewRequest validates the dates and builds a PENDING request.
// Start and end keep their instant and are stored in UTC.
func NewRequest(
	id domain.LeaveRequestID,
	org domain.OrganizationID,
	employee domain.EmployeeID,
	requester, createdBy domain.UserID,
	start, end time.Time,
	reason string,
	now time.Time,
) (*Request, error) {
	if id.IsNil() || org.IsNil() || employee.IsNil() || requester.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "leave request requires id, organization, employee and requester")
	}
	if start.IsZero() || end.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "start and end dates are required")
	}
	if len(reason) > 1000 {
		return nil, dErrors.New(dErrors.CodeValidation, "reason must be 1000 characters or less")
	}
	start, end = start.UTC(), end.UTC()
	days, err := CountDays(start, end)
	if err != nil {
		return nil, err
	}
	return &Request{
		ID:             id,
		OrganizationID: org,
		EmployeeID:     employee,
		RequesterID:    requester,
		CreatedBy:      createdBy,
		StartDate:      start,
		EndDate:        end,
		Days:           days,
		Status:         StatusPending,
		Reason:         strings.TrimSpace(reason),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanMoveTo checks the transition without applying it.
func (r *Request) CanMoveTo(next Status) error {
	if !r.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot move leave request from %s to %s", r.Status, next)
	}
	return nil
}

// ApplyApproval records the approval. Call CanMoveTo(StatusApproved) first.
func (r *Request) ApplyApproval(reviewer domain.UserID, now time.Time) {
	r.Status = StatusApproved
	r.review(reviewer, now)
}

// ApplyRejection records the rejection with an optional reason.
// Call CanMoveTo(StatusRejected) first.
func (r *Request) ApplyRejection(reviewer domain.UserID, reason string, now time.Time) {
	r.Status = StatusRejected
	r.review(reviewer, now)
	if reason = strings.TrimSpace(reason); reason != "" {
		r.RejectionReason = &reason
	}
}

// ApplyCancellation cancels the request. Call CanMoveTo(StatusCancelled) first.
func (r *Request) ApplyCancellation(now time.Time) {
	r.Status = StatusCancelled
	r.UpdatedAt = now
}

func (r *Request) review(reviewer domain.UserID, now time.Time) {
	id := reviewer
	at := now
	r.ReviewerID = &id
	r.ReviewedAt = &at
	r.UpdatedAt = now
}

// Clone returns a deep copy.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := *r
	if r.ReviewerID != nil {
		id := *r.ReviewerID
		out.ReviewerID = &id
	}
	if r.ReviewedAt != nil {
		at := *r.ReviewedAt
		out.ReviewedAt = &at
	}
	if r.RejectionReason != nil {
		reason := *r.RejectionReason
		out.RejectionReason = &reason
	}
	return &out
}
