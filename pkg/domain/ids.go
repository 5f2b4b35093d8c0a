package domain

import (
	"github.com/google/uuid"

	dErrors "hrcore/pkg/domain-errors"
)

// Typed identifiers keep user, organization, employee and leave request IDs from
// being swapped by accident. All are UUIDs; the nil UUID is never a valid ID.
type (
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	EmployeeID     uuid.UUID
	LeaveRequestID uuid.UUID
)

func parseID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return parsed, nil
}

// ParseUserID parses external input into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseID("user_id", s)
	return UserID(u), err
}

// ParseOrganizationID parses external input into an OrganizationID.
func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseID("organization_id", s)
	return OrganizationID(u), err
}

// ParseEmployeeID parses external input into an EmployeeID.
func ParseEmployeeID(s string) (EmployeeID, error) {
	u, err := parseID("employee_id", s)
	return EmployeeID(u), err
}

// ParseLeaveRequestID parses external input into a LeaveRequestID.
func ParseLeaveRequestID(s string) (LeaveRequestID, error) {
	u, err := parseID("leave_request_id", s)
	return LeaveRequestID(u), err
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id OrganizationID) String() string { return uuid.UUID(id).String() }
func (id OrganizationID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id EmployeeID) String() string { return uuid.UUID(id).String() }
func (id EmployeeID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id LeaveRequestID) String() string { return uuid.UUID(id).String() }
func (id LeaveRequestID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id OrganizationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id EmployeeID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id LeaveRequestID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *OrganizationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EmployeeID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *LeaveRequestID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
