package models

import (
	"slices"
	"time"

	"hrcore/pkg/domain"
)

// Employee is one node of an organization's reporting graph.
//
// Invariants:
//   - the manager graph is acyclic; an employee never manages themselves
//   - links are bidirectional: Y is in X.DirectReportIDs iff Y.ManagerID == X
//   - an employee and their manager belong to the same organization
//
// Only the hierarchy guard mutates ManagerID and DirectReportIDs.
type Employee struct {
	ID              domain.EmployeeID     `json:"id"`
	OrganizationID  domain.OrganizationID `json:"organization_id"`
	UserID          domain.UserID         `json:"user_id"`
	ManagerID       *domain.EmployeeID    `json:"manager_id,omitempty"`
	DirectReportIDs []domain.EmployeeID   `json:"direct_report_ids"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot reach stored state.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	out := *e
	if e.ManagerID != nil {
		m := *e.ManagerID
		out.ManagerID = &m
	}
	out.DirectReportIDs = slices.Clone(e.DirectReportIDs)
	if out.DirectReportIDs == nil {
		out.DirectReportIDs = []domain.EmployeeID{}
	}
	return &out
}

// HasManager reports whether the employee currently reports to managerID.
func (e *Employee) HasManager(managerID domain.EmployeeID) bool {
	return e.ManagerID != nil && *e.ManagerID == managerID
}

// HasDirectReport reports whether reportID is listed as a direct report.
func (e *Employee) HasDirectReport(reportID domain.EmployeeID) bool {
	return slices.Contains(e.DirectReportIDs, reportID)
}

// AddDirectReport lists reportID once.
func (e *Employee) AddDirectReport(reportID domain.EmployeeID, now time.Time) {
	if !e.HasDirectReport(reportID) {
		e.DirectReportIDs = append(e.DirectReportIDs, reportID)
	}
	e.UpdatedAt = now
}

// RemoveDirectReport drops reportID if present.
func (e *Employee) RemoveDirectReport(reportID domain.EmployeeID, now time.Time) {
	e.DirectReportIDs = slices.DeleteFunc(e.DirectReportIDs, func(id domain.EmployeeID) bool {
		return id == reportID
	})
	e.UpdatedAt = now
}

// AssignManager points the employee at managerID.
func (e *Employee) AssignManager(managerID domain.EmployeeID, now time.Time) {
	m := managerID
	e.ManagerID = &m
	e.UpdatedAt = now
}

// ClearManager detaches the employee from any manager.
func (e *Employee) ClearManager(now time.Time) {
	e.ManagerID = nil
	e.UpdatedAt = now
}

// Snapshot is the audit view of an employee's reporting links.
func (e *Employee) Snapshot() map[string]any {
	reports := make([]any, 0, len(e.DirectReportIDs))
	for _, id := range e.DirectReportIDs {
		reports = append(reports, id.String())
	}
	var manager any
	if e.ManagerID != nil {
		manager = e.ManagerID.String()
	}
	return map[string]any{
		"manager_id":        manager,
		"direct_report_ids": reports,
	}
}
