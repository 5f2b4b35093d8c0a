package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"hrcore/internal/audit"
	"hrcore/pkg/domain"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
)

// Store persists audit entries in the audit_log_entries table. The seq column
// fixes append order; queries sort on it and never on timestamps.
//
// When the context carries a *sql.Tx, Append joins it so an entry commits or
// rolls back together with the mutation it records.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const entryColumns = `id, organization_id, user_id, action, resource, resource_id, changes,
	ip_address, user_agent, request_id, occurred_at, method, url, success, error_message`

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	var changes []byte
	if entry.Changes != nil {
		var err error
		changes, err = json.Marshal(entry.Changes)
		if err != nil {
			return fmt.Errorf("marshal audit changes: %w", err)
		}
	}

	var userID *uuid.UUID
	if !entry.UserID.IsNil() {
		uid := uuid.UUID(entry.UserID)
		userID = &uid
	}

	query := `INSERT INTO audit_log_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		string(entry.ID),
		uuid.UUID(entry.OrganizationID),
		userID,
		string(entry.Action),
		entry.Resource,
		entry.ResourceID,
		changes,
		entry.Metadata.IPAddress,
		entry.Metadata.UserAgent,
		entry.Metadata.RequestID,
		entry.Metadata.Timestamp,
		entry.Metadata.Method,
		entry.Metadata.URL,
		entry.Success,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("%w: insert audit entry: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) ListByResource(ctx context.Context, resource, resourceID string) ([]audit.Entry, error) {
	query := `SELECT ` + entryColumns + `
		FROM audit_log_entries
		WHERE resource = $1 AND resource_id = $2
		ORDER BY seq ASC`
	rows, err := s.execer(ctx).QueryContext(ctx, query, resource, resourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: query audit entries: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListRecent selects the newest rows by seq, then flips them back to append order.
// A NULL limit is unbounded in Postgres.
func (s *Store) ListRecent(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	var org any
	if filter.OrganizationID != nil {
		org = uuid.UUID(*filter.OrganizationID)
	}
	var limit any
	if filter.Limit > 0 {
		limit = filter.Limit
	}

	query := `SELECT ` + entryColumns + ` FROM (
			SELECT seq, ` + entryColumns + `
			FROM audit_log_entries
			WHERE $1::uuid IS NULL OR organization_id = $1::uuid
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC`
	rows, err := s.execer(ctx).QueryContext(ctx, query, org, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query audit entries: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.execer(ctx).ExecContext(ctx, `TRUNCATE audit_log_entries RESTART IDENTITY`); err != nil {
		return fmt.Errorf("%w: truncate audit entries: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			e            audit.Entry
			id           string
			orgID        uuid.UUID
			userID       uuid.NullUUID
			action       string
			resourceID   sql.NullString
			changes      []byte
			errorMessage sql.NullString
		)
		err := rows.Scan(
			&id,
			&orgID,
			&userID,
			&action,
			&e.Resource,
			&resourceID,
			&changes,
			&e.Metadata.IPAddress,
			&e.Metadata.UserAgent,
			&e.Metadata.RequestID,
			&e.Metadata.Timestamp,
			&e.Metadata.Method,
			&e.Metadata.URL,
			&e.Success,
			&errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		e.ID = audit.EntryID(id)
		e.OrganizationID = domain.OrganizationID(orgID)
		if userID.Valid {
			e.UserID = domain.UserID(userID.UUID)
		}
		e.Action = audit.Action(action)
		e.Metadata.Timestamp = e.Metadata.Timestamp.UTC()
		if resourceID.Valid {
			e.ResourceID = audit.StringPtr(resourceID.String)
		}
		if errorMessage.Valid {
			e.ErrorMessage = audit.StringPtr(errorMessage.String)
		}
		if len(changes) > 0 {
			var c audit.Changes
			if err := json.Unmarshal(changes, &c); err != nil {
				return nil, fmt.Errorf("decode audit changes: %w", err)
			}
			e.Changes = &c
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate audit entries: %w", sentinel.ErrUnavailable, err)
	}
	return entries, nil
}
