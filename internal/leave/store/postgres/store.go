package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"hrcore/internal/leave/models"
	"hrcore/pkg/domain"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
)

const uniqueViolation = "23505"

const selectColumns = `id, organization_id, employee_id, requester_id, created_by, start_date, end_date,
	days, status, reason, reviewer_id, reviewed_at, rejection_reason, created_at, updated_at`

// Store persists leave requests. Execute locks the row with SELECT ... FOR
// UPDATE so validation and mutation see the same state.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Create(ctx context.Context, r *models.Request) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO leave_requests (`+selectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(r.ID),
		uuid.UUID(r.OrganizationID),
		uuid.UUID(r.EmployeeID),
		uuid.UUID(r.RequesterID),
		uuid.UUID(r.CreatedBy),
		r.StartDate,
		r.EndDate,
		r.Days,
		string(r.Status),
		r.Reason,
		nullableUser(r.ReviewerID),
		r.ReviewedAt,
		r.RejectionReason,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: leave request %s", sentinel.ErrConflict, r.ID)
		}
		return fmt.Errorf("%w: insert leave request: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.LeaveRequestID) (*models.Request, error) {
	return s.find(ctx, id, false)
}

func (s *Store) find(ctx context.Context, id domain.LeaveRequestID, lock bool) (*models.Request, error) {
	query := `SELECT ` + selectColumns + ` FROM leave_requests WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	r, err := scanRequest(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find leave request: %w", sentinel.ErrUnavailable, err)
	}
	return r, nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID domain.EmployeeID) ([]*models.Request, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM leave_requests WHERE employee_id = $1 ORDER BY created_at, start_date`,
		uuid.UUID(employeeID))
	if err != nil {
		return nil, fmt.Errorf("%w: list leave requests: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate leave requests: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

// Execute runs validate and mutate against the locked row and writes it back.
// It joins the transaction in ctx or opens its own.
func (s *Store) Execute(ctx context.Context, id domain.LeaveRequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	if _, ok := txcontext.From(ctx); ok {
		return s.execute(ctx, id, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", sentinel.ErrUnavailable, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	r, err := s.execute(txcontext.WithTx(ctx, tx), id, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", sentinel.ErrUnavailable, err)
	}
	return r, nil
}

func (s *Store) execute(ctx context.Context, id domain.LeaveRequestID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	r, err := s.find(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)

	_, err = s.execer(ctx).ExecContext(ctx, `
		UPDATE leave_requests
		SET status = $2, reviewer_id = $3, reviewed_at = $4, rejection_reason = $5, updated_at = $6
		WHERE id = $1`,
		uuid.UUID(r.ID),
		string(r.Status),
		nullableUser(r.ReviewerID),
		r.ReviewedAt,
		r.RejectionReason,
		r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: update leave request: %w", sentinel.ErrUnavailable, err)
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		r                                    models.Request
		id, org, employee, requester, author uuid.UUID
		reviewer                             uuid.NullUUID
		status                               string
		reviewedAt                           sql.NullTime
		rejection                            sql.NullString
	)
	if err := row.Scan(&id, &org, &employee, &requester, &author, &r.StartDate, &r.EndDate,
		&r.Days, &status, &r.Reason, &reviewer, &reviewedAt, &rejection, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = domain.LeaveRequestID(id)
	r.OrganizationID = domain.OrganizationID(org)
	r.EmployeeID = domain.EmployeeID(employee)
	r.RequesterID = domain.UserID(requester)
	r.CreatedBy = domain.UserID(author)
	r.StartDate = r.StartDate.UTC()
	r.EndDate = r.EndDate.UTC()

	st, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	r.Status = st
	if reviewer.Valid {
		u := domain.UserID(reviewer.UUID)
		r.ReviewerID = &u
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		r.ReviewedAt = &t
	}
	if rejection.Valid {
		s := rejection.String
		r.RejectionReason = &s
	}
	return &r, nil
}

func nullableUser(id *domain.UserID) any {
	if id == nil {
		return nil
	}
	return uuid.UUID(*id)
}
