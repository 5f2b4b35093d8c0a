package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"hrcore/internal/hierarchy/models"
	"hrcore/pkg/domain"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
)

const uniqueViolation = "23505"

// Store persists employees. direct_report_ids crosses the driver as a text
// array literal built and parsed with pq.Array. Inside a transaction, reads
// lock the row so a concurrent guard cannot change a link between the chain
// walk and the write.
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

func (s *Store) Create(ctx context.Context, e *models.Employee) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO employees (id, organization_id, user_id, manager_id, direct_report_ids, updated_at)
		VALUES ($1, $2, $3, $4, $5::text::uuid[], $6)`,
		uuid.UUID(e.ID),
		uuid.UUID(e.OrganizationID),
		nullableUser(e.UserID),
		nullableEmployee(e.ManagerID),
		reportArray(e.DirectReportIDs),
		e.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: employee %s", sentinel.ErrConflict, e.ID)
		}
		return fmt.Errorf("%w: insert employee: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id domain.EmployeeID) (*models.Employee, error) {
	query := `SELECT id, organization_id, user_id, manager_id, direct_report_ids::text, updated_at
		FROM employees WHERE id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	e, err := scanEmployee(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find employee: %w", sentinel.ErrUnavailable, err)
	}
	return e, nil
}

func (s *Store) Save(ctx context.Context, employees ...*models.Employee) error {
	for _, e := range employees {
		res, err := s.execer(ctx).ExecContext(ctx, `
			UPDATE employees
			SET manager_id = $2, direct_report_ids = $3::text::uuid[], updated_at = $4
			WHERE id = $1`,
			uuid.UUID(e.ID),
			nullableEmployee(e.ManagerID),
			reportArray(e.DirectReportIDs),
			e.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("%w: update employee: %w", sentinel.ErrUnavailable, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: update employee: %w", sentinel.ErrUnavailable, err)
		}
		if n == 0 {
			return sentinel.ErrNotFound
		}
	}
	return nil
}

func (s *Store) ListByOrganization(ctx context.Context, org domain.OrganizationID) ([]*models.Employee, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, organization_id, user_id, manager_id, direct_report_ids::text, updated_at
		FROM employees WHERE organization_id = $1`, uuid.UUID(org))
	if err != nil {
		return nil, fmt.Errorf("%w: list employees: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []*models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate employees: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*models.Employee, error) {
	var (
		e       models.Employee
		id      uuid.UUID
		org     uuid.UUID
		user    uuid.NullUUID
		manager uuid.NullUUID
		reports []string
	)
	if err := row.Scan(&id, &org, &user, &manager, pq.Array(&reports), &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.ID = domain.EmployeeID(id)
	e.OrganizationID = domain.OrganizationID(org)
	if user.Valid {
		e.UserID = domain.UserID(user.UUID)
	}
	if manager.Valid {
		m := domain.EmployeeID(manager.UUID)
		e.ManagerID = &m
	}
	e.DirectReportIDs = make([]domain.EmployeeID, 0, len(reports))
	for _, r := range reports {
		rid, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("parse direct report id: %w", err)
		}
		e.DirectReportIDs = append(e.DirectReportIDs, domain.EmployeeID(rid))
	}
	return &e, nil
}

func reportArray(ids []domain.EmployeeID) any {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return pq.Array(out)
}

func nullableEmployee(id *domain.EmployeeID) any {
	if id == nil {
		return nil
	}
	return uuid.UUID(*id)
}

func nullableUser(id domain.UserID) any {
	if id.IsNil() {
		return nil
	}
	return uuid.UUID(id)
}
