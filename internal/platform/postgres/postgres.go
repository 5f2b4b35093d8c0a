// Package postgres opens the shared database handle, applies the schema, and
// runs units of work in SQL transactions.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects through the pgx stdlib driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id                UUID PRIMARY KEY,
	organization_id   UUID NOT NULL,
	user_id           UUID,
	manager_id        UUID REFERENCES employees(id),
	direct_report_ids UUID[] NOT NULL DEFAULT '{}',
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (manager_id IS NULL OR manager_id <> id)
);
CREATE INDEX IF NOT EXISTS employees_org_idx ON employees (organization_id);

CREATE TABLE IF NOT EXISTS leave_requests (
	id               UUID PRIMARY KEY,
	organization_id  UUID NOT NULL,
	employee_id      UUID NOT NULL,
	requester_id     UUID NOT NULL,
	created_by       UUID NOT NULL,
	start_date       TIMESTAMPTZ NOT NULL,
	end_date         TIMESTAMPTZ NOT NULL,
	days             INTEGER NOT NULL CHECK (days >= 1),
	status           TEXT NOT NULL,
	reason           TEXT NOT NULL DEFAULT '',
	reviewer_id      UUID,
	reviewed_at      TIMESTAMPTZ,
	rejection_reason TEXT,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	CHECK (end_date >= start_date)
);
CREATE INDEX IF NOT EXISTS leave_requests_employee_idx ON leave_requests (employee_id, created_at);

CREATE TABLE IF NOT EXISTS audit_log_entries (
	seq             BIGSERIAL PRIMARY KEY,
	id              TEXT NOT NULL UNIQUE,
	organization_id UUID NOT NULL,
	user_id         UUID,
	action          TEXT NOT NULL,
	resource        TEXT NOT NULL,
	resource_id     TEXT,
	changes         JSONB,
	ip_address      TEXT NOT NULL DEFAULT '',
	user_agent      TEXT NOT NULL DEFAULT '',
	request_id      TEXT NOT NULL DEFAULT '',
	occurred_at     TIMESTAMPTZ NOT NULL,
	method          TEXT NOT NULL DEFAULT '',
	url             TEXT NOT NULL DEFAULT '',
	success         BOOLEAN NOT NULL,
	error_message   TEXT
);
CREATE INDEX IF NOT EXISTS audit_log_entries_resource_idx ON audit_log_entries (resource, resource_id, seq);
CREATE INDEX IF NOT EXISTS audit_log_entries_org_idx ON audit_log_entries (organization_id, seq);
`

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
