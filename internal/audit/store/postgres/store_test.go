package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/audit"
	"hrcore/pkg/domain"
	"hrcore/pkg/platform/sentinel"
	txcontext "hrcore/pkg/platform/tx"
)

var columns = []string{
	"id", "organization_id", "user_id", "action", "resource", "resource_id", "changes",
	"ip_address", "user_agent", "request_id", "occurred_at", "method", "url", "success", "error_message",
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestStore_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := New(db)

	entry := audit.Entry{
		ID:             "01JABCDEF",
		OrganizationID: domain.OrganizationID(uuid.New()),
		Action:         audit.ActionUpdate,
		Resource:       "leaves",
		ResourceID:     audit.StringPtr("l-1"),
		Metadata:       audit.Metadata{Timestamp: time.Now().UTC()},
		Success:        true,
	}

	t.Run("inserts one row", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO audit_log_entries").
			WithArgs(anyArgs(15)...).
			WillReturnResult(sqlmock.NewResult(1, 1))
		require.NoError(t, store.Append(context.Background(), entry))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("joins the transaction in context", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO audit_log_entries").
			WithArgs(anyArgs(15)...).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectRollback()

		tx, err := db.Begin()
		require.NoError(t, err)
		require.NoError(t, store.Append(txcontext.WithTx(context.Background(), tx), entry))
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver errors are unavailable", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO audit_log_entries").
			WithArgs(anyArgs(15)...).
			WillReturnError(errors.New("connection reset"))
		err := store.Append(context.Background(), entry)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_ListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := New(db)

	org := domain.OrganizationID(uuid.New())
	user := uuid.New()
	ts := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(columns).
		AddRow("01A", uuid.UUID(org).String(), user.String(), "UPDATE", "leaves", "l-1",
			[]byte(`{"before":{"status":"PENDING"},"after":{"status":"APPROVED"},"fields":["status"]}`),
			"10.0.0.1", "curl/8", "req-1", ts, "POST", "/leaves/l-1/approve", true, nil).
		AddRow("01B", uuid.UUID(org).String(), nil, "UPDATE", "leaves", "l-1",
			nil, "", "", "", ts, "", "", false, "invalid transition")

	mock.ExpectQuery("SELECT .* FROM \\(").
		WithArgs(uuid.UUID(org), 2).
		WillReturnRows(rows)

	got, err := store.ListRecent(context.Background(), audit.Filter{OrganizationID: &org, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, audit.EntryID("01A"), got[0].ID)
	assert.Equal(t, org, got[0].OrganizationID)
	assert.Equal(t, domain.UserID(user), got[0].UserID)
	require.NotNil(t, got[0].Changes)
	assert.Equal(t, []string{"status"}, got[0].Changes.Fields)
	assert.Equal(t, "APPROVED", got[0].Changes.After["status"])
	assert.Equal(t, "POST", got[0].Metadata.Method)
	assert.Nil(t, got[0].ErrorMessage)

	assert.True(t, got[1].UserID.IsNil())
	assert.Nil(t, got[1].Changes)
	assert.False(t, got[1].Success)
	require.NotNil(t, got[1].ErrorMessage)
	assert.Equal(t, "invalid transition", *got[1].ErrorMessage)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListByResource(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := New(db)

	mock.ExpectQuery("SELECT .* FROM audit_log_entries").
		WithArgs("leaves", "l-9").
		WillReturnError(errors.New("timeout"))

	_, err = store.ListByResource(context.Background(), "leaves", "l-9")
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Clear(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("TRUNCATE audit_log_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, New(db).Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
