package audit

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credstore/credstore/internal/db"
	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/logging"
)

func TestRecordInsertsEntry(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	r := NewRecorder(db.DialectMySQL, logging.New(false, true))
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return at }

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_log (id, principal_id, action, secret_id, created_at, origin) VALUES (?, ?, ?, ?, ?, ?)`)).
		WithArgs(sqlmock.AnyArg(), "user-1", "DECRYPT", "sec-1", at, "198.51.100.7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Record(context.Background(), conn, "user-1", ActionDecrypt, "sec-1", "198.51.100.7"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordDefaultsOrigin(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	r := NewRecorder(db.DialectMySQL, logging.New(false, true))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_log`)).
		WithArgs(sqlmock.AnyArg(), "user-1", "CREATE", "sec-1", sqlmock.AnyArg(), OriginUnknown).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Record(context.Background(), conn, "user-1", ActionCreate, "sec-1", ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRebindsForPostgres(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	r := NewRecorder(db.DialectPostgres, logging.New(false, true))

	mock.ExpectExec(regexp.QuoteMeta(`VALUES ($1, $2, $3, $4, $5, $6)`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Record(context.Background(), conn, "user-1", ActionUpdate, "sec-1", "cli"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordWrapsFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	r := NewRecorder(db.DialectMySQL, logging.New(false, true))
	boom := errors.New("disk full")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO audit_log`)).WillReturnError(boom)

	recordErr := r.Record(context.Background(), conn, "user-1", ActionDelete, "sec-1", "cli")
	var storeErr cserrors.StoreError
	require.ErrorAs(t, recordErr, &storeErr)
	assert.ErrorIs(t, recordErr, boom)
}
