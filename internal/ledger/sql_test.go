package ledger

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozaktomas/face-attendance/internal/config"
)

func newMock(t *testing.T, driver string) (*SQLLedger, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l, err := New(db, driver)
	require.NoError(t, err)
	return l, mock
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, config.DriverPostgres)
	assert.Error(t, err)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = New(db, "oracle")
	assert.Error(t, err)
}

func TestAppend_PostgresUsesReturning(t *testing.T) {
	l, mock := newMock(t, config.DriverPostgres)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	mock.ExpectQuery(regexp.QuoteMeta(insertPostgres)).
		WithArgs("alice@x.com", "math101", fixed).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	rec, err := l.Append(context.Background(), "alice@x.com", "math101")
	require.NoError(t, err)
	assert.Equal(t, Record{ID: 42, Email: "alice@x.com", ClassName: "math101", Timestamp: fixed}, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_MySQLUsesLastInsertID(t *testing.T) {
	l, mock := newMock(t, config.DriverMySQL)

	mock.ExpectExec(regexp.QuoteMeta(insertDefault)).
		WithArgs("alice@x.com", "math101", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	rec, err := l.Append(context.Background(), "alice@x.com", "math101")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)
	assert.False(t, rec.Timestamp.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_Errors(t *testing.T) {
	l, mock := newMock(t, config.DriverPostgres)
	mock.ExpectQuery(regexp.QuoteMeta(insertPostgres)).
		WillReturnError(errors.New("connection reset"))

	_, err := l.Append(context.Background(), "alice@x.com", "math101")
	assert.ErrorContains(t, err, "connection reset")

	l, mock = newMock(t, config.DriverSQLite)
	mock.ExpectExec(regexp.QuoteMeta(insertDefault)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("no id")))

	_, err = l.Append(context.Background(), "alice@x.com", "math101")
	assert.ErrorContains(t, err, "no id")
}

func TestListAll_ScansRowsInOrder(t *testing.T) {
	l, mock := newMock(t, config.DriverPostgres)
	t1 := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "class_name", "created_at"}).
			AddRow(int64(1), "alice@x.com", "math101", t1).
			AddRow(int64(2), "bob@x.com", "physics", t2))

	records, err := l.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, Record{ID: 1, Email: "alice@x.com", ClassName: "math101", Timestamp: t1}, records[0])
	assert.Equal(t, Record{ID: 2, Email: "bob@x.com", ClassName: "physics", Timestamp: t2}, records[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAll_Errors(t *testing.T) {
	l, mock := newMock(t, config.DriverPostgres)
	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).WillReturnError(sql.ErrConnDone)

	_, err := l.ListAll(context.Background())
	assert.ErrorIs(t, err, sql.ErrConnDone)

	l, mock = newMock(t, config.DriverPostgres)
	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "class_name", "created_at"}).
			AddRow("not-a-number", "alice@x.com", "math101", time.Now()))

	_, err = l.ListAll(context.Background())
	assert.ErrorContains(t, err, "scanning")

	l, mock = newMock(t, config.DriverPostgres)
	mock.ExpectQuery(regexp.QuoteMeta(selectAll)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "class_name", "created_at"}).
			AddRow(int64(1), "alice@x.com", "math101", time.Now()).
			RowError(0, errors.New("broken pipe")))

	_, err = l.ListAll(context.Background())
	assert.ErrorContains(t, err, "broken pipe")
}

func TestClose(t *testing.T) {
	l, mock := newMock(t, config.DriverPostgres)
	mock.ExpectClose()

	require.NoError(t, l.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
