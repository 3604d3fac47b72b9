package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testMigrations = fstest.MapFS{
	"001_accounts.up.sql":   {Data: []byte("CREATE TABLE accounts (id UUID PRIMARY KEY);")},
	"001_accounts.down.sql": {Data: []byte("DROP TABLE accounts;")},
	"002_index.up.sql":      {Data: []byte("CREATE INDEX idx_accounts_email ON accounts (email);")},
}

func expectTrackingTable(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
}

func expectApplied(mock pgxmock.PgxPoolIface, name string, applied bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)")).
		WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(applied))
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectTrackingTable(mock)
	expectApplied(mock, "001_accounts.up.sql", true)
	expectApplied(mock, "002_index.up.sql", false)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX idx_accounts_email")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")).
		WithArgs("002_index.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, testMigrations, discardLogger()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectTrackingTable(mock)
	expectApplied(mock, "001_accounts.up.sql", false)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE accounts")).
		WillReturnError(errors.New("syntax error at or near \"TABLE\""))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, testMigrations, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 001_accounts.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
