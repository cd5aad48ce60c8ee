package main

import (
	"errors"
	"io/fs"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func stubRunner(t *testing.T, fail error) *[]string {
	t.Helper()
	var calls []string
	orig := runMigrations
	runMigrations = func(db *sqlx.DB, fsys fs.FS, command string) error {
		calls = append(calls, command)
		return fail
	}
	t.Cleanup(func() { runMigrations = orig })
	return &calls
}

func newCLI(t *testing.T) (*commandLine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &commandLine{db: sqlx.NewDb(db, "sqlmock"), fs: fstest.MapFS{}, log: zap.NewNop()}, mock
}

func TestRunRejectsMissingAndUnknownCommands(t *testing.T) {
	calls := stubRunner(t, nil)
	cli, _ := newCLI(t)

	assert.ErrorIs(t, cli.run([]string{"migrate"}), errUsage)
	assert.ErrorIs(t, cli.run([]string{"migrate", "help"}), errUsage)
	err := cli.run([]string{"migrate", "sideways"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "sideways"`)
	assert.Empty(t, *calls)
}

func TestRunDownSkipsKeyCheck(t *testing.T) {
	calls := stubRunner(t, nil)
	cli, mock := newCLI(t)

	require.NoError(t, cli.run([]string{"migrate", "DOWN"}))
	assert.Equal(t, []string{"down"}, *calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunUpVerifiesUniqueKeys(t *testing.T) {
	stubRunner(t, nil)
	cli, mock := newCLI(t)

	rows := sqlmock.NewRows([]string{"indexname"}).
		AddRow("attendance_student_date_key").
		AddRow("marks_student_date_key")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT indexname FROM pg_indexes")).WillReturnRows(rows)

	err := cli.run([]string{"migrate", "up"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presentations_student_date_key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunPropagatesMigrationFailure(t *testing.T) {
	stubRunner(t, errors.New("duplicate attendance rows"))
	cli, _ := newCLI(t)

	err := cli.run([]string{"migrate", "up"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate attendance rows")
}
