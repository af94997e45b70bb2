package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecOnConn_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO quoteform`).
		WithArgs("a", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := ExecOnConn(context.Background(), db, `INSERT INTO quoteform (x, y) VALUES ($1, $2)`, "a", 1)
	require.NoError(t, err)

	rows, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())

	// The connection is back in the pool.
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestExecOnConn_ReleasesOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO resumeform`).WillReturnError(errors.New("constraint violation"))

	_, err = ExecOnConn(context.Background(), db, `INSERT INTO resumeform (x) VALUES ($1)`, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "constraint violation")
	assert.Equal(t, 0, db.Stats().InUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecOnConn_AcquireCancelled(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ExecOnConn(ctx, db, `SELECT 1`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire connection")
}

func TestMigrations_Embedded(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "migrations/001_forms.sql", ms[0].Name)
	assert.Contains(t, ms[0].SQL, "CREATE TABLE IF NOT EXISTS quoteform")
	assert.Contains(t, ms[0].SQL, "CREATE TABLE IF NOT EXISTS resumeform")
	assert.Contains(t, ms[1].SQL, "CREATE TABLE IF NOT EXISTS products")
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS quoteform`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS categories`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err := Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/001_forms.sql", "migrations/002_catalog.sql"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS quoteform`).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	_, err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_forms.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
