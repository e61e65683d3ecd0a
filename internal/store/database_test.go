package store

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
)

func TestOpen_DefaultsToInMemorySQLite(t *testing.T) {
	// Given: no driver or DSN
	ctx := context.Background()

	// When: opening the database
	db, err := Open(ctx, "", "")
	require.NoError(t, err)
	defer db.Close()

	// Then: the pure-Go driver is used and answers SELECT 1
	assert.Equal(t, DefaultDriver, db.Driver())
	v, err := db.QueryInt(ctx, "SELECT 1 AS test_value")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	assert.NotEmpty(t, db.Version(ctx))
}

func TestOpen_BothDrivers(t *testing.T) {
	for _, driver := range []string{"sqlite", "sqlite3"} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			dsn := filepath.Join(t.TempDir(), "check.db")

			db, err := Open(ctx, driver, dsn)
			require.NoError(t, err)
			defer db.Close()

			v, err := db.QueryInt(ctx, "SELECT 40 + 2")
			require.NoError(t, err)
			assert.Equal(t, int64(42), v)
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	// When: opening with a driver that is not linked
	db, err := Open(context.Background(), "duckdb-not-linked", MemoryDSN)

	// Then: a connection error is returned
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Equal(t, enverrors.ErrCodeConnectionFailed, enverrors.GetCode(err))

	envErr, ok := enverrors.As(err)
	require.True(t, ok)
	assert.Contains(t, envErr.Suggestion, "sqlite")
}

func TestOpen_UnreachableFile(t *testing.T) {
	// Given: a DSN inside a directory that does not exist
	dsn := filepath.Join(t.TempDir(), "missing", "dir", "x.db")

	// When: opening
	_, err := Open(context.Background(), DefaultDriver, dsn)

	// Then: the ping fails with a connection error
	require.Error(t, err)
	assert.Equal(t, enverrors.ErrCodeConnectionFailed, enverrors.GetCode(err))
}

func TestQueryInt_Failures(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"syntax error", "SELEC 1"},
		{"null result", "SELECT NULL"},
		{"no rows", "SELECT 1 WHERE 0"},
		{"not an integer", "SELECT 'one'"},
	}

	ctx := context.Background()
	db, err := Open(ctx, DefaultDriver, MemoryDSN)
	require.NoError(t, err)
	defer db.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.QueryInt(ctx, tt.query)
			require.Error(t, err)
			assert.Equal(t, enverrors.ErrCodeQueryFailed, enverrors.GetCode(err))
		})
	}
}

func TestClose_Idempotent(t *testing.T) {
	db, err := Open(context.Background(), DefaultDriver, MemoryDSN)
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.NoError(t, db.Close())

	var nilDB *DB
	assert.NoError(t, nilDB.Close())
}

func TestDriverRegistered(t *testing.T) {
	assert.True(t, DriverRegistered("sqlite"))
	assert.True(t, DriverRegistered("sqlite3"))
	assert.False(t, DriverRegistered("nope"))
	assert.Contains(t, Drivers(), "sqlite")
}
