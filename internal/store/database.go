// Package store opens the embedded analytical database used by the environment checks.
//
// Access goes through database/sql, so any registered driver can be selected by name.
// The pure-Go modernc.org/sqlite driver is always linked and registers as "sqlite".
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
)

// DefaultDriver is the driver name registered by modernc.org/sqlite.
const DefaultDriver = "sqlite"

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// DB is a single-connection handle on an embedded database.
type DB struct {
	db     *sql.DB
	driver string
	dsn    string
}

// DriverRegistered reports whether a database/sql driver with the given name is linked in.
func DriverRegistered(name string) bool {
	return slices.Contains(sql.Drivers(), name)
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	return sql.Drivers()
}

// Open connects to the database and verifies the connection with a ping.
// The returned DB must be closed by the caller. On error nothing is left open.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	if dsn == "" {
		dsn = MemoryDSN
	}

	if !DriverRegistered(driver) {
		return nil, enverrors.Newf(enverrors.ErrCodeConnectionFailed, "database driver %q is not available", driver).
			WithDetail("driver", driver).
			WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(Drivers(), ", ")))
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, enverrors.New(enverrors.ErrCodeConnectionFailed, "failed to open database", err).
			WithDetail("driver", driver)
	}

	// An in-memory database lives on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, enverrors.New(enverrors.ErrCodeConnectionFailed, "failed to connect to database", err).
			WithDetail("driver", driver).
			WithDetail("dsn", dsn)
	}

	slog.Debug("database_opened", slog.String("driver", driver), slog.String("dsn", dsn))

	return &DB{db: db, driver: driver, dsn: dsn}, nil
}

// Driver returns the driver name the database was opened with.
func (d *DB) Driver() string {
	return d.driver
}

// QueryInt runs a query that returns a single integer value.
func (d *DB) QueryInt(ctx context.Context, query string) (int64, error) {
	var v sql.NullInt64
	if err := d.db.QueryRowContext(ctx, query).Scan(&v); err != nil {
		return 0, enverrors.New(enverrors.ErrCodeQueryFailed, "query failed", err).
			WithDetail("query", query)
	}
	if !v.Valid {
		return 0, enverrors.New(enverrors.ErrCodeQueryFailed, "query returned NULL", nil).
			WithDetail("query", query)
	}
	return v.Int64, nil
}

// Version returns the engine version string, or "" if the engine does not report one.
func (d *DB) Version(ctx context.Context) string {
	var v string
	if err := d.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&v); err != nil {
		return ""
	}
	return v
}

// Close releases the connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
