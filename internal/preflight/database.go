package preflight

import (
	"context"
	"fmt"

	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
	"github.com/Aman-CERP/envcheck/internal/store"
)

// CheckDatabase opens the embedded database, runs the scalar query and compares
// the result. The connection is closed on every path.
func (c *Checker) CheckDatabase(ctx context.Context) CheckResult {
	c.out.Status("🔍", "Testing database connection...")

	dbCfg := c.cfg.Database
	db, err := store.Open(ctx, dbCfg.Driver, dbCfg.DSN)
	if err != nil {
		c.out.Checkf(false, "Database test failed: %s", reason(err))
		envErr, ok := enverrors.As(err)
		if !ok {
			envErr = enverrors.Wrap(enverrors.ErrCodeConnectionFailed, err)
		}
		return fail(envErr)
	}
	defer func() { _ = db.Close() }()

	c.out.Check(true, "Database connection created")
	details := []string{c.detail("Driver: %s", db.Driver())}
	if v := db.Version(ctx); v != "" {
		details = append(details, c.detail("Engine version: %s", v))
	}

	got, err := db.QueryInt(ctx, dbCfg.Query)
	if err != nil {
		c.out.Checkf(false, "Basic query failed: %s", reason(err))
		envErr, _ := enverrors.As(err)
		return fail(envErr, details...)
	}
	if got != dbCfg.Expected {
		c.out.Checkf(false, "Basic query failed: got %d, want %d", got, dbCfg.Expected)
		err := enverrors.Newf(enverrors.ErrCodeQueryMismatch, "query returned %d, want %d", got, dbCfg.Expected).
			WithDetail("query", dbCfg.Query)
		return fail(err, details...)
	}
	c.out.Check(true, "Basic query executed successfully")

	if err := db.Close(); err != nil {
		c.out.Checkf(false, "Failed to close connection: %v", err)
		return fail(enverrors.New(enverrors.ErrCodeConnectionFailed, "failed to close connection", err), details...)
	}
	c.out.Check(true, "Connection closed")

	return pass(fmt.Sprintf("%s returned %d", dbCfg.Query, got), details...)
}
