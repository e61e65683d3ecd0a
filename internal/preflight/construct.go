package preflight

import (
	"context"

	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
	"github.com/Aman-CERP/envcheck/internal/pipeline"
)

// CheckPipeline constructs the configured pipeline and prints its attributes.
// The destination database is not opened.
func (c *Checker) CheckPipeline(_ context.Context) CheckResult {
	c.out.Status("🔍", "Testing pipeline construction...")

	want := c.cfg.Pipeline
	p, err := pipeline.New(want.Name, want.Destination, want.Dataset, c.root)
	if err != nil {
		c.out.Checkf(false, "Pipeline construction failed: %s", reason(err))
		envErr, ok := enverrors.As(err)
		if !ok {
			envErr = enverrors.Wrap(enverrors.ErrCodeConstructionFailed, err)
		}
		return fail(envErr)
	}

	c.out.Checkf(true, "Pipeline created: %s", p.Name)
	c.out.Checkf(true, "Destination: %s", p.Destination.Type)
	c.out.Checkf(true, "Dataset: %s", p.DatasetName)

	return pass(p.String(),
		c.detail("Driver: %s", p.Destination.Driver),
		c.detail("Database: %s", p.Destination.DSN))
}
