package preflight

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/envcheck/internal/config"
	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
)

func TestCheckPipeline_Defaults(t *testing.T) {
	// Given: the default pipeline settings
	buf := &bytes.Buffer{}
	checker, _ := newTestChecker(t.TempDir(), buf)

	// When: constructing the pipeline
	result := checker.CheckPipeline(context.Background())

	// Then: the attributes are printed
	assert.True(t, result.Passed())
	out := buf.String()
	assert.Contains(t, out, "Pipeline created: test_pipeline")
	assert.Contains(t, out, "Destination: sqlite")
	assert.Contains(t, out, "Dataset: test_data")
	assert.Equal(t, "test_pipeline -> sqlite/test_data", result.Message)
}

func TestCheckPipeline_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *config.PipelineConfig)
	}{
		{"unknown destination", func(p *config.PipelineConfig) { p.Destination = "snowflake" }},
		{"bad pipeline name", func(p *config.PipelineConfig) { p.Name = "my pipeline" }},
		{"bad dataset", func(p *config.PipelineConfig) { p.Dataset = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.mutate(&cfg.Pipeline)
			buf := &bytes.Buffer{}
			checker, _ := newTestChecker(t.TempDir(), buf, WithConfig(cfg))

			result := checker.CheckPipeline(context.Background())

			assert.False(t, result.Passed())
			assert.Equal(t, enverrors.ErrCodeConstructionFailed, enverrors.GetCode(result.Err))
			assert.Contains(t, buf.String(), "Pipeline construction failed")
		})
	}
}

func TestCheckPipeline_VerboseDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	checker, _ := newTestChecker(t.TempDir(), buf, WithVerbose(true))

	result := checker.CheckPipeline(context.Background())

	assert.True(t, result.Passed())
	assert.Contains(t, buf.String(), "Database: ")
	assert.Contains(t, result.Details, "Driver: sqlite")
}

func TestCheckPipeline_PrintsNormalisedDestination(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Pipeline.Destination = " SQLite "
	buf := &bytes.Buffer{}
	checker, _ := newTestChecker(t.TempDir(), buf, WithConfig(cfg))

	result := checker.CheckPipeline(context.Background())

	assert.True(t, result.Passed())
	assert.Contains(t, buf.String(), "Destination: sqlite")
	assert.Equal(t, "test_pipeline -> sqlite/test_data", result.Message)
}
