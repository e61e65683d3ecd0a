package preflight

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
)

// Table is a loaded CSV: a header row and its records.
type Table struct {
	Columns []string
	Rows    [][]string
}

// LoadCSV reads a CSV file with a header row. Short records are padded with
// empty fields; a record with more fields than the header is an error.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, enverrors.New(enverrors.ErrCodeLoadFailed, "cannot open sample data", err).
			WithDetail("path", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, enverrors.New(enverrors.ErrCodeLoadFailed, "sample data is empty", nil).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, enverrors.New(enverrors.ErrCodeLoadFailed, "cannot parse sample data header", err).
			WithDetail("path", path)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, enverrors.New(enverrors.ErrCodeLoadFailed, "cannot parse sample data", err).
				WithDetail("path", path)
		}
		if len(record) > len(header) {
			line, _ := r.FieldPos(0)
			return nil, enverrors.Newf(enverrors.ErrCodeLoadFailed,
				"cannot parse sample data: expected %d fields on line %d, saw %d", len(header), line, len(record)).
				WithDetail("path", path)
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		rows = append(rows, record)
	}

	return &Table{Columns: header, Rows: rows}, nil
}

// CheckSampleData loads the sample CSV and checks its shape.
func (c *Checker) CheckSampleData(_ context.Context) CheckResult {
	c.out.Status("🔍", "Testing sample data...")

	sample := c.cfg.Sample
	path := c.resolve(sample.Path)

	table, err := LoadCSV(path)
	if err != nil {
		c.out.Checkf(false, "Sample data test failed: %s", reason(err))
		envErr, _ := enverrors.As(err)
		return fail(envErr)
	}

	rows, cols := len(table.Rows), len(table.Columns)
	c.out.Checkf(true, "Sample data loaded: %s records", humanize.Comma(int64(rows)))
	c.out.Checkf(true, "Columns: [%s]", strings.Join(table.Columns, ", "))

	var details []string
	if info, err := os.Stat(path); err == nil {
		details = append(details, c.detail("File size: %s", humanize.Bytes(uint64(info.Size()))))
	}

	if rows < sample.MinRows || cols < sample.MinColumns {
		c.out.Check(false, "Data structure validation failed")
		err := enverrors.Newf(enverrors.ErrCodeSampleShape,
			"sample data has %d records and %d columns, need at least %d and %d",
			rows, cols, sample.MinRows, sample.MinColumns).
			WithDetail("path", sample.Path)
		return fail(err, details...)
	}

	c.out.Check(true, "Data structure looks good")
	return pass(fmt.Sprintf("%d records, %d columns", rows, cols), details...)
}
