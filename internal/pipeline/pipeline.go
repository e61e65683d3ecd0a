// Package pipeline models a named data pipeline bound to a destination and a dataset.
//
// A Pipeline is only constructed here. Constructing one resolves its destination
// (driver and database location) without opening it.
package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
	"github.com/Aman-CERP/envcheck/internal/store"
)

// Destination describes where a pipeline loads data.
type Destination struct {
	// Type is the configured destination name, e.g. "sqlite".
	Type string `json:"type"`
	// Driver is the database/sql driver that serves the destination.
	Driver string `json:"driver"`
	// DSN locates the destination database.
	DSN string `json:"dsn"`
}

// Pipeline is a named data-movement object.
type Pipeline struct {
	Name        string      `json:"name"`
	Destination Destination `json:"destination"`
	DatasetName string      `json:"dataset_name"`
	WorkingDir  string      `json:"working_dir"`
}

// destinations maps destination types to database/sql drivers.
var destinations = map[string]string{
	"sqlite":  "sqlite",  // modernc.org/sqlite
	"sqlite3": "sqlite3", // github.com/mattn/go-sqlite3, when linked
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Destinations returns the known destination types, sorted.
func Destinations() []string {
	names := make([]string, 0, len(destinations))
	for name := range destinations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs a pipeline. The destination database file is <workdir>/<name>.db.
func New(name, destination, dataset, workdir string) (*Pipeline, error) {
	if !identifierPattern.MatchString(name) {
		return nil, constructionError("invalid pipeline name %q", name).
			WithSuggestion("Use letters, digits and underscores, starting with a letter")
	}
	if !identifierPattern.MatchString(dataset) {
		return nil, constructionError("invalid dataset name %q", dataset).
			WithSuggestion("Use letters, digits and underscores, starting with a letter")
	}

	destType := strings.ToLower(strings.TrimSpace(destination))
	driver, ok := destinations[destType]
	if !ok {
		return nil, constructionError("unknown destination %q", destination).
			WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(Destinations(), ", ")))
	}
	if !store.DriverRegistered(driver) {
		return nil, constructionError("destination %q needs driver %q, which is not linked into this build", destType, driver).
			WithDetail("driver", driver)
	}

	if workdir == "" {
		workdir = "."
	}
	absDir, err := filepath.Abs(workdir)
	if err != nil {
		return nil, enverrors.New(enverrors.ErrCodeConstructionFailed, "failed to resolve working directory", err)
	}

	return &Pipeline{
		Name: name,
		Destination: Destination{
			Type:   destType,
			Driver: driver,
			DSN:    filepath.Join(absDir, name+".db"),
		},
		DatasetName: dataset,
		WorkingDir:  absDir,
	}, nil
}

// String returns a short description such as "test_pipeline -> sqlite/test_data".
func (p *Pipeline) String() string {
	return fmt.Sprintf("%s -> %s/%s", p.Name, p.Destination.Type, p.DatasetName)
}

func constructionError(format string, args ...any) *enverrors.EnvError {
	return enverrors.Newf(enverrors.ErrCodeConstructionFailed, format, args...)
}
