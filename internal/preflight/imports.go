package preflight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
)

// PackageImporter loads a package by name and reports why it could not.
type PackageImporter interface {
	Import(ctx context.Context, pkg string) error
}

// packagePattern matches dotted identifiers such as "dotenv" or "matplotlib.pyplot".
var packagePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidPackageName reports whether pkg is safe to import.
func ValidPackageName(pkg string) bool {
	return packagePattern.MatchString(pkg)
}

// PythonImporter imports packages by running the interpreter: <python> -c "import <pkg>".
type PythonImporter struct {
	Python  string
	Dir     string
	Timeout time.Duration
}

// NewPythonImporter resolves the interpreter and returns an importer bound to it.
func NewPythonImporter(configured, root string, timeout time.Duration) (*PythonImporter, error) {
	python, err := ResolvePython(configured, root)
	if err != nil {
		return nil, err
	}
	return &PythonImporter{Python: python, Dir: root, Timeout: timeout}, nil
}

// ResolvePython picks the interpreter: the configured one, then the project
// virtualenv under root, then python3 or python on PATH.
func ResolvePython(configured, root string) (string, error) {
	if configured != "" {
		if strings.ContainsRune(configured, os.PathSeparator) {
			if !filepath.IsAbs(configured) {
				configured = filepath.Join(root, configured)
			}
			if _, err := os.Stat(configured); err != nil {
				return "", enverrors.New(enverrors.ErrCodeInterpreterNotFound, "configured python interpreter not found", err).
					WithDetail("python", configured)
			}
			return configured, nil
		}
		path, err := exec.LookPath(configured)
		if err != nil {
			return "", enverrors.New(enverrors.ErrCodeInterpreterNotFound, "configured python interpreter not found", err).
				WithDetail("python", configured)
		}
		return path, nil
	}

	for _, venv := range venvInterpreters(root) {
		if info, err := os.Stat(venv); err == nil && !info.IsDir() {
			return venv, nil
		}
	}

	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", enverrors.New(enverrors.ErrCodeInterpreterNotFound, "no python interpreter found", nil).
		WithSuggestion("Create a virtual environment with: python3 -m venv .venv")
}

func venvInterpreters(root string) []string {
	if runtime.GOOS == "windows" {
		return []string{filepath.Join(root, ".venv", "Scripts", "python.exe")}
	}
	return []string{
		filepath.Join(root, ".venv", "bin", "python"),
		filepath.Join(root, ".venv", "bin", "python3"),
	}
}

// Import runs the interpreter to import pkg.
func (p *PythonImporter) Import(ctx context.Context, pkg string) error {
	if !ValidPackageName(pkg) {
		return enverrors.Newf(enverrors.ErrCodeImportFailed, "invalid package name %q", pkg)
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Python, "-c", "import "+pkg)
	cmd.Dir = p.Dir
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return enverrors.Newf(enverrors.ErrCodeImportFailed, "import timed out after %s", p.Timeout).
			WithDetail("package", pkg)
	}
	if ctx.Err() != nil {
		return enverrors.New(enverrors.ErrCodeImportFailed, "import cancelled", ctx.Err()).
			WithDetail("package", pkg)
	}

	msg := lastLine(stderr.String())
	if msg == "" {
		msg = err.Error()
	}
	return enverrors.New(enverrors.ErrCodeImportFailed, msg, nil).
		WithDetail("package", pkg).
		WithDetail("python", p.Python)
}

// lastLine returns the last non-empty line, which for a Python traceback is the exception.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// CheckImports verifies every required package can be imported.
func (c *Checker) CheckImports(ctx context.Context) CheckResult {
	c.out.Status("🔍", "Testing package imports...")

	importer := c.importer
	if importer == nil {
		py, err := NewPythonImporter(c.cfg.Packages.Python, c.root, c.cfg.ImportTimeoutDuration())
		if err != nil {
			c.out.Check(false, reason(err))
			envErr, _ := enverrors.As(err)
			return fail(envErr)
		}
		c.detail("Interpreter: %s", py.Python)
		importer = py
	}

	var failed, details []string
	for _, pkg := range c.cfg.Packages.Required {
		start := time.Now()
		err := importPackage(ctx, importer, pkg)
		if err != nil {
			c.out.Checkf(false, "%s: %s", pkg, reason(err))
			failed = append(failed, pkg)
			details = append(details, fmt.Sprintf("%s: %s", pkg, reason(err)))
			continue
		}
		c.out.Check(true, pkg)
		details = append(details, c.detail("%s imported in %s", pkg, time.Since(start).Round(time.Millisecond)))
	}

	c.out.Newline()
	if len(failed) > 0 {
		c.out.Errorf("Failed to import: %s", strings.Join(failed, ", "))
		err := enverrors.Newf(enverrors.ErrCodeImportFailed, "failed to import: %s", strings.Join(failed, ", ")).
			WithDetail("failed", strings.Join(failed, ",")).
			WithSuggestion("Install the requirements with: pip install -r requirements.txt")
		return fail(err, details...)
	}

	c.out.Success("All packages imported successfully!")
	return pass(fmt.Sprintf("%d packages imported", len(c.cfg.Packages.Required)), details...)
}

// importPackage rejects malformed names before asking the importer.
func importPackage(ctx context.Context, importer PackageImporter, pkg string) error {
	if !ValidPackageName(pkg) {
		return enverrors.Newf(enverrors.ErrCodeImportFailed, "invalid package name %q", pkg)
	}
	return importer.Import(ctx, pkg)
}
