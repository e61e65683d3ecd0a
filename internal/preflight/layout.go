package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
)

// CheckFileStructure verifies the configured files and directories exist.
// Every entry is reported, not only the first missing one.
func (c *Checker) CheckFileStructure(_ context.Context) CheckResult {
	c.out.Status("🔍", "Testing file structure...")

	var missing []string

	for _, file := range c.cfg.Layout.Files {
		info, err := os.Stat(c.resolve(file))
		switch {
		case err != nil:
			c.out.Checkf(false, "%s (missing)", file)
			missing = append(missing, file)
		case info.IsDir():
			c.out.Checkf(false, "%s (is a directory)", file)
			missing = append(missing, file)
		default:
			c.out.Check(true, file)
		}
	}

	for _, dir := range c.cfg.Layout.Dirs {
		label := strings.TrimSuffix(dir, "/") + "/"
		info, err := os.Stat(c.resolve(dir))
		switch {
		case err != nil:
			c.out.Checkf(false, "%s (missing)", label)
			missing = append(missing, label)
		case !info.IsDir():
			c.out.Checkf(false, "%s (not a directory)", label)
			missing = append(missing, label)
		default:
			c.out.Check(true, label)
		}
	}

	total := len(c.cfg.Layout.Files) + len(c.cfg.Layout.Dirs)
	if len(missing) > 0 {
		err := enverrors.Newf(enverrors.ErrCodeMissingPath, "%d of %d required paths missing", len(missing), total).
			WithDetail("missing", strings.Join(missing, ",")).
			WithSuggestion("Run the project setup again or create the missing paths")
		return fail(err, missing...)
	}

	return pass(fmt.Sprintf("%d paths present", total))
}
