// Package output provides consistent CLI output formatting with icons and optional color.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Icons used across the report.
const (
	IconPass    = "✅"
	IconFail    = "❌"
	IconWarn    = "⚠️ "
	IconRun     = "🔍"
	IconSummary = "📊"
	IconTarget  = "🎯"
	IconParty   = "🎉"
	IconInfo    = "📋"
)

// RuleWidth is the width of the separator printed by Rule.
const RuleWidth = 50

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool
	styles   Styles
}

// New creates a new output Writer without color.
func New(out io.Writer) *Writer {
	return &Writer{
		out:    out,
		styles: NoColorStyles(),
	}
}

// NewColor creates a Writer that colors its output when useColor is set.
func NewColor(out io.Writer, useColor bool) *Writer {
	return &Writer{
		out:      out,
		useColor: useColor,
		styles:   GetStyles(!useColor),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ShouldColor decides whether output to w should be colored.
// NO_COLOR (any value) and noColor both disable color.
func ShouldColor(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return IsTerminal(w)
}

// UseColor reports whether the writer colors its output.
func (w *Writer) UseColor() bool {
	return w.useColor
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(IconPass, w.styles.Success.Render(msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(IconWarn, w.styles.Warning.Render(msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(IconFail, w.styles.Error.Render(msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Header prints a bold heading with an icon.
func (w *Writer) Header(icon, msg string) {
	w.Status(icon, w.styles.Header.Render(msg))
}

// Item prints an indented result line such as "  ✅ PASS: Sample Data".
func (w *Writer) Item(passed bool, label, name string) {
	icon, style := IconPass, w.styles.Success
	if !passed {
		icon, style = IconFail, w.styles.Error
	}
	_, _ = fmt.Fprintf(w.out, "  %s %s %s\n", icon, style.Render(label+":"), name)
}

// Check prints an indented per-item line such as "  ✅ pandas" or "  ❌ output/ (missing)".
func (w *Writer) Check(passed bool, msg string) {
	if passed {
		_, _ = fmt.Fprintf(w.out, "  %s %s\n", IconPass, msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "  %s %s\n", IconFail, w.styles.Error.Render(msg))
}

// Checkf prints a formatted per-item line.
func (w *Writer) Checkf(passed bool, format string, args ...any) {
	w.Check(passed, fmt.Sprintf(format, args...))
}

// Detail prints a dimmed, indented detail line.
func (w *Writer) Detail(msg string) {
	_, _ = fmt.Fprintf(w.out, "   %s\n", w.styles.Dim.Render(msg))
}

// Detailf prints a formatted detail line.
func (w *Writer) Detailf(format string, args ...any) {
	w.Detail(fmt.Sprintf(format, args...))
}

// Rule prints a separator line.
func (w *Writer) Rule() {
	_, _ = fmt.Fprintln(w.out, w.styles.Border.Render(strings.Repeat("=", RuleWidth)))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Plain prints msg unchanged.
func (w *Writer) Plain(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Styles holds the lipgloss styles used by Writer.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Border  lipgloss.Style
}

// Color palette (ANSI 256).
const (
	ColorGreen    = "154"
	ColorWhite    = "255"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Border:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Border:  lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
