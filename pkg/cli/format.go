// Package cli provides shared formatting helpers for the bootcfg CLI.
package cli

import (
	"os"
	"strings"

	"github.com/fatih/color"
)

func init() {
	// color already honors NO_COLOR and non-terminal stdout
	if os.Getenv("BOOTCFG_FORCE_COLOR") != "" {
		color.NoColor = false
	}
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// Green renders s in green
func Green(s string) string { return green(s) }

// Yellow renders s in yellow
func Yellow(s string) string { return yellow(s) }

// Red renders s in red
func Red(s string) string { return red(s) }

// Bold renders s in bold
func Bold(s string) string { return bold(s) }

// Dim renders s dimmed
func Dim(s string) string { return dim(s) }

// SetColor forces color output on or off
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// Status renders a pass/fail marker for status tables
func Status(ok bool) string {
	if ok {
		return Green("PASS")
	}
	return Red("FAIL")
}

// DotPad pads name with dots to the given width.
// Example: DotPad("system.ini", 20) → "system.ini ........."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	return name + " " + strings.Repeat(".", width-len(name)-1)
}

// FirstLine returns the first line of a multi-line message, marking the
// cut with an ellipsis
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
