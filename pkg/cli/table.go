package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const columnGap = 2

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// visualLen is the printed width of s, ignoring color escapes
func visualLen(s string) int {
	return utf8.RuneCountInString(ansiEscape.ReplaceAllString(s, ""))
}

// truncate shortens s to width columns. Colored cells are left intact.
func truncate(s string, width int) string {
	if visualLen(s) <= width || ansiEscape.MatchString(s) {
		return s
	}
	r := []rune(s)
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// TerminalWidth returns the width of stdout, or 0 when it is not a terminal
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// capWidths shrinks the widest columns until the row fits in termWidth.
// No column goes below its header width.
func capWidths(widths []int, headers []string, termWidth, prefix int) []int {
	out := make([]int, len(widths))
	copy(out, widths)
	if termWidth <= 0 {
		return out
	}
	total := func() int {
		n := prefix + columnGap*(len(out)-1)
		for _, w := range out {
			n += w
		}
		return n
	}
	for total() > termWidth {
		widest := -1
		for i, w := range out {
			if w > visualLen(headers[i]) && (widest < 0 || w > out[widest]) {
				widest = i
			}
		}
		if widest < 0 {
			break
		}
		out[widest]--
	}
	return out
}

// Table buffers rows and prints them column-aligned, sized to the terminal.
// Nothing is printed for a table without rows.
type Table struct {
	out     io.Writer
	headers []string
	rows    [][]string
	prefix  string
	width   int
}

// NewTable creates a table writing to stdout
func NewTable(headers ...string) *Table {
	return &Table{out: os.Stdout, headers: headers, width: TerminalWidth()}
}

// WithWriter redirects the table output
func (t *Table) WithWriter(w io.Writer) *Table {
	t.out = w
	return t
}

// WithWidth overrides the detected terminal width; 0 disables capping
func (t *Table) WithWidth(width int) *Table {
	t.width = width
	return t
}

// WithPrefix sets a string prepended to each line
func (t *Table) WithPrefix(prefix string) *Table {
	t.prefix = prefix
	return t
}

// Row adds a row. Missing cells are left blank.
func (t *Table) Row(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows added
func (t *Table) Len() int {
	return len(t.rows)
}

// Flush prints the headers, a divider and all rows
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visualLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := visualLen(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	widths = capWidths(widths, t.headers, t.width, visualLen(t.prefix))

	dividers := make([]string, len(t.headers))
	for i := range t.headers {
		dividers[i] = strings.Repeat("-", visualLen(t.headers[i]))
	}
	t.line(widths, t.headers)
	t.line(widths, dividers)
	for _, row := range t.rows {
		t.line(widths, row)
	}
}

func (t *Table) line(widths []int, cells []string) {
	var b strings.Builder
	b.WriteString(t.prefix)
	for i, cell := range cells {
		cell = truncate(cell, widths[i])
		b.WriteString(cell)
		if i < len(cells)-1 {
			pad := widths[i] - visualLen(cell) + columnGap
			if pad < 1 {
				pad = 1
			}
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	fmt.Fprintln(t.out, b.String())
}
