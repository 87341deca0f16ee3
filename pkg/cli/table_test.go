package cli

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestCapWidths(t *testing.T) {
	tests := []struct {
		name    string
		widths  []int
		headers []string
		term    int
		prefix  int
		want    []int
	}{
		{
			name:    "fits",
			widths:  []int{5, 20, 10},
			headers: []string{"FILE", "TYPE", "MODE"},
			term:    80,
			want:    []int{5, 20, 10},
		},
		{
			name:    "no terminal",
			widths:  []int{5, 200},
			headers: []string{"FILE", "ERROR"},
			term:    0,
			want:    []int{5, 200},
		},
		{
			name:    "shrinks widest",
			widths:  []int{5, 60, 10},
			headers: []string{"FILE", "ERROR", "STATUS"},
			term:    70,
			want:    []int{5, 51, 10},
		},
		{
			name:    "header minimum",
			widths:  []int{4, 8},
			headers: []string{"FILE", "SECTIONS"},
			term:    5,
			want:    []int{4, 8},
		},
		{
			name:    "prefix counted",
			widths:  []int{10, 10},
			headers: []string{"A", "B"},
			term:    24,
			prefix:  4,
			want:    []int{9, 9},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capWidths(tt.widths, tt.headers, tt.term, tt.prefix)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("capWidths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisualLen(t *testing.T) {
	SetColor(true)
	defer SetColor(false)

	if got := visualLen(Green("PASS")); got != 4 {
		t.Errorf("visualLen(Green(PASS)) = %d, want 4", got)
	}
	if got := visualLen("système"); got != 7 {
		t.Errorf("visualLen(système) = %d, want 7", got)
	}
}

func TestTableFlush(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("FILE", "STATUS").WithWriter(&buf).WithWidth(0)
	tbl.Row("system.ini", "PASS")
	tbl.Row("region.ini", "FAIL")
	tbl.Flush()

	want := "FILE        STATUS\n" +
		"----        ------\n" +
		"system.ini  PASS\n" +
		"region.ini  FAIL\n"
	if buf.String() != want {
		t.Errorf("Flush() =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestTableTruncates(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("FILE", "ERROR").WithWriter(&buf).WithWidth(20)
	tbl.Row("a.ini", "Missing attribute CIDR for OAM_NETWORK")
	tbl.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if got := len(lines[2]); got > 20 {
		t.Errorf("row width = %d, want <= 20: %q", got, lines[2])
	}
	if !strings.HasSuffix(lines[2], "...") {
		t.Errorf("row %q should end with ...", lines[2])
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("FILE").WithWriter(&buf)
	tbl.Flush()
	if buf.Len() != 0 || tbl.Len() != 0 {
		t.Errorf("empty table printed %q", buf.String())
	}
}

func TestTablePrefixAndShortRows(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable("A", "B").WithWriter(&buf).WithWidth(0).WithPrefix("  ")
	tbl.Row("x")
	tbl.Flush()
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if !strings.HasPrefix(line, "  ") {
			t.Errorf("line %q missing prefix", line)
		}
	}
}
