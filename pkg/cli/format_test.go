package cli

import (
	"strings"
	"testing"
)

func TestDotPad(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"normal", "system.ini", 20, "system.ini " + strings.Repeat(".", 9)},
		{"width minus one", "abcde", 6, "abcde"},
		{"longer than width", "subcloud-site-12.ini", 5, "subcloud-site-12.ini"},
		{"empty", "", 4, " ..."},
		{"zero width", "a.ini", 0, "a.ini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DotPad(tt.input, tt.width); got != tt.want {
				t.Errorf("DotPad(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}

func TestColorFunctions(t *testing.T) {
	SetColor(true)
	defer SetColor(false)

	tests := []struct {
		name   string
		fn     func(string) string
		prefix string
	}{
		{"Green", Green, "\033[32m"},
		{"Yellow", Yellow, "\033[33m"},
		{"Red", Red, "\033[31m"},
		{"Bold", Bold, "\033[1m"},
		{"Dim", Dim, "\033[2m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn("hello")
			if !strings.HasPrefix(got, tt.prefix) || !strings.HasSuffix(got, "\033[0m") {
				t.Errorf("%s(hello) = %q", tt.name, got)
			}
			if !strings.Contains(got, "hello") {
				t.Errorf("%s(hello) = %q, missing input", tt.name, got)
			}
		})
	}
}

func TestColorDisabled(t *testing.T) {
	SetColor(false)
	if got := Red("x"); got != "x" {
		t.Errorf("Red(x) with color off = %q, want x", got)
	}
	if got := Status(true); got != "PASS" {
		t.Errorf("Status(true) = %q, want PASS", got)
	}
	if got := Status(false); got != "FAIL" {
		t.Errorf("Status(false) = %q, want FAIL", got)
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Missing attribute CIDR for OAM_NETWORK", "Missing attribute CIDR for OAM_NETWORK"},
		{"Invalid CIDR value of x for OAM_NETWORK.\nReason: bad", "Invalid CIDR value of x for OAM_NETWORK. ..."},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FirstLine(tt.in); got != tt.want {
			t.Errorf("FirstLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
