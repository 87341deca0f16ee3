package util

import "strings"

// SplitCommaSeparated splits a comma-separated string and trims whitespace from each element.
// Empty input returns nil.
func SplitCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// ParseYesNo parses a Y/N flag (any letter case). ok is false for any other value.
func ParseYesNo(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y":
		return true, true
	case "n":
		return false, true
	}
	return false, false
}

// YesNo renders a flag the way the output config expects it
func YesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
