package util

import (
	"net/netip"
	"regexp"
	"strings"
)

var (
	urlRegexp = regexp.MustCompile(`(?i)^(?:http|ftp)s?://` +
		`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+(?:[A-Z]{2,6}\.?|[A-Z0-9-]{2,}\.?)|` +
		`localhost|` +
		`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}|` +
		`\[[0-9A-F:.]+\])` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`)

	domainRegexp = regexp.MustCompile(`(?i)^(?:\.?(?:[A-Z0-9_](?:[A-Z0-9_-]{0,61}[A-Z0-9])?\.)*[A-Z0-9_](?:[A-Z0-9_-]{0,61}[A-Z0-9])?)` +
		`(?::\d+)?` +
		`(?:/\S*)?$`)
)

// IsValidURL reports whether s is an http(s) or ftp(s) URL with a domain,
// localhost or IP host
func IsValidURL(s string) bool {
	return urlRegexp.MatchString(s)
}

// IsValidDomain reports whether s is a domain name with an optional port and
// path, e.g. "registry.local:9001/k8s". A leading dot is accepted for
// no-proxy suffix entries.
func IsValidDomain(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	return domainRegexp.MatchString(s)
}

// IsValidDomainOrIP reports whether s is a domain, an IPv4 address with an
// optional port, a bare IPv6 address, or a bracketed IPv6 address with a port.
func IsValidDomainOrIP(s string) bool {
	if s == "" {
		return false
	}
	if IsValidDomain(s) {
		return true
	}
	if parts := strings.Split(s, ":"); len(parts) <= 2 {
		addr, err := netip.ParseAddr(parts[0])
		return err == nil && addr.Is4()
	}
	if strings.HasPrefix(s, "[") {
		host, port, ok := strings.Cut(s[1:], "]:")
		if !ok || !isDigits(port) {
			return false
		}
		addr, err := netip.ParseAddr(host)
		return err == nil && addr.Is6()
	}
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is6()
}

// IsValidBoolStr reports whether s is "true" or "false" in any letter case
func IsValidBoolStr(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
