package enrich

import (
	"net/url"
	"strconv"
	"strings"
)

// allowedPorts are the explicit ports a scan target may use. An empty port
// (scheme default) is always allowed.
var allowedPorts = map[string]bool{
	"80":   true,
	"443":  true,
	"8080": true,
	"8443": true,
}

// ValidateScanURL checks a URL before any network access. It rejects
// non-HTTP schemes, loopback and private network targets, and disallowed
// ports. This is a security boundary, not an optimization: scan URLs come
// from search results and user input.
func ValidateScanURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{URL: rawURL, Reason: "malformed URL"}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ValidationError{URL: rawURL, Reason: "blocked scheme " + parsed.Scheme}
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return &ValidationError{URL: rawURL, Reason: "missing host"}
	}

	if host == "localhost" || host == "::1" || host == "0.0.0.0" {
		return &ValidationError{URL: rawURL, Reason: "internal addresses are not allowed"}
	}

	// Bracketed IPv6 literals are rejected wholesale; public venue sites
	// do not publish them and the private-range surface is large.
	if strings.Contains(parsed.Host, "[") || strings.Contains(host, ":") {
		return &ValidationError{URL: rawURL, Reason: "IPv6 addresses are not allowed"}
	}

	if isPrivateIPv4(host) {
		return &ValidationError{URL: rawURL, Reason: "internal addresses are not allowed"}
	}

	// Cloud metadata endpoints.
	if host == "metadata.google.internal" || strings.HasSuffix(host, ".internal") {
		return &ValidationError{URL: rawURL, Reason: "internal addresses are not allowed"}
	}

	if port := parsed.Port(); port != "" && !allowedPorts[port] {
		return &ValidationError{URL: rawURL, Reason: "disallowed port " + port}
	}

	return nil
}

// isPrivateIPv4 reports whether host is an IPv4 literal in a private,
// loopback, or link-local range.
func isPrivateIPv4(host string) bool {
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return false
	}
	octets := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return false
		}
		octets[i] = n
	}

	a, b := octets[0], octets[1]
	switch {
	case a == 0: // 0.0.0.0/8
		return true
	case a == 10: // 10.0.0.0/8
		return true
	case a == 127: // loopback
		return true
	case a == 169 && b == 254: // link-local, cloud metadata
		return true
	case a == 172 && b >= 16 && b <= 31: // 172.16.0.0/12
		return true
	case a == 192 && b == 168: // 192.168.0.0/16
		return true
	}
	return false
}
