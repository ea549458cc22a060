package enrich

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScanURL_Allowed(t *testing.T) {
	tests := []string{
		"https://sutraoc.com",
		"http://venue.example/events",
		"https://venue.example:443/contact",
		"https://venue.example:8443",
		"http://venue.example:8080/about",
	}
	for _, u := range tests {
		t.Run(u, func(t *testing.T) {
			assert.NoError(t, ValidateScanURL(u))
		})
	}
}

func TestValidateScanURL_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		reason string
	}{
		{"ftp scheme", "ftp://venue.example", "blocked scheme"},
		{"file scheme", "file:///etc/passwd", "blocked scheme"},
		{"localhost", "http://localhost/admin", "internal addresses"},
		{"zero address", "http://0.0.0.0", "internal addresses"},
		{"loopback ip", "http://127.0.0.1", "internal addresses"},
		{"ten net", "http://10.1.2.3", "internal addresses"},
		{"one seventy two net", "http://172.20.0.1", "internal addresses"},
		{"one ninety two net", "http://192.168.1.1", "internal addresses"},
		{"link local metadata", "http://169.254.169.254/latest/meta-data", "internal addresses"},
		{"ipv6 literal", "http://[::1]/", "IPv6"},
		{"cloud metadata host", "http://metadata.google.internal", "internal addresses"},
		{"internal suffix", "https://db.prod.internal", "internal addresses"},
		{"odd port", "https://venue.example:6379", "disallowed port"},
		{"empty host", "https://", "missing host"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScanURL(tt.url)
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Contains(t, vErr.Reason, tt.reason)
		})
	}
}

func TestValidateScanURL_PublicIPAllowed(t *testing.T) {
	assert.NoError(t, ValidateScanURL("http://203.0.113.10"))
}

func TestValidateScanURL_BoundaryOctets(t *testing.T) {
	// 172.15 and 172.32 sit just outside the 172.16/12 private range.
	assert.NoError(t, ValidateScanURL("http://172.15.0.1"))
	assert.NoError(t, ValidateScanURL("http://172.32.0.1"))
	assert.Error(t, ValidateScanURL("http://172.16.0.1"))
	assert.Error(t, ValidateScanURL("http://172.31.255.255"))
}
