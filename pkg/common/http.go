package common

import (
	_ "embed"
	"net/http"
	"strings"
	"time"
)

//go:embed VERSION
var version string

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request so we don't mutate headers on a request that
	// might be shared or retried
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// Version returns the trimmed build version embedded in the binary.
func Version() string {
	return strings.TrimSpace(version)
}

// HTTPClient returns an http client with the given timeout and a
// versioned default user-agent for all outbound calls.
func HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &userAgentTransport{
			transport: http.DefaultTransport,
			userAgent: "WattShift/" + Version(),
		},
		Timeout: timeout,
	}
}
