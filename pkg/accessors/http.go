package accessors

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openfroyo/await/pkg/deferred"
)

// HTTPStatus probes an HTTP URL and succeeds once the response status
// matches the expected code. The resolved value is the observed status code.
type HTTPStatus struct {
	// URL is the target URL.
	URL string

	// Expect is the status code that counts as available. Defaults to 200.
	Expect int

	// Timeout bounds a single probe. Defaults to DefaultProbeTimeout.
	Timeout time.Duration

	// Client is the HTTP client to probe with. Defaults to a client bounded
	// by the probe timeout.
	Client *http.Client
}

// NewHTTPStatus creates an HTTP status accessor expecting a 200 response.
func NewHTTPStatus(rawURL string) *HTTPStatus {
	return &HTTPStatus{URL: rawURL, Expect: http.StatusOK}
}

// Resolve implements deferred.Deferred. Connection failures and unexpected
// status codes are transient: the service may still be starting. A URL that
// cannot be parsed is permanent.
func (h *HTTPStatus) Resolve(ctx context.Context) (int, error) {
	u, err := url.Parse(h.URL)
	if err != nil || u.Host == "" {
		if err == nil {
			err = fmt.Errorf("missing host in %q", h.URL)
		}
		return 0, deferred.NewPermanentError("malformed URL", err).WithSource(h.String())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return 0, deferred.NewPermanentError("malformed URL",
			fmt.Errorf("unsupported scheme %q", u.Scheme)).WithSource(h.String())
	}

	expect := h.Expect
	if expect == 0 {
		expect = http.StatusOK
	}

	client := h.Client
	if client == nil {
		timeout := h.Timeout
		if timeout <= 0 {
			timeout = DefaultProbeTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return 0, deferred.NewPermanentError("building request", err).WithSource(h.String())
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, deferred.NewPermanentError("probe canceled", err).WithSource(h.String())
		}
		return 0, deferred.NewTransientError("service not responding", err).WithSource(h.String())
	}
	defer resp.Body.Close()

	if resp.StatusCode != expect {
		return 0, deferred.NewTransientError(
			fmt.Sprintf("status %d, want %d", resp.StatusCode, expect), nil).
			WithSource(h.String())
	}
	return resp.StatusCode, nil
}

// String implements fmt.Stringer.
func (h *HTTPStatus) String() string {
	return h.URL
}
