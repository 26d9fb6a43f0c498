package httpclient

import (
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// New returns a client with a bounded timeout. When userAgent is set every
// outgoing request carries it; public geodata providers reject anonymous
// clients.
func New(timeout time.Duration, userAgent string) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &http.Client{Timeout: timeout}
	if ua := strings.TrimSpace(userAgent); ua != "" {
		client.Transport = &userAgentTransport{base: http.DefaultTransport, userAgent: ua}
	}
	return client
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
