package hls

import (
	"net"
	"net/http"
)

// HeaderTransport sets fixed headers on every outgoing request
type HeaderTransport struct {
	Headers map[string]string
	Base    http.RoundTripper
}

func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.Headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.Headers {
			req.Header.Set(k, v)
		}
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewHTTPClient builds the client used by HTTPFetcher. The connection
// timeout bounds dialing and the read timeout bounds each whole request.
func NewHTTPClient(config *HTTPConfig) *http.Client {
	if config == nil {
		config = DefaultHTTPConfig()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: config.ConnectionTimeout}).DialContext
	transport.TLSHandshakeTimeout = config.ConnectionTimeout

	return &http.Client{
		Timeout: config.ReadTimeout,
		Transport: &HeaderTransport{
			Headers: config.Headers,
			Base:    transport,
		},
	}
}
