package hls

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"golang.org/x/time/rate"
)

const playlistAccept = "application/vnd.apple.mpegurl,application/x-mpegurl,text/plain,*/*"

// Fetcher retrieves remote resources. Implementations never retry; a failure
// is returned as a NETWORK_ERROR StreamError.
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
	FetchText(ctx context.Context, url string) (string, error)
}

// HTTPFetcher implements Fetcher over net/http
type HTTPFetcher struct {
	client  *http.Client
	config  *HTTPConfig
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a fetcher. A nil client is built from config.
func NewHTTPFetcher(client *http.Client, config *HTTPConfig) *HTTPFetcher {
	if config == nil {
		config = DefaultHTTPConfig()
	}
	if client == nil {
		client = NewHTTPClient(config)
	}

	f := &HTTPFetcher{
		client: client,
		config: config,
	}

	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return f
}

// FetchBytes downloads url as binary
func (f *HTTPFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return f.fetch(ctx, url, "*/*")
}

// FetchText downloads url and returns the body as a string
func (f *HTTPFetcher) FetchText(ctx context.Context, url string) (string, error) {
	data, err := f.fetch(ctx, url, playlistAccept)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, url, accept string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, common.NewNetworkError(url, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, common.NewNetworkError(url, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, common.NewNetworkError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, common.NewNetworkError(url, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status))
	}

	var reader io.Reader = resp.Body
	if f.config.BufferSize > 0 {
		reader = bufio.NewReaderSize(resp.Body, f.config.BufferSize)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, common.NewNetworkError(url, fmt.Errorf("failed to read response: %w", err))
	}

	return data, nil
}
