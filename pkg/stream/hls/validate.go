package hls

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
)

var playlistContentTypes = []string{
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"audio/mpegurl",
	"audio/x-mpegurl",
	"text/plain",
}

// ProbeResult holds what a HEAD request revealed about a playlist URL
type ProbeResult struct {
	StatusCode  int    `json:"status_code" yaml:"status_code"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	IsPlaylist  bool   `json:"is_playlist" yaml:"is_playlist"`
}

// ValidateURL checks that streamURL is an absolute http(s) URL
func ValidateURL(streamURL string) error {
	parsedURL, err := url.Parse(strings.TrimSpace(streamURL))
	if err != nil {
		return common.NewStreamError(common.ResourcePlaylist, streamURL,
			common.ErrCodeInvalidURL, "invalid URL format", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return common.NewStreamError(common.ResourcePlaylist, streamURL,
			common.ErrCodeInvalidURL, "unsupported URL scheme", nil)
	}

	if parsedURL.Host == "" {
		return common.NewStreamError(common.ResourcePlaylist, streamURL,
			common.ErrCodeInvalidURL, "URL has no host", nil)
	}

	return nil
}

// LooksLikePlaylistURL matches the URL against common HLS naming patterns.
// Servers are free to ignore them, so a miss is only a hint.
func LooksLikePlaylistURL(streamURL string) bool {
	u, err := url.Parse(streamURL)
	if err != nil {
		return false
	}

	p := strings.ToLower(u.Path)
	return strings.HasSuffix(p, ".m3u8") ||
		strings.HasSuffix(p, ".m3u") ||
		strings.Contains(strings.ToLower(u.RawQuery), "m3u8")
}

// IsPlaylistContentType reports whether a Content-Type header names an HLS
// playlist
func IsPlaylistContentType(contentType string) bool {
	return slices.Contains(playlistContentTypes, common.ExtractContentType(contentType))
}

// Probe issues a HEAD request for streamURL
func (f *HTTPFetcher) Probe(ctx context.Context, streamURL string) (*ProbeResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, common.NewNetworkError(streamURL, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, streamURL, nil)
	if err != nil {
		return nil, common.NewNetworkError(streamURL, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", playlistAccept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, common.NewNetworkError(streamURL, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	return &ProbeResult{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		IsPlaylist:  IsPlaylistContentType(contentType),
	}, nil
}
