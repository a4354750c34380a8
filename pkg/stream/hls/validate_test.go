package hls

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	for _, u := range TestValidHLSURLs {
		assert.NoError(t, ValidateURL(u), u)
	}

	invalid := []string{
		"not-a-url",
		"ftp://example.com/file.m3u8",
		"https:///path-only.m3u8",
		"",
	}
	for _, u := range invalid {
		assert.ErrorIs(t, ValidateURL(u), common.ErrInvalidURL, u)
	}
}

func TestLooksLikePlaylistURL(t *testing.T) {
	testCases := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/master.m3u8", true},
		{"https://example.com/LIVE/INDEX.M3U8", true},
		{"https://example.com/radio.m3u", true},
		{"https://example.com/play?format=m3u8", true},
		{"https://example.com/file.mp3", false},
		{"https://example.com/segment.ts", false},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.expected, LooksLikePlaylistURL(tc.url))
		})
	}
}

func TestIsPlaylistContentType(t *testing.T) {
	assert.True(t, IsPlaylistContentType("application/vnd.apple.mpegurl"))
	assert.True(t, IsPlaylistContentType("Application/X-MpegURL; charset=utf-8"))
	assert.True(t, IsPlaylistContentType("text/plain"))
	assert.False(t, IsPlaylistContentType("video/mp2t"))
	assert.False(t, IsPlaylistContentType(""))
}

func TestProbe(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	}))
	defer server.Close()

	result, err := NewHTTPFetcher(nil, nil).Probe(context.Background(), server.URL+"/master.m3u8")
	require.NoError(t, err)

	assert.Equal(t, http.MethodHead, method)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.True(t, result.IsPlaylist)
}
