package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOutputKind(t *testing.T) {
	testCases := []struct {
		input    string
		expected OutputKind
		ok       bool
	}{
		{"container", OutputContainer, true},
		{"MP4", OutputContainer, true},
		{" raw ", OutputRaw, true},
		{"ts", OutputRaw, true},
		{"mkv", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			kind, ok := ParseOutputKind(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, kind)
		})
	}
}

func TestOutputKindFileProperties(t *testing.T) {
	assert.Equal(t, "mp4", OutputContainer.Extension())
	assert.Equal(t, "video/mp4", OutputContainer.MimeType())
	assert.Equal(t, "ts", OutputRaw.Extension())
	assert.Equal(t, "video/mp2t", OutputRaw.MimeType())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "500ms", FormatDuration(500*time.Millisecond))
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m", FormatDuration(2*time.Minute))
	assert.Equal(t, "1m30s", FormatDuration(90*time.Second))

	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "3.0 MiB", FormatBytes(3*1024*1024))
}

func TestFileNameFromURL(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
	}{
		{"playlist file", "https://cdn.example.com/show/ep.1.1677592419.m3u8", "ep.1.1677592419"},
		{"query string ignored", "https://cdn.example.com/index.m3u8?token=abc", "index"},
		{"unsafe characters", "https://cdn.example.com/my%20video(1).m3u8", "my_video_1"},
		{"root path", "https://cdn.example.com/", "video"},
		{"invalid url", "://bad", "video"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FileNameFromURL(tc.url, "video"))
		})
	}
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("https://example.com/master.m3u8"))
	assert.True(t, IsValidURL(" http://example.com/a.m3u8"))
	assert.False(t, IsValidURL("ftp://example.com/file.m3u8"))
	assert.False(t, IsValidURL("not-a-url"))
}
