package hls

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// Config holds configuration for HLS acquisition
type Config struct {
	HTTP   *HTTPConfig   `json:"http"`
	Parser *ParserConfig `json:"parser"`

	// Transmuxer creates the container muxer used for OutputContainer downloads.
	// A fresh instance is requested for every download because muxers are stateful.
	Transmuxer TransmuxerFactory `json:"-"`

	Logger logging.Logger `json:"-"`
}

// HTTPConfig holds configuration for the HTTP fetcher
type HTTPConfig struct {
	UserAgent         string            `json:"user_agent"`
	Headers           map[string]string `json:"headers"`
	ConnectionTimeout time.Duration     `json:"connection_timeout"`
	ReadTimeout       time.Duration     `json:"read_timeout"`
	BufferSize        int               `json:"buffer_size"`
	// RateLimit caps requests per second across one fetcher, 0 disables it
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`
}

// ParserConfig holds configuration for playlist resolution
type ParserConfig struct {
	MasterDetectionLines int `json:"master_detection_lines"`
	MaxPlaylistDepth     int `json:"max_playlist_depth"`
}

// DownloadConfig contains the session scoped acquisition settings
type DownloadConfig struct {
	MaxRetry    int               `json:"max_retry"`
	Concurrency int               `json:"concurrency"`
	OutputKind  common.OutputKind `json:"output_kind"`
	RetryDelay  time.Duration     `json:"retry_delay"`
}

// DefaultConfig returns the default HLS configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP:   DefaultHTTPConfig(),
		Parser: DefaultParserConfig(),
	}
}

// DefaultHTTPConfig returns default fetcher settings
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		UserAgent:         "hls2mp4/1.0",
		Headers:           make(map[string]string),
		ConnectionTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		BufferSize:        32 * 1024,
		RateLimit:         0,
		RateBurst:         1,
	}
}

// DefaultParserConfig returns default playlist resolution settings
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		MasterDetectionLines: 10,
		MaxPlaylistDepth:     8,
	}
}

// DefaultDownloadConfig returns default download configuration
func DefaultDownloadConfig() *DownloadConfig {
	return &DownloadConfig{
		MaxRetry:    3,
		Concurrency: 10,
		OutputKind:  common.OutputContainer,
		RetryDelay:  0,
	}
}

// Validate checks the download configuration ranges
func (c *DownloadConfig) Validate() error {
	if c.MaxRetry < 1 {
		return invalidConfig(fmt.Sprintf("max retry must be at least 1, got %d", c.MaxRetry))
	}
	if c.Concurrency < 1 {
		return invalidConfig(fmt.Sprintf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.RetryDelay < 0 {
		return invalidConfig("retry delay cannot be negative")
	}
	if _, ok := common.ParseOutputKind(string(c.OutputKind)); !ok {
		return invalidConfig(fmt.Sprintf("unknown output kind %q", c.OutputKind))
	}
	return nil
}

func invalidConfig(message string) error {
	return common.NewStreamError("", "", common.ErrCodeInvalidConfig, message, nil)
}
