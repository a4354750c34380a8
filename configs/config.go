package configs

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/hls"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/transmux"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// Acquisition settings
	Download DownloadConfig `mapstructure:"download" yaml:"download"`

	// Stream configuration
	Stream StreamConfig `mapstructure:"stream" yaml:"stream"`

	// Container remuxing
	Transmux TransmuxConfig `mapstructure:"transmux" yaml:"transmux"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// DownloadConfig contains acquisition settings
type DownloadConfig struct {
	MaxRetry    int           `mapstructure:"max_retry" yaml:"max_retry"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	OutputKind  string        `mapstructure:"output_kind" yaml:"output_kind"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// StreamConfig contains HTTP settings shared by every request
type StreamConfig struct {
	ConnectionTimeout time.Duration     `mapstructure:"connection_timeout" yaml:"connection_timeout"`
	ReadTimeout       time.Duration     `mapstructure:"read_timeout" yaml:"read_timeout"`
	BufferSize        int               `mapstructure:"buffer_size" yaml:"buffer_size"`
	UserAgent         string            `mapstructure:"user_agent" yaml:"user_agent"`
	Headers           map[string]string `mapstructure:"headers" yaml:"headers"`
	RateLimit         float64           `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst         int               `mapstructure:"rate_burst" yaml:"rate_burst"`
}

// TransmuxConfig contains the container remuxer settings
type TransmuxConfig struct {
	FFmpegPath string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
}

// OutputConfig contains output settings
type OutputConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Metrics  bool   `mapstructure:"metrics" yaml:"metrics"`
	Progress bool   `mapstructure:"progress" yaml:"progress"`
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom loads configuration from v
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	config := &Config{}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Download.MaxRetry < 1 {
		return fmt.Errorf("download max retry must be at least 1")
	}

	if config.Download.Concurrency < 1 {
		return fmt.Errorf("download concurrency must be at least 1")
	}

	if config.Download.RetryDelay < 0 {
		return fmt.Errorf("download retry delay cannot be negative")
	}

	if _, ok := common.ParseOutputKind(config.Download.OutputKind); !ok {
		return fmt.Errorf("unknown output kind %q (expected container or raw)", config.Download.OutputKind)
	}

	if config.Stream.ConnectionTimeout <= 0 || config.Stream.ReadTimeout <= 0 {
		return fmt.Errorf("stream timeouts must be positive")
	}

	if config.Stream.RateLimit < 0 {
		return fmt.Errorf("stream rate limit cannot be negative")
	}

	switch common.NormalizeToken(config.OutputFormat) {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", config.OutputFormat)
	}

	if _, ok := ParseLogLevel(config.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q (expected debug, info, warn or error)", config.LogLevel)
	}

	return nil
}

// ParseLogLevel maps a log_level value onto a logging level. An empty value
// means info.
func ParseLogLevel(s string) (logging.Level, bool) {
	switch common.NormalizeToken(s) {
	case "debug":
		return logging.DebugLevel, true
	case "", "info":
		return logging.InfoLevel, true
	case "warn", "warning":
		return logging.WarnLevel, true
	case "error":
		return logging.ErrorLevel, true
	default:
		return logging.InfoLevel, false
	}
}

// ToDownloadConfig converts the download section for the HLS downloader
func (c *Config) ToDownloadConfig() (*hls.DownloadConfig, error) {
	kind, ok := common.ParseOutputKind(c.Download.OutputKind)
	if !ok {
		return nil, fmt.Errorf("unknown output kind %q", c.Download.OutputKind)
	}

	return &hls.DownloadConfig{
		MaxRetry:    c.Download.MaxRetry,
		Concurrency: c.Download.Concurrency,
		OutputKind:  kind,
		RetryDelay:  c.Download.RetryDelay,
	}, nil
}

// ToHTTPConfig converts the stream section for the HLS fetcher
func (c *Config) ToHTTPConfig() *hls.HTTPConfig {
	headers := make(map[string]string, len(c.Stream.Headers))
	for k, v := range c.Stream.Headers {
		headers[k] = common.CleanHeaderValue(v)
	}

	return &hls.HTTPConfig{
		UserAgent:         c.Stream.UserAgent,
		Headers:           headers,
		ConnectionTimeout: c.Stream.ConnectionTimeout,
		ReadTimeout:       c.Stream.ReadTimeout,
		BufferSize:        c.Stream.BufferSize,
		RateLimit:         c.Stream.RateLimit,
		RateBurst:         c.Stream.RateBurst,
	}
}

// ToTransmuxConfig converts the transmux section
func (c *Config) ToTransmuxConfig() *transmux.Config {
	return &transmux.Config{FFmpegPath: c.Transmux.FFmpegPath}
}
