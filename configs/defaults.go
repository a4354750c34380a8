package configs

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys
const EnvPrefix = "HLS2MP4"

// Configure wires environment variable lookup and defaults into v
func Configure(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// SetDefaults sets default configuration values for all components
func SetDefaults(v *viper.Viper) {
	defaults := GetDefaultConfig()

	// Application defaults
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("output_format", defaults.OutputFormat)

	// Download defaults
	v.SetDefault("download.max_retry", defaults.Download.MaxRetry)
	v.SetDefault("download.concurrency", defaults.Download.Concurrency)
	v.SetDefault("download.output_kind", defaults.Download.OutputKind)
	v.SetDefault("download.retry_delay", defaults.Download.RetryDelay)

	// Stream defaults
	v.SetDefault("stream.connection_timeout", defaults.Stream.ConnectionTimeout)
	v.SetDefault("stream.read_timeout", defaults.Stream.ReadTimeout)
	v.SetDefault("stream.buffer_size", defaults.Stream.BufferSize)
	v.SetDefault("stream.user_agent", defaults.Stream.UserAgent)
	v.SetDefault("stream.headers", defaults.Stream.Headers)
	v.SetDefault("stream.rate_limit", defaults.Stream.RateLimit)
	v.SetDefault("stream.rate_burst", defaults.Stream.RateBurst)

	// Transmux defaults
	v.SetDefault("transmux.ffmpeg_path", defaults.Transmux.FFmpegPath)

	// Output defaults
	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.metrics", defaults.Output.Metrics)
	v.SetDefault("output.progress", defaults.Output.Progress)
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		LogFile:      "",
		OutputFormat: "table",

		Download: GetDefaultDownloadConfig(),
		Stream:   GetDefaultStreamConfig(),
		Transmux: TransmuxConfig{FFmpegPath: "ffmpeg"},
		Output:   GetDefaultOutputConfig(),
	}
}

// GetDefaultDownloadConfig returns default acquisition settings
func GetDefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		MaxRetry:    3,
		Concurrency: 10,
		OutputKind:  "container",
		RetryDelay:  0,
	}
}

// GetDefaultStreamConfig returns default stream handling settings
func GetDefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ConnectionTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		BufferSize:        32 * 1024,
		UserAgent:         "hls2mp4/1.0",
		Headers:           make(map[string]string),
		RateLimit:         0,
		RateBurst:         1,
	}
}

// GetDefaultOutputConfig returns default output settings
func GetDefaultOutputConfig() OutputConfig {
	return OutputConfig{
		Dir:      ".",
		Metrics:  false,
		Progress: true,
	}
}

// GetDevelopmentStreamConfig returns stream settings that go easy on origin
// servers while iterating locally
func GetDevelopmentStreamConfig() StreamConfig {
	config := GetDefaultStreamConfig()
	config.ConnectionTimeout = 5 * time.Second
	config.ReadTimeout = 15 * time.Second
	config.RateLimit = 5
	config.RateBurst = 5
	return config
}
