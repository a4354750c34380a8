package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/hls2mp4/configs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configFile   string
	verbose      bool
	logLevel     string
	logFile      string
	outputFormat string
)

// flagKeys maps flag names onto nested viper keys. Flags not listed bind to
// their own name with dashes turned into underscores.
var flagKeys = map[string]string{
	"output":       "output_format",
	"concurrency":  "download.concurrency",
	"max-retry":    "download.max_retry",
	"retry-delay":  "download.retry_delay",
	"output-kind":  "download.output_kind",
	"out-dir":      "output.dir",
	"metrics":      "output.metrics",
	"ffmpeg":       "transmux.ffmpeg_path",
	"user-agent":   "stream.user_agent",
	"rate-limit":   "stream.rate_limit",
	"read-timeout": "stream.read_timeout",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hls2mp4",
	Short: "Download HLS presentations into a single file",
	Long: `hls2mp4 downloads an HTTP Live Streaming presentation and reassembles it
into one playable file.

Master playlists are followed down to the highest resolution variant, segments
are fetched in bounded concurrent batches with per-resource retries, AES-128
encrypted segments are decrypted, and the result is either concatenated as
MPEG-TS or remuxed into fragmented MP4 through ffmpeg.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/hls2mp4/hls2mp4.yaml)")

	// Output and logging flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"also write logs to this file (reopened on SIGHUP)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"report format (table, json, yaml)")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(configFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		// Search config in home directory and /etc
		viper.AddConfigPath(home)
		viper.AddConfigPath(filepath.Join(home, ".config", "hls2mp4"))
		viper.AddConfigPath("/etc/hls2mp4")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("hls2mp4")
		viper.SetConfigType("yaml")
	}

	// Environment variable support and defaults
	configs.Configure(viper.GetViper())

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}
}

// initializeConfig initializes configuration after flags are parsed
func initializeConfig(cmd *cobra.Command) error {
	// Bind all flags to viper
	return bindFlags(cmd, viper.GetViper())
}

// bindFlags binds each changed cobra flag to its associated viper key so
// flags win over the config file, which wins over defaults
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}

		if err := v.BindPFlag(flagKey(f.Name), f); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

func flagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// GetConfig returns the current viper instance
func GetConfig() *viper.Viper {
	return viper.GetViper()
}
