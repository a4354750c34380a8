package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RyanBlaney/hls2mp4/configs"
	"github.com/RyanBlaney/hls2mp4/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hls2mp4 configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write an example config file and jobs file",
	Long: `Write hls2mp4.yaml holding every setting at its default value and
jobs.yaml holding two example jobs into dir (default is the current directory).

Examples:
  hls2mp4 config init
  hls2mp4 config init ~/.config/hls2mp4`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Load the configuration from defaults, the config file, HLS2MP4_*
environment variables and flags, then display every value.

Examples:
  hls2mp4 config show
  hls2mp4 --config /path/to/hls2mp4.yaml config show -o yaml`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	configPath := filepath.Join(dir, "hls2mp4.yaml")
	if err := app.GenerateExampleConfig(configPath); err != nil {
		return err
	}
	fmt.Printf("Example configuration written to: %s\n", configPath)

	jobsPath := filepath.Join(dir, "jobs.yaml")
	if err := app.GenerateExampleJobs(jobsPath); err != nil {
		return err
	}
	fmt.Printf("Example jobs file written to: %s\n", jobsPath)

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if format := viper.GetString("output_format"); format != "table" {
		return writeFormatted(format, config)
	}

	fmt.Println("HLS2MP4 CONFIGURATION")
	fmt.Println(strings.Repeat("=", 60))

	file := viper.ConfigFileUsed()
	if file == "" {
		file = "(none, defaults and environment only)"
	}
	printKeyValue("Config File", file)

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Log File", config.LogFile)
	printKeyValue("Output Format", config.OutputFormat)

	printSection("DOWNLOAD")
	printKeyValue("Max Retry", fmt.Sprintf("%d", config.Download.MaxRetry))
	printKeyValue("Concurrency", fmt.Sprintf("%d", config.Download.Concurrency))
	printKeyValue("Output Kind", config.Download.OutputKind)
	printKeyValue("Retry Delay", config.Download.RetryDelay.String())

	printSection("STREAM")
	printKeyValue("Connection Timeout", config.Stream.ConnectionTimeout.String())
	printKeyValue("Read Timeout", config.Stream.ReadTimeout.String())
	printKeyValue("Buffer Size", fmt.Sprintf("%d", config.Stream.BufferSize))
	printKeyValue("User Agent", config.Stream.UserAgent)
	printKeyValue("Rate Limit", fmt.Sprintf("%g req/s (burst %d)", config.Stream.RateLimit, config.Stream.RateBurst))
	if len(config.Stream.Headers) > 0 {
		names := make([]string, 0, len(config.Stream.Headers))
		for name := range config.Stream.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			printKeyValue("Header "+name, config.Stream.Headers[name])
		}
	}

	printSection("TRANSMUX")
	printKeyValue("FFmpeg Path", config.Transmux.FFmpegPath)

	printSection("OUTPUT")
	printKeyValue("Directory", config.Output.Dir)
	printKeyValue("Metrics", fmt.Sprintf("%t", config.Output.Metrics))
	printKeyValue("Progress", fmt.Sprintf("%t", config.Output.Progress))

	if err := configs.ValidateConfig(config); err != nil {
		printSection("VALIDATION")
		printKeyValue("Error", err.Error())
		return err
	}

	return nil
}
