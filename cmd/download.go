package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/hls2mp4/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	downloadName       string
	downloadNoProgress bool
)

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download one HLS presentation",
	Long: `Download an HLS presentation and write it to <out-dir>/<name>.<ext>.

The extension is mp4 for container output and ts for raw output.

Examples:
  # Remux the best variant into fragmented MP4
  hls2mp4 download https://example.com/live/master.m3u8

  # Keep the cleaned MPEG-TS, fetching 4 segments at a time
  hls2mp4 download --output-kind raw --concurrency 4 --name show https://example.com/show/index.m3u8`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	addDownloadFlags(downloadCmd)

	downloadCmd.Flags().StringVar(&downloadName, "name", "",
		"output file name without extension (default derived from the url)")
}

// addDownloadFlags registers the acquisition flags shared by download and batch
func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-kind", "container", "output kind (container, raw)")
	cmd.Flags().Int("concurrency", 10, "segments fetched per batch")
	cmd.Flags().Int("max-retry", 3, "attempts per playlist, key and segment")
	cmd.Flags().Duration("retry-delay", 0, "pause between attempts")
	cmd.Flags().String("out-dir", ".", "directory output files are written to")
	cmd.Flags().String("ffmpeg", "ffmpeg", "ffmpeg binary used for container output")
	cmd.Flags().String("user-agent", "", "User-Agent header sent with every request")
	cmd.Flags().Float64("rate-limit", 0, "maximum requests per second (0 disables)")
	cmd.Flags().Duration("read-timeout", 0, "per request timeout")
	cmd.Flags().Bool("metrics", false, "send download metrics")
	cmd.Flags().BoolVar(&downloadNoProgress, "no-progress", false, "disable the progress bar")
}

func progressEnabled() bool {
	return !downloadNoProgress && viper.GetBool("output.progress")
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &app.Context{}
	application, err := newApp(appCtx)
	if err != nil {
		return err
	}
	defer application.Close()

	job := app.Job{Name: downloadName, URL: args[0]}

	var bar *progressBar
	if progressEnabled() {
		label := downloadName
		if label == "" {
			label = args[0]
		}
		bar = newProgressBar(os.Stderr, label)
		appCtx.OnProgress = bar.Update
	}

	report, err := application.Download(ctx, job)
	if bar != nil {
		bar.Finish(err)
	}
	if report == nil {
		return err
	}

	if format := viper.GetString("output_format"); format != "table" {
		if ferr := writeFormatted(format, report); ferr != nil {
			return ferr
		}
	} else {
		printDownloadReport(report)
	}

	return err
}
