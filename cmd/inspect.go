package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RyanBlaney/hls2mp4/internal/app"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/hls"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	inspectTimeout time.Duration
	inspectProbe   bool
)

// inspectReport is the structured form of the inspect command output
type inspectReport struct {
	URL         string               `json:"url" yaml:"url"`
	URLLooksHLS bool                 `json:"url_looks_hls" yaml:"url_looks_hls"`
	Probe       *hls.ProbeResult     `json:"probe,omitempty" yaml:"probe,omitempty"`
	ProbeError  string               `json:"probe_error,omitempty" yaml:"probe_error,omitempty"`
	Playlist    *hls.PlaylistSummary `json:"playlist" yaml:"playlist"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [url]",
	Short: "Summarize an HLS playlist without downloading segments",
	Long: `Fetch one playlist and report its structure: variants and the variant
the downloader would pick for master playlists; target duration, media
sequence, segment count, total duration and key URIs for media playlists.

Examples:
  # Human readable summary
  hls2mp4 inspect https://example.com/live/master.m3u8

  # Machine readable, with a HEAD probe of the URL
  hls2mp4 inspect --probe -o json https://example.com/live/master.m3u8`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().DurationVar(&inspectTimeout, "timeout", 30*time.Second,
		"operation timeout")
	inspectCmd.Flags().BoolVar(&inspectProbe, "probe", false,
		"issue a HEAD request and report the content type")
}

func runInspect(cmd *cobra.Command, args []string) error {
	url := args[0]

	if err := hls.ValidateURL(url); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), inspectTimeout)
	defer cancel()

	application, err := newApp(&app.Context{})
	if err != nil {
		return err
	}
	defer application.Close()

	report := &inspectReport{
		URL:         url,
		URLLooksHLS: hls.LooksLikePlaylistURL(url),
	}

	if inspectProbe {
		probe, err := application.Probe(ctx, url)
		if err != nil {
			report.ProbeError = err.Error()
		} else {
			report.Probe = probe
		}
	}

	summary, err := application.Inspect(ctx, url)
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}
	report.Playlist = summary

	if format := viper.GetString("output_format"); format != "table" {
		return writeFormatted(format, report)
	}

	printInspectReport(report)
	return nil
}

func printInspectReport(report *inspectReport) {
	printSection("PLAYLIST")
	printKeyValue("URL", report.URL)
	printKeyValue("URL Pattern", yesNo(report.URLLooksHLS))
	if report.Probe != nil {
		printKeyValue("HTTP Status", fmt.Sprintf("%d", report.Probe.StatusCode))
		printKeyValue("Content Type", report.Probe.ContentType)
		printKeyValue("Playlist Content Type", yesNo(report.Probe.IsPlaylist))
	}
	if report.ProbeError != "" {
		printKeyValue("Probe Error", report.ProbeError)
	}

	summary := report.Playlist
	printKeyValue("Type", summary.Type)

	switch summary.Type {
	case "master":
		printSection("VARIANTS")
		for i, v := range summary.Variants {
			details := []string{fmt.Sprintf("%d bps", v.Bandwidth)}
			if v.Resolution != "" {
				details = append(details, v.Resolution)
			}
			if v.Codecs != "" {
				details = append(details, v.Codecs)
			}
			printKeyValue(fmt.Sprintf("%d. %s", i+1, v.URI), strings.Join(details, ", "))
		}
		if summary.Selected != "" {
			printKeyValue("Selected", summary.Selected)
		}

	case "media":
		printKeyValue("Target Duration", fmt.Sprintf("%.0fs", summary.TargetDuration))
		printKeyValue("Media Sequence", fmt.Sprintf("%d", summary.MediaSequence))
		printKeyValue("Segments", fmt.Sprintf("%d", summary.Segments))
		printKeyValue("Total Duration", common.FormatDuration(time.Duration(summary.TotalDuration*float64(time.Second))))
		printKeyValue("Live", yesNo(!summary.Closed))
		for _, key := range summary.Keys {
			printKeyValue("Key", key)
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
