package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/RyanBlaney/hls2mp4/configs"
	"github.com/RyanBlaney/hls2mp4/internal/app"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/RyanBlaney/latency-benchmark-common/output"
	"github.com/spf13/viper"
)

// newApp builds the application from the merged flag, env and file config
func newApp(appCtx *app.Context) (*app.App, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, err
	}

	appCtx.ConfigFile = viper.ConfigFileUsed()
	appCtx.Config = config
	return app.NewApp(appCtx)
}

// writeFormatted prints data as JSON or YAML on stdout
func writeFormatted(format string, data any) error {
	var formatter output.Formatter
	switch common.NormalizeToken(format) {
	case "yaml":
		formatter = &output.YAMLFormatter{}
	default:
		formatter = &output.JSONFormatter{}
	}

	formatted, err := formatter.Format(data, true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	_, err = os.Stdout.Write(formatted)
	return err
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-28s\n", key)
	} else {
		fmt.Printf("%-28s %s\n", key+":", value)
	}
}

func printDownloadReport(report *app.DownloadReport) {
	printSection(report.Name)
	printKeyValue("URL", report.URL)
	if report.PlaylistURL != "" && report.PlaylistURL != report.URL {
		printKeyValue("Media Playlist", report.PlaylistURL)
	}
	printKeyValue("Output Kind", report.OutputKind)
	if report.Error != "" {
		printKeyValue("Error", report.Error)
		if report.ErrorCode != "" {
			printKeyValue("Error Code", report.ErrorCode)
		}
		return
	}
	printKeyValue("File", report.File)
	printKeyValue("Segments", fmt.Sprintf("%d in %d group(s)", report.Segments, report.Groups))
	printKeyValue("Downloaded", common.FormatBytes(report.Bytes))
	printKeyValue("Media Duration", fmt.Sprintf("%.3fs", report.DurationSeconds))
	printKeyValue("Elapsed", fmt.Sprintf("%dms", report.ElapsedMs))
}
