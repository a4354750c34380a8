package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/hls2mp4/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var batchCmd = &cobra.Command{
	Use:   "batch [jobs-file]",
	Short: "Download every job listed in a jobs file",
	Long: `Download the jobs listed in a YAML or JSON jobs file one after another.

A failed job is reported and the remaining jobs still run. The command fails
only when every job failed.

Examples:
  # Write an example jobs file, then run it
  hls2mp4 config init
  hls2mp4 batch jobs.yaml --out-dir ./downloads -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addDownloadFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs, err := app.LoadJobs(args[0])
	if err != nil {
		return err
	}

	appCtx := &app.Context{}
	if progressEnabled() {
		var bar *progressBar
		appCtx.OnJobStart = func(index int, job app.Job) {
			label := job.Name
			if label == "" {
				label = job.URL
			}
			bar = newProgressBar(os.Stderr, fmt.Sprintf("[%d/%d] %s", index+1, len(jobs.Jobs), label))
			appCtx.OnProgress = bar.Update
		}
		appCtx.OnJobDone = func(_ int, _ *app.DownloadReport, err error) {
			bar.Finish(err)
		}
	}

	application, err := newApp(appCtx)
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.RunJobs(ctx, jobs.Jobs)

	if format := viper.GetString("output_format"); format != "table" {
		if ferr := writeFormatted(format, report); ferr != nil {
			return ferr
		}
	} else {
		for _, download := range report.Downloads {
			printDownloadReport(download)
		}
		printSection("SUMMARY")
		printKeyValue("Run ID", report.RunID)
		printKeyValue("Successful", fmt.Sprintf("%d", report.Successful))
		printKeyValue("Failed", fmt.Sprintf("%d", report.Failed))
	}

	return err
}
