package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/hls2mp4/configs"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/hls"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/transmux"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/google/uuid"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ConfigFile string // Application configuration file (optional)
	OutputDir  string // Overrides output.dir when set

	// Runtime context
	Logger     logging.Logger
	Config     *configs.Config
	OnProgress hls.ProgressFunc

	// OnJobStart and OnJobDone bracket every job run by RunJobs
	OnJobStart func(index int, job Job)
	OnJobDone  func(index int, report *DownloadReport, err error)

	// Fetcher and Transmuxer replace the HTTP fetcher and the ffmpeg
	// transmuxer when set
	Fetcher    hls.Fetcher
	Transmuxer hls.TransmuxerFactory
}

// App handles the download application lifecycle
type App struct {
	ctx    *Context
	config *configs.Config
	logger  logging.Logger
	logFile io.Closer
	runID   string
}

// DownloadReport describes one finished (or failed) job
type DownloadReport struct {
	Name            string  `json:"name" yaml:"name"`
	URL             string  `json:"url" yaml:"url"`
	PlaylistURL     string  `json:"playlist_url,omitempty" yaml:"playlist_url,omitempty"`
	File            string  `json:"file,omitempty" yaml:"file,omitempty"`
	OutputKind      string  `json:"output_kind" yaml:"output_kind"`
	Segments        int     `json:"segments" yaml:"segments"`
	Groups          int     `json:"groups" yaml:"groups"`
	Bytes           int64   `json:"bytes" yaml:"bytes"`
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
	ElapsedMs       int64   `json:"elapsed_ms" yaml:"elapsed_ms"`
	Error           string  `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCode       string  `json:"error_code,omitempty" yaml:"error_code,omitempty"`
}

// BatchReport summarizes a jobs file run
type BatchReport struct {
	RunID      string            `json:"run_id" yaml:"run_id"`
	StartTime  time.Time         `json:"start_time" yaml:"start_time"`
	EndTime    time.Time         `json:"end_time" yaml:"end_time"`
	Successful int               `json:"successful" yaml:"successful"`
	Failed     int               `json:"failed" yaml:"failed"`
	Downloads  []*DownloadReport `json:"downloads" yaml:"downloads"`
}

// NewApp creates a new application
func NewApp(ctx *Context) (*App, error) {
	config := ctx.Config
	if config == nil {
		var err error
		config, err = configs.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		ctx.Config = config
	}

	if ctx.OutputDir != "" {
		config.Output.Dir = ctx.OutputDir
	}

	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	base, logFile, err := setupLogging(ctx, config)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := base.WithFields(logging.Fields{
		"component": "hls2mp4",
		"run_id":    runID,
	})
	ctx.Logger = log

	log.Debug("Application initialized", logging.Fields{
		"config_file": ctx.ConfigFile,
		"output_dir":  config.Output.Dir,
		"output_kind": config.Download.OutputKind,
		"concurrency": config.Download.Concurrency,
		"max_retry":   config.Download.MaxRetry,
	})

	return &App{
		ctx:     ctx,
		config:  config,
		logger:  log,
		logFile: logFile,
		runID:   runID,
	}, nil
}

// Close releases the log file, if one was opened
func (app *App) Close() error {
	if app.logFile == nil {
		return nil
	}
	err := app.logFile.Close()
	app.logFile = nil
	return err
}

// RunID returns the identifier attached to every log line of this run
func (app *App) RunID() string {
	return app.runID
}

// Config returns the effective configuration
func (app *App) Config() *configs.Config {
	return app.config
}

// Download acquires one job and writes its output under output.dir
func (app *App) Download(ctx context.Context, job Job) (*DownloadReport, error) {
	downloadConfig, err := app.config.ToDownloadConfig()
	if err != nil {
		return nil, err
	}
	if job.OutputKind != "" {
		kind, ok := common.ParseOutputKind(job.OutputKind)
		if !ok {
			return nil, fmt.Errorf("job %q: unknown output kind %q", job.Name, job.OutputKind)
		}
		downloadConfig.OutputKind = kind
	}

	name := job.Name
	if name == "" {
		name = common.FileNameFromURL(job.URL, "download")
	}

	report := &DownloadReport{
		Name:       name,
		URL:        job.URL,
		OutputKind: string(downloadConfig.OutputKind),
	}

	downloader := app.newDownloader(downloadConfig, name)
	downloader.SetProgressCallback(app.ctx.OnProgress)

	result, err := downloader.DownloadWithResult(ctx, job.URL)
	if err != nil {
		report.Error = err.Error()
		report.ErrorCode = common.ErrorCode(err)
		return report, fmt.Errorf("download %q failed: %w", name, err)
	}

	report.PlaylistURL = result.PlaylistURL
	report.Segments = result.Segments
	report.Groups = result.Groups
	report.Bytes = result.Bytes
	report.DurationSeconds = result.Duration.Seconds()
	report.ElapsedMs = result.Elapsed.Milliseconds()

	file, err := app.writeOutput(name, downloadConfig.OutputKind, result.Data)
	if err != nil {
		report.Error = err.Error()
		return report, err
	}
	report.File = file

	if app.config.Output.Metrics {
		app.collectDownloadMetrics(report)
	}

	return report, nil
}

// RunJobs downloads jobs one after another. A failed job is recorded in the
// report and does not stop the remaining ones.
func (app *App) RunJobs(ctx context.Context, jobs []Job) (*BatchReport, error) {
	report := &BatchReport{
		RunID:     app.runID,
		StartTime: time.Now(),
	}

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		app.logger.Info("Starting job", logging.Fields{
			"job_index": i,
			"job_name":  job.Name,
			"job_url":   job.URL,
		})

		if app.ctx.OnJobStart != nil {
			app.ctx.OnJobStart(i, job)
		}

		download, err := app.Download(ctx, job)
		if app.ctx.OnJobDone != nil {
			app.ctx.OnJobDone(i, download, err)
		}
		if err != nil {
			app.logger.Error(err, "Job failed", logging.Fields{"job_index": i, "job_name": job.Name})
			report.Failed++
			if download == nil {
				download = &DownloadReport{Name: job.Name, URL: job.URL, OutputKind: job.OutputKind, Error: err.Error()}
			}
		} else {
			report.Successful++
		}
		report.Downloads = append(report.Downloads, download)
	}

	report.EndTime = time.Now()

	if report.Failed > 0 && report.Successful == 0 {
		return report, fmt.Errorf("all %d jobs failed", report.Failed)
	}
	return report, nil
}

// Inspect fetches url and summarizes its playlist without downloading segments
func (app *App) Inspect(ctx context.Context, url string) (*hls.PlaylistSummary, error) {
	downloadConfig, err := app.config.ToDownloadConfig()
	if err != nil {
		return nil, err
	}
	return app.newDownloader(downloadConfig, "inspect").InspectPlaylist(ctx, url)
}

// Probe issues a HEAD request against url
func (app *App) Probe(ctx context.Context, url string) (*hls.ProbeResult, error) {
	return hls.NewHTTPFetcher(nil, app.config.ToHTTPConfig()).Probe(ctx, url)
}

func (app *App) newDownloader(downloadConfig *hls.DownloadConfig, name string) *hls.Downloader {
	hlsConfig := hls.DefaultConfig()
	hlsConfig.HTTP = app.config.ToHTTPConfig()
	hlsConfig.Logger = app.logger.WithFields(logging.Fields{"job_name": name})

	hlsConfig.Transmuxer = app.ctx.Transmuxer
	if hlsConfig.Transmuxer == nil {
		transmuxConfig := app.config.ToTransmuxConfig()
		transmuxConfig.Logger = hlsConfig.Logger
		hlsConfig.Transmuxer = transmux.Factory(transmuxConfig)
	}

	return hls.NewDownloader(app.ctx.Fetcher, downloadConfig, hlsConfig)
}

// writeOutput persists data as <dir>/<name>.<ext>
func (app *App) writeOutput(name string, kind common.OutputKind, data []byte) (string, error) {
	dir := app.config.Output.Dir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	file := filepath.Join(dir, name+"."+kind.Extension())
	if err := os.WriteFile(file, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Output written to file", logging.Fields{
		"output_file": file,
		"size_bytes":  len(data),
		"mime_type":   kind.MimeType(),
	})

	return file, nil
}
