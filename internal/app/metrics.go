package app

import (
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/tunein/go-logging/v7/pkg/rootcollector"
)

const (
	metricDownloadDuration = "hls2mp4.download.duration.milliseconds"
	metricDownloadBytes    = "hls2mp4.download.bytes"
	metricDownloadSegments = "hls2mp4.download.segments"
)

// collectDownloadMetrics sends per download metrics to rootcollector
func (app *App) collectDownloadMetrics(report *DownloadReport) {
	if report == nil || report.Error != "" {
		return
	}

	tags := metricTags(report)

	rootcollector.Metric(metricDownloadDuration, report.ElapsedMs, tags)
	rootcollector.Metric(metricDownloadBytes, report.Bytes, tags)
	rootcollector.Metric(metricDownloadSegments, int64(report.Segments), tags)

	app.logger.Debug("Download metrics sent", logging.Fields{
		"job_name": report.Name,
		"tags":     tags,
	})
}

func metricTags(report *DownloadReport) []string {
	return []string{
		"job:" + report.Name,
		"output_kind:" + report.OutputKind,
	}
}
