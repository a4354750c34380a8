package transmux

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/hls"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

const DefaultFFmpegPath = "ffmpeg"

// Config holds the ffmpeg transmuxer settings
type Config struct {
	FFmpegPath string         `json:"ffmpeg_path"`
	Logger     logging.Logger `json:"-"`
}

// FFmpeg remuxes MPEG-TS into fragmented MP4 by running one ffmpeg process
// per flush. Timestamps are copied through so fragments from separate flushes
// line up on one timeline.
type FFmpeg struct {
	path    string
	pending bytes.Buffer
	logger  logging.Logger
}

// NewFFmpeg creates a transmuxer after checking that the ffmpeg binary exists
func NewFFmpeg(config *Config, duration time.Duration) (*FFmpeg, error) {
	if config == nil {
		config = &Config{}
	}

	name := config.FFmpegPath
	if name == "" {
		name = DefaultFFmpegPath
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &FFmpeg{
		path: path,
		logger: logger.WithFields(logging.Fields{
			"component":        "ffmpeg_transmuxer",
			"ffmpeg_path":      path,
			"duration_seconds": duration.Seconds(),
		}),
	}, nil
}

// Factory returns an hls.TransmuxerFactory producing FFmpeg transmuxers
func Factory(config *Config) hls.TransmuxerFactory {
	return func(duration time.Duration) (hls.Transmuxer, error) {
		return NewFFmpeg(config, duration)
	}
}

// Push queues transport stream bytes for the next flush
func (f *FFmpeg) Push(data []byte) error {
	_, err := f.pending.Write(data)
	return err
}

// Flush remuxes everything pushed since the previous flush
func (f *FFmpeg) Flush(ctx context.Context) (*hls.MuxedChunk, error) {
	if f.pending.Len() == 0 {
		return &hls.MuxedChunk{}, nil
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.path, Args()...)
	cmd.Stdin = bytes.NewReader(f.pending.Bytes())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	startTime := time.Now()
	err := cmd.Run()
	f.pending.Reset()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	initSegment, media, err := SplitFragmented(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Transmuxed chunk", logging.Fields{
		"init_bytes":  len(initSegment),
		"media_bytes": len(media),
		"elapsed":     time.Since(startTime).String(),
	})

	return &hls.MuxedChunk{InitSegment: initSegment, Data: media}, nil
}

// Close drops any bytes not yet flushed
func (f *FFmpeg) Close() error {
	f.pending.Reset()
	return nil
}

// Args returns the ffmpeg arguments used for each flush
func Args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "mpegts",
		"-i", "pipe:0",
		"-c", "copy",
		"-copyts",
		"-bsf:a", "aac_adtstoasc",
		"-f", "mp4",
		"-movflags", "frag_keyframe+empty_moov+default_base_moof",
		"pipe:1",
	}
}
