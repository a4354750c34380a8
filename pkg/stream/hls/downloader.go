package hls

import (
	"context"
	"sync"
	"time"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"golang.org/x/sync/errgroup"
)

// Downloader acquires an HLS presentation and reassembles it into a single
// byte stream. A Downloader holds no per-download state and may run several
// downloads concurrently.
type Downloader struct {
	fetcher    Fetcher
	config     *DownloadConfig
	hlsConfig  *Config
	onProgress ProgressFunc
	logger     logging.Logger
}

// Result describes a finished download
type Result struct {
	Data        []byte            `json:"-"`
	PlaylistURL string            `json:"playlist_url"`
	Segments    int               `json:"segments"`
	Groups      int               `json:"groups"`
	Duration    time.Duration     `json:"duration"`
	Bytes       int64             `json:"bytes"`
	Elapsed     time.Duration     `json:"elapsed"`
	OutputKind  common.OutputKind `json:"output_kind"`
}

// NewDownloader creates a new downloader. A nil fetcher uses HTTPFetcher
// built from the HTTP section of hlsConfig.
func NewDownloader(fetcher Fetcher, config *DownloadConfig, hlsConfig *Config) *Downloader {
	if config == nil {
		config = DefaultDownloadConfig()
	}
	if hlsConfig == nil {
		hlsConfig = DefaultConfig()
	}
	if hlsConfig.Parser == nil {
		hlsConfig.Parser = DefaultParserConfig()
	}
	if fetcher == nil {
		fetcher = NewHTTPFetcher(nil, hlsConfig.HTTP)
	}

	logger := hlsConfig.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &Downloader{
		fetcher:   fetcher,
		config:    config,
		hlsConfig: hlsConfig,
		logger:    logger.WithFields(logging.Fields{"component": "hls_downloader"}),
	}
}

// SetProgressCallback registers the progress sink used by later downloads
func (d *Downloader) SetProgressCallback(fn ProgressFunc) {
	d.onProgress = fn
}

// Download fetches url and returns the reassembled output
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	result, err := d.DownloadWithResult(ctx, url)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// DownloadWithResult fetches url and returns the output with download
// statistics. Any fatal error aborts the whole download.
func (d *Downloader) DownloadWithResult(ctx context.Context, url string) (*Result, error) {
	startTime := time.Now()
	onProgress := d.onProgress

	if err := d.config.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateURL(url); err != nil {
		return nil, err
	}
	if d.config.OutputKind == common.OutputContainer && d.hlsConfig.Transmuxer == nil {
		return nil, common.NewStreamError(common.ResourceOutput, url, common.ErrCodeInvalidConfig,
			"container output requires a transmuxer", nil)
	}

	logger := d.logger.WithFields(logging.Fields{
		"playlist_url": url,
		"output_kind":  string(d.config.OutputKind),
	})
	logger.Info("Starting HLS download")

	onProgress.report(StageParsePlaylist, 0)
	playlist, err := d.resolvePlaylist(ctx, url, logger)
	if err != nil {
		logger.Error(err, "Playlist resolution failed")
		return nil, err
	}
	onProgress.report(StageParsePlaylist, 1)

	groups, err := ExtractSegments(playlist.URL, playlist.Content)
	if err != nil {
		logger.Error(err, "Segment extraction failed")
		return nil, err
	}
	duration := TotalDuration(playlist.Content)
	total := CountSegments(groups)

	logger.Debug("Media playlist resolved", logging.Fields{
		"media_playlist_url": playlist.URL,
		"segments":           total,
		"groups":             len(groups),
		"duration_seconds":   duration.Seconds(),
	})

	store, err := d.acquire(ctx, groups, onProgress, logger)
	if err != nil {
		logger.Error(err, "Segment acquisition failed")
		return nil, err
	}

	onProgress.report(StageReassemble, 0)
	var data []byte
	if d.config.OutputKind == common.OutputRaw {
		data, err = Merge(store.buffers)
	} else {
		data, err = d.transmux(ctx, store.buffers, duration, onProgress)
	}
	if err != nil {
		logger.Error(err, "Reassembly failed")
		return nil, err
	}
	onProgress.report(StageReassemble, 1)

	result := &Result{
		Data:        data,
		PlaylistURL: playlist.URL,
		Segments:    total,
		Groups:      len(groups),
		Duration:    duration,
		Bytes:       store.bytes,
		Elapsed:     time.Since(startTime),
		OutputKind:  d.config.OutputKind,
	}

	logger.Info("HLS download completed", logging.Fields{
		"segments":     result.Segments,
		"bytes":        result.Bytes,
		"output_bytes": len(data),
		"elapsed":      result.Elapsed.String(),
	})

	return result, nil
}

// ResolvePlaylist follows url down to its media playlist, retrying each
// playlist fetch
func (d *Downloader) ResolvePlaylist(ctx context.Context, url string) (*Playlist, error) {
	return d.resolvePlaylist(ctx, url, d.logger)
}

func (d *Downloader) resolvePlaylist(ctx context.Context, url string, logger logging.Logger) (*Playlist, error) {
	fetchText := func(ctx context.Context, playlistURL string) (string, error) {
		return fetchWithRetry(ctx, logger, playlistURL, d.config.MaxRetry, d.config.RetryDelay,
			func(ctx context.Context) (string, error) {
				return d.fetcher.FetchText(ctx, playlistURL)
			})
	}
	return ResolvePlaylist(ctx, url, fetchText, d.hlsConfig.Parser)
}

// Acquire downloads every segment of groups and returns the processed
// buffers indexed by presentation order
func (d *Downloader) Acquire(ctx context.Context, groups []SegmentGroup) ([][]byte, error) {
	store, err := d.acquire(ctx, groups, d.onProgress, d.logger)
	if err != nil {
		return nil, err
	}
	return store.buffers, nil
}

func (d *Downloader) acquire(ctx context.Context, groups []SegmentGroup, onProgress ProgressFunc, logger logging.Logger) (*segmentStore, error) {
	store := newSegmentStore(CountSegments(groups), onProgress)
	onProgress.report(StageDownloadSegments, 0)

	offset := 0
	for groupIndex, group := range groups {
		count := len(group.Segments)
		if count == 0 {
			// nothing to decrypt, so the group's key is never fetched
			continue
		}

		var key []byte
		if group.Context.Encrypted() {
			keyURL := group.Context.KeyURL
			fetched, err := fetchWithRetry(ctx, logger, keyURL, d.config.MaxRetry, d.config.RetryDelay,
				func(ctx context.Context) ([]byte, error) {
					return d.fetcher.FetchBytes(ctx, keyURL)
				})
			if err != nil {
				return nil, common.NewStreamError(common.ResourceKey, keyURL, common.ErrCodeKeyLoad,
					"key download failed after retries", err)
			}
			key = fetched
			if key == nil {
				key = []byte{}
			}
		}

		logger.Debug("Downloading segment group", logging.Fields{
			"group":     groupIndex,
			"segments":  count,
			"encrypted": key != nil,
		})

		for start := 0; start < count; start += d.config.Concurrency {
			end := min(start+d.config.Concurrency, count)
			if err := d.fetchBatch(ctx, group, start, end, offset, key, store, logger); err != nil {
				return nil, err
			}
		}

		offset += count
	}

	if store.total() == 0 {
		onProgress.report(StageDownloadSegments, 1)
	}
	return store, nil
}

// fetchBatch downloads segments [start, end) of group concurrently and
// returns once every fetch has settled
func (d *Downloader) fetchBatch(ctx context.Context, group SegmentGroup, start, end, offset int, key []byte, store *segmentStore, logger logging.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := start; i < end; i++ {
		index := offset + i
		segmentURL := group.Segments[i].URL

		g.Go(func() error {
			data, err := fetchWithRetry(gctx, logger, segmentURL, d.config.MaxRetry, d.config.RetryDelay,
				func(ctx context.Context) ([]byte, error) {
					return d.fetcher.FetchBytes(ctx, segmentURL)
				})
			if err != nil {
				return common.NewStreamError(common.ResourceSegment, segmentURL, common.ErrCodeSegmentLoad,
					"segment download failed after retries", err)
			}

			processed, err := ProcessSegment(segmentURL, data, key, group.Context.IV)
			if err != nil {
				return err
			}

			store.put(index, processed)
			return nil
		})
	}

	return g.Wait()
}

func (d *Downloader) transmux(ctx context.Context, buffers [][]byte, duration time.Duration, onProgress ProgressFunc) ([]byte, error) {
	transmuxer, err := d.hlsConfig.Transmuxer(duration)
	if err != nil {
		return nil, common.NewStreamError(common.ResourceOutput, "", common.ErrCodeTransmux,
			"failed to create transmuxer", err)
	}
	defer transmuxer.Close()

	return MergeTransmuxed(ctx, buffers, transmuxer, onProgress)
}

// segmentStore holds the processed buffers of one download, indexed by
// presentation order
type segmentStore struct {
	mu         sync.Mutex
	buffers    [][]byte
	stored     int
	bytes      int64
	onProgress ProgressFunc
}

func newSegmentStore(total int, onProgress ProgressFunc) *segmentStore {
	return &segmentStore{
		buffers:    make([][]byte, total),
		onProgress: onProgress,
	}
}

// put records a buffer and reports progress while still holding the lock so
// the reported fractions never go backwards
func (s *segmentStore) put(index int, data []byte) {
	if data == nil {
		data = []byte{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffers[index] == nil {
		s.stored++
		s.bytes += int64(len(data))
	}
	s.buffers[index] = data
	s.onProgress.report(StageDownloadSegments, float64(s.stored)/float64(len(s.buffers)))
}

func (s *segmentStore) total() int {
	return len(s.buffers)
}
