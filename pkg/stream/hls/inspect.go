package hls

import (
	"context"
	"strings"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/grafov/m3u8"
)

// PlaylistSummary is a structural overview of one playlist document
type PlaylistSummary struct {
	URL            string           `json:"url" yaml:"url"`
	Type           string           `json:"type" yaml:"type"`
	Variants       []VariantSummary `json:"variants,omitempty" yaml:"variants,omitempty"`
	Selected       string           `json:"selected,omitempty" yaml:"selected,omitempty"`
	TargetDuration float64          `json:"target_duration,omitempty" yaml:"target_duration,omitempty"`
	MediaSequence  uint64           `json:"media_sequence,omitempty" yaml:"media_sequence,omitempty"`
	Segments       int              `json:"segments,omitempty" yaml:"segments,omitempty"`
	TotalDuration  float64          `json:"total_duration,omitempty" yaml:"total_duration,omitempty"`
	Keys           []string         `json:"keys,omitempty" yaml:"keys,omitempty"`
	Closed         bool             `json:"closed" yaml:"closed"`
}

// VariantSummary describes one variant stream of a master playlist
type VariantSummary struct {
	URI        string `json:"uri" yaml:"uri"`
	Bandwidth  uint32 `json:"bandwidth" yaml:"bandwidth"`
	Resolution string `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Codecs     string `json:"codecs,omitempty" yaml:"codecs,omitempty"`
}

// SummarizePlaylist decodes content and reports its structure. Decoding is
// lenient so playlists the downloader accepts can still be summarised.
func SummarizePlaylist(playlistURL, content string) (*PlaylistSummary, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(content), false)
	if err != nil {
		return nil, common.NewStreamError(common.ResourcePlaylist, playlistURL,
			common.ErrCodePlaylistLoad, "failed to decode playlist", err)
	}

	summary := &PlaylistSummary{URL: playlistURL}

	switch listType {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		summary.Type = "master"
		for _, v := range master.Variants {
			if v == nil {
				continue
			}
			summary.Variants = append(summary.Variants, VariantSummary{
				URI:        v.URI,
				Bandwidth:  v.Bandwidth,
				Resolution: v.Resolution,
				Codecs:     v.Codecs,
			})
		}
		if candidates, err := ParseVariants(playlistURL, content); err == nil {
			if selected, ok := SelectVariant(candidates); ok {
				summary.Selected = selected.URL
			}
		}

	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)
		summary.Type = "media"
		summary.TargetDuration = media.TargetDuration
		summary.MediaSequence = media.SeqNo
		summary.Closed = media.Closed

		seenKeys := make(map[string]bool)
		addKey := func(k *m3u8.Key) {
			if k == nil || k.URI == "" || seenKeys[k.URI] {
				return
			}
			seenKeys[k.URI] = true
			summary.Keys = append(summary.Keys, k.URI)
		}
		addKey(media.Key)

		for _, seg := range media.Segments {
			if seg == nil {
				continue
			}
			summary.Segments++
			summary.TotalDuration += seg.Duration
			addKey(seg.Key)
		}
	}

	return summary, nil
}

// InspectPlaylist fetches url once and summarises it without following
// variants
func (d *Downloader) InspectPlaylist(ctx context.Context, url string) (*PlaylistSummary, error) {
	content, err := fetchWithRetry(ctx, d.logger, url, d.config.MaxRetry, d.config.RetryDelay,
		func(ctx context.Context) (string, error) {
			return d.fetcher.FetchText(ctx, url)
		})
	if err != nil {
		return nil, common.NewStreamError(common.ResourcePlaylist, url,
			common.ErrCodePlaylistLoad, "playlist download failed", err)
	}
	return SummarizePlaylist(url, content)
}
