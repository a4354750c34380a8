package hls

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
)

var (
	streamInfTags     = []string{"#EXT-X-STREAM-INF", "#EXT-X-I-FRAME-STREAM-INF"}
	resolutionPattern = regexp.MustCompile(`RESOLUTION=\d+x(\d+)`)
)

// Playlist is a resolved media playlist
type Playlist struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// VariantCandidate is one entry of a master playlist
type VariantCandidate struct {
	URL           string `json:"url"`
	Resolution    int    `json:"resolution,omitempty"` // vertical resolution
	HasResolution bool   `json:"has_resolution"`
}

// TextFetchFunc fetches a playlist body. Retrying is the caller's concern.
type TextFetchFunc func(ctx context.Context, url string) (string, error)

// ResolvePlaylist fetches playlistURL and follows master playlists down to a
// single media playlist, choosing the highest resolution variant at every
// level.
func ResolvePlaylist(ctx context.Context, playlistURL string, fetchText TextFetchFunc, config *ParserConfig) (*Playlist, error) {
	if config == nil {
		config = DefaultParserConfig()
	}

	current := playlistURL
	for depth := 0; depth <= config.MaxPlaylistDepth; depth++ {
		content, err := fetchText(ctx, current)
		if err != nil {
			return nil, common.NewStreamError(common.ResourcePlaylist, current,
				common.ErrCodePlaylistLoad, "playlist download failed", err)
		}

		lines := splitLines(content)
		if !IsMasterPlaylist(lines, config.MasterDetectionLines) {
			return &Playlist{URL: current, Content: content}, nil
		}

		candidates, err := parseVariantLines(current, lines)
		if err != nil {
			return nil, common.NewStreamError(common.ResourcePlaylist, current,
				common.ErrCodePlaylistLoad, "invalid variant reference", err)
		}

		selected, ok := SelectVariant(candidates)
		if !ok {
			return nil, common.NewStreamError(common.ResourcePlaylist, current,
				common.ErrCodeNoVariant, "master playlist lists no variants", nil)
		}
		current = selected.URL
	}

	return nil, common.NewStreamError(common.ResourcePlaylist, playlistURL, common.ErrCodePlaylistLoad,
		fmt.Sprintf("master playlists nested deeper than %d levels", config.MaxPlaylistDepth), nil)
}

// IsMasterPlaylist reports whether any of the first maxLines lines carries a
// stream-info tag
func IsMasterPlaylist(lines []string, maxLines int) bool {
	for i := 0; i < len(lines) && i < maxLines; i++ {
		upper := strings.ToUpper(lines[i])
		for _, tag := range streamInfTags {
			if strings.Contains(upper, tag) {
				return true
			}
		}
	}
	return false
}

// ParseVariants lists the variants of a master playlist in document order
func ParseVariants(baseURL, content string) ([]VariantCandidate, error) {
	return parseVariantLines(baseURL, splitLines(content))
}

func parseVariantLines(baseURL string, lines []string) ([]VariantCandidate, error) {
	var candidates []VariantCandidate
	var streamInf string

	for _, line := range lines {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#"):
			if strings.HasPrefix(strings.ToUpper(line), "#EXT-X-STREAM-INF") {
				streamInf = line
			}
			continue
		case streamInf == "":
			continue
		}

		variantURL, err := ResolveURL(baseURL, line)
		if err != nil {
			return nil, err
		}

		candidate := VariantCandidate{URL: variantURL}
		if m := resolutionPattern.FindStringSubmatch(streamInf); m != nil {
			if height, err := strconv.Atoi(m[1]); err == nil {
				candidate.Resolution = height
				candidate.HasResolution = true
			}
		}
		candidates = append(candidates, candidate)
		streamInf = ""
	}

	return candidates, nil
}

// SelectVariant picks the candidate with the greatest vertical resolution,
// the first one on ties. Without any resolution hints the first listed
// variant wins.
func SelectVariant(candidates []VariantCandidate) (VariantCandidate, bool) {
	if len(candidates) == 0 {
		return VariantCandidate{}, false
	}

	best := -1
	for i, c := range candidates {
		if !c.HasResolution {
			continue
		}
		if best < 0 || c.Resolution > candidates[best].Resolution {
			best = i
		}
	}

	if best < 0 {
		return candidates[0], true
	}
	return candidates[best], true
}

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}
