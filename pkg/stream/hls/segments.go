package hls

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
)

const keyTag = "#EXT-X-KEY"

var (
	attributePattern = regexp.MustCompile(`([-A-Z0-9]+)=("[^"\x0A\x0D]*"|[^",\s]+)`)
	extinfPattern    = regexp.MustCompile(`(?i)#EXTINF:\s*(\d+(?:\.\d+)?)`)
)

// Encryption methods understood by the pipeline
const (
	MethodNone   = "NONE"
	MethodAES128 = "AES-128"
)

// EncryptionContext is the key scope opened by an #EXT-X-KEY tag. An empty
// KeyURL means the segments are not encrypted.
type EncryptionContext struct {
	Method string `json:"method,omitempty"`
	KeyURL string `json:"key_url,omitempty"`
	IV     string `json:"iv,omitempty"`
}

// Encrypted reports whether segments in this context need decryption
func (c EncryptionContext) Encrypted() bool {
	return c.KeyURL != ""
}

// SegmentRef references one media segment in presentation order
type SegmentRef struct {
	URL string `json:"url"`
}

// SegmentGroup is a contiguous run of segments sharing one encryption context
type SegmentGroup struct {
	Context  EncryptionContext `json:"context"`
	Segments []SegmentRef      `json:"segments"`
}

// PlaylistEntry is either an encryption marker or a segment, in playlist order
type PlaylistEntry struct {
	Marker  *EncryptionContext
	Segment *SegmentRef
}

// ExtractSegments parses a media playlist into segment groups. Group
// boundaries fall exactly on #EXT-X-KEY lines.
func ExtractSegments(baseURL, content string) ([]SegmentGroup, error) {
	entries, err := ExtractEntries(baseURL, content)
	if err != nil {
		return nil, err
	}

	groups := GroupSegments(entries)
	if CountSegments(groups) == 0 {
		return nil, common.NewStreamError(common.ResourcePlaylist, baseURL,
			common.ErrCodeEmptyPlaylist, "media playlist contains no segments", nil)
	}
	return groups, nil
}

// ExtractEntries scans a media playlist and returns its encryption markers
// and segment references with URLs resolved against baseURL
func ExtractEntries(baseURL, content string) ([]PlaylistEntry, error) {
	var entries []PlaylistEntry

	for _, line := range splitLines(content) {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, keyTag):
			marker, err := parseKeyTag(baseURL, line)
			if err != nil {
				return nil, err
			}
			entries = append(entries, PlaylistEntry{Marker: marker})
		case strings.HasPrefix(line, "#"):
			continue
		default:
			segmentURL, err := ResolveURL(baseURL, line)
			if err != nil {
				return nil, common.NewStreamError(common.ResourceSegment, line,
					common.ErrCodePlaylistLoad, "invalid segment reference", err)
			}
			entries = append(entries, PlaylistEntry{Segment: &SegmentRef{URL: segmentURL}})
		}
	}

	return entries, nil
}

// GroupSegments folds playlist entries into groups. Segments seen before the
// first marker form a keyless group.
func GroupSegments(entries []PlaylistEntry) []SegmentGroup {
	var groups []SegmentGroup

	for _, entry := range entries {
		if entry.Marker != nil {
			groups = append(groups, SegmentGroup{Context: *entry.Marker})
			continue
		}
		if len(groups) == 0 {
			groups = append(groups, SegmentGroup{})
		}
		last := &groups[len(groups)-1]
		last.Segments = append(last.Segments, *entry.Segment)
	}

	return groups
}

// CountSegments returns the number of segments across all groups
func CountSegments(groups []SegmentGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Segments)
	}
	return total
}

// TotalDuration sums every #EXTINF duration in the playlist
func TotalDuration(content string) time.Duration {
	var seconds float64
	for _, m := range extinfPattern.FindAllStringSubmatch(content, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			seconds += v
		}
	}
	return time.Duration(seconds * float64(time.Second))
}

func parseKeyTag(baseURL, line string) (*EncryptionContext, error) {
	attrs := parseAttributes(line)
	method := strings.ToUpper(attrs["METHOD"])

	switch method {
	case MethodNone:
		return &EncryptionContext{Method: MethodNone}, nil
	case "", MethodAES128:
	default:
		return nil, common.NewStreamError(common.ResourceKey, attrs["URI"], common.ErrCodeUnsupportedEncryption,
			"unsupported encryption method "+method, nil)
	}

	// a key tag without URI still opens a group, but one with no key to apply
	uri := attrs["URI"]
	if uri == "" {
		return &EncryptionContext{Method: MethodAES128}, nil
	}

	keyURL, err := ResolveURL(baseURL, uri)
	if err != nil {
		return nil, common.NewStreamError(common.ResourceKey, uri,
			common.ErrCodePlaylistLoad, "invalid key reference", err)
	}

	return &EncryptionContext{
		Method: MethodAES128,
		KeyURL: keyURL,
		IV:     attrs["IV"],
	}, nil
}

// parseAttributes reads the attribute list of a tag line; quoted values are
// returned without their quotes
func parseAttributes(line string) map[string]string {
	attrs := make(map[string]string)
	if idx := strings.Index(line, ":"); idx >= 0 {
		line = line[idx+1:]
	}
	for _, m := range attributePattern.FindAllStringSubmatch(line, -1) {
		attrs[m[1]] = strings.Trim(m[2], `"`)
	}
	return attrs
}
