package common

// ResourceType identifies which kind of remote resource an operation touched
type ResourceType string

const (
	ResourcePlaylist ResourceType = "playlist"
	ResourceKey      ResourceType = "key"
	ResourceSegment  ResourceType = "segment"
	ResourceOutput   ResourceType = "output"
)

// OutputKind selects how acquired segments are reassembled
type OutputKind string

const (
	// OutputContainer threads segments through a transmuxer (fragmented MP4)
	OutputContainer OutputKind = "container"
	// OutputRaw concatenates the cleaned MPEG-TS segments
	OutputRaw OutputKind = "raw"
)

// Extension returns the file extension used when persisting this output kind
func (k OutputKind) Extension() string {
	if k == OutputRaw {
		return "ts"
	}
	return "mp4"
}

// MimeType returns the media type of this output kind
func (k OutputKind) MimeType() string {
	if k == OutputRaw {
		return "video/mp2t"
	}
	return "video/mp4"
}

// ParseOutputKind maps user input to an OutputKind. The original extension
// names "mp4" and "ts" are accepted as aliases.
func ParseOutputKind(s string) (OutputKind, bool) {
	switch NormalizeToken(s) {
	case "container", "mp4":
		return OutputContainer, true
	case "raw", "ts":
		return OutputRaw, true
	default:
		return "", false
	}
}
