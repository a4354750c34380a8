package hls

// Stage identifies a pipeline phase reported through ProgressFunc
type Stage int

const (
	StageParsePlaylist Stage = iota
	StageDownloadSegments
	StageReassemble
)

func (s Stage) String() string {
	switch s {
	case StageParsePlaylist:
		return "parse_playlist"
	case StageDownloadSegments:
		return "download_segments"
	case StageReassemble:
		return "reassemble"
	default:
		return "unknown"
	}
}

// ProgressFunc receives stage progress. Fractions are in [0,1] and never
// decrease within a stage.
type ProgressFunc func(stage Stage, fraction float64)

func (f ProgressFunc) report(stage Stage, fraction float64) {
	if f != nil {
		f(stage, fraction)
	}
}
