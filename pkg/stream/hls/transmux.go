package hls

import (
	"context"
	"time"
)

// MuxedChunk is the output of one transmuxer flush. InitSegment carries the
// container header and is only guaranteed on the first flush.
type MuxedChunk struct {
	InitSegment []byte
	Data        []byte
}

// Transmuxer converts transport stream segments into container fragments.
// Each Flush returns exactly one chunk for everything pushed since the
// previous flush.
type Transmuxer interface {
	Push(data []byte) error
	Flush(ctx context.Context) (*MuxedChunk, error)
	Close() error
}

// TransmuxerFactory creates a transmuxer for a presentation of the given
// total duration
type TransmuxerFactory func(duration time.Duration) (Transmuxer, error)
