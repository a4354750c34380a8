package hls

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
)

// Merge concatenates buffers in index order into one allocation. Every index
// must be present.
func Merge(buffers [][]byte) ([]byte, error) {
	size := 0
	for i, buf := range buffers {
		if buf == nil {
			return nil, incompleteError(i)
		}
		size += len(buf)
	}

	out := make([]byte, size)
	offset := 0
	for _, buf := range buffers {
		offset += copy(out[offset:], buf)
	}
	return out, nil
}

// MergeTransmuxed pushes each buffer through transmuxer in index order, one
// flush per buffer. The first flush contributes its init segment ahead of
// its data; later flushes contribute data only.
func MergeTransmuxed(ctx context.Context, buffers [][]byte, transmuxer Transmuxer, onProgress ProgressFunc) ([]byte, error) {
	chunks := make([][]byte, len(buffers))

	for i, buf := range buffers {
		if buf == nil {
			return nil, incompleteError(i)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := transmuxer.Push(buf); err != nil {
			return nil, transmuxError(i, "push", err)
		}
		chunk, err := transmuxer.Flush(ctx)
		if err != nil {
			return nil, transmuxError(i, "flush", err)
		}
		if chunk == nil {
			chunk = &MuxedChunk{}
		}

		if i == 0 {
			first := make([]byte, 0, len(chunk.InitSegment)+len(chunk.Data))
			first = append(first, chunk.InitSegment...)
			chunks[i] = append(first, chunk.Data...)
		} else {
			chunks[i] = chunk.Data
			if chunks[i] == nil {
				chunks[i] = []byte{}
			}
		}

		onProgress.report(StageReassemble, float64(i+1)/float64(len(buffers)))
	}

	return Merge(chunks)
}

func incompleteError(index int) error {
	return common.NewStreamError(common.ResourceSegment, "", common.ErrCodeIncomplete,
		fmt.Sprintf("segment %d missing from reassembly", index), nil)
}

func transmuxError(index int, op string, err error) error {
	return common.NewStreamError(common.ResourceOutput, "", common.ErrCodeTransmux,
		fmt.Sprintf("transmuxer %s failed at segment %d", op, index), err)
}
