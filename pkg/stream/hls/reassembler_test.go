package hls

import (
	"context"
	"errors"
	"testing"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransmuxer wraps each pushed buffer in brackets and reports a fixed
// init segment on every flush
type fakeTransmuxer struct {
	pending  []byte
	flushes  int
	failAt   int
	closed   bool
	noChunks bool
}

func (f *fakeTransmuxer) Push(data []byte) error {
	f.pending = append(f.pending, '[')
	f.pending = append(f.pending, data...)
	f.pending = append(f.pending, ']')
	return nil
}

func (f *fakeTransmuxer) Flush(ctx context.Context) (*MuxedChunk, error) {
	f.flushes++
	if f.failAt > 0 && f.flushes == f.failAt {
		return nil, errors.New("muxer exploded")
	}
	if f.noChunks {
		f.pending = nil
		return nil, nil
	}
	chunk := &MuxedChunk{InitSegment: []byte("INIT"), Data: f.pending}
	f.pending = nil
	return chunk, nil
}

func (f *fakeTransmuxer) Close() error {
	f.closed = true
	return nil
}

func TestMerge(t *testing.T) {
	t.Run("offset law", func(t *testing.T) {
		buffers := [][]byte{[]byte("abc"), {}, []byte("de"), []byte("fghi")}

		merged, err := Merge(buffers)
		require.NoError(t, err)
		assert.Equal(t, []byte("abcdefghi"), merged)

		offset := 0
		for _, buf := range buffers {
			assert.Equal(t, buf, merged[offset:offset+len(buf)])
			offset += len(buf)
		}
		assert.Equal(t, len(merged), offset)
	})

	t.Run("missing index", func(t *testing.T) {
		_, err := Merge([][]byte{[]byte("a"), nil, []byte("c")})
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrIncomplete)
		assert.Contains(t, err.Error(), "segment 1")
	})

	t.Run("empty", func(t *testing.T) {
		merged, err := Merge(nil)
		require.NoError(t, err)
		assert.Empty(t, merged)
	})
}

func TestMergeTransmuxed(t *testing.T) {
	ctx := context.Background()

	t.Run("init segment only on the first chunk", func(t *testing.T) {
		progress := &progressRecorder{}
		merged, err := MergeTransmuxed(ctx, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, &fakeTransmuxer{}, progress.record)
		require.NoError(t, err)
		assert.Equal(t, "INIT[a][b][c]", string(merged))
		assert.Equal(t, []float64{1.0 / 3, 2.0 / 3, 1}, progress.fractions(StageReassemble))
	})

	t.Run("flush failure", func(t *testing.T) {
		_, err := MergeTransmuxed(ctx, [][]byte{[]byte("a"), []byte("b")}, &fakeTransmuxer{failAt: 2}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrTransmux)
		assert.Contains(t, err.Error(), "segment 1")
	})

	t.Run("nil chunks", func(t *testing.T) {
		merged, err := MergeTransmuxed(ctx, [][]byte{[]byte("a"), []byte("b")}, &fakeTransmuxer{noChunks: true}, nil)
		require.NoError(t, err)
		assert.Empty(t, merged)
	})

	t.Run("missing index", func(t *testing.T) {
		_, err := MergeTransmuxed(ctx, [][]byte{[]byte("a"), nil}, &fakeTransmuxer{}, nil)
		assert.ErrorIs(t, err, common.ErrIncomplete)
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := MergeTransmuxed(cancelled, [][]byte{[]byte("a")}, &fakeTransmuxer{}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
