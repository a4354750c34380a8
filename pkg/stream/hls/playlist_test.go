package hls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapFetch(pages map[string]string) TextFetchFunc {
	return func(ctx context.Context, url string) (string, error) {
		content, ok := pages[url]
		if !ok {
			return "", common.NewNetworkError(url, errors.New("HTTP 404: 404 Not Found"))
		}
		return content, nil
	}
}

func TestIsMasterPlaylist(t *testing.T) {
	t.Run("master", func(t *testing.T) {
		assert.True(t, IsMasterPlaylist(splitLines(TestM3U8MasterPlaylist), 10))
	})

	t.Run("media", func(t *testing.T) {
		assert.False(t, IsMasterPlaylist(splitLines(TestM3U8MediaPlaylist), 10))
	})

	t.Run("iframe only", func(t *testing.T) {
		assert.True(t, IsMasterPlaylist(splitLines(TestM3U8MasterEmpty), 10))
	})

	t.Run("lowercase tag", func(t *testing.T) {
		assert.True(t, IsMasterPlaylist([]string{"#extm3u", "#ext-x-stream-inf:bandwidth=1"}, 10))
	})

	t.Run("tag beyond detection window", func(t *testing.T) {
		lines := make([]string, 0, 12)
		for i := 0; i < 10; i++ {
			lines = append(lines, "#EXT-X-VERSION:3")
		}
		lines = append(lines, "#EXT-X-STREAM-INF:BANDWIDTH=1", "v.m3u8")
		assert.False(t, IsMasterPlaylist(lines, 10))
	})
}

func TestParseVariants(t *testing.T) {
	candidates, err := ParseVariants("https://example.com/live/master.m3u8", TestM3U8MasterPlaylist)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "https://example.com/live/480p.m3u8", candidates[0].URL)
	assert.Equal(t, 480, candidates[0].Resolution)
	assert.True(t, candidates[0].HasResolution)
	assert.Equal(t, 720, candidates[1].Resolution)
	assert.Equal(t, "https://example.com/live/1080p.m3u8", candidates[2].URL)
	assert.Equal(t, 1080, candidates[2].Resolution)

	t.Run("content line without stream info is ignored", func(t *testing.T) {
		content := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1\na.m3u8\nstray.m3u8\n"
		candidates, err := ParseVariants("https://example.com/master.m3u8", content)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "https://example.com/a.m3u8", candidates[0].URL)
		assert.False(t, candidates[0].HasResolution)
	})
}

func TestSelectVariant(t *testing.T) {
	t.Run("max resolution wins", func(t *testing.T) {
		candidates, err := ParseVariants("https://example.com/master.m3u8", TestM3U8MasterPlaylist)
		require.NoError(t, err)

		selected, ok := SelectVariant(candidates)
		require.True(t, ok)
		assert.Equal(t, "https://example.com/1080p.m3u8", selected.URL)
	})

	t.Run("ties keep the first", func(t *testing.T) {
		candidates, err := ParseVariants("https://example.com/master.m3u8", TestM3U8MasterTiedResolution)
		require.NoError(t, err)
		require.Len(t, candidates, 3)
		assert.Equal(t, "https://cdn.example.com/b/720p.m3u8", candidates[1].URL)

		selected, ok := SelectVariant(candidates)
		require.True(t, ok)
		assert.Equal(t, "https://example.com/live/a/720p.m3u8", selected.URL)
	})

	t.Run("no resolution picks first listed", func(t *testing.T) {
		candidates, err := ParseVariants("https://example.com/radio/master.m3u8", TestM3U8MasterNoResolution)
		require.NoError(t, err)

		selected, ok := SelectVariant(candidates)
		require.True(t, ok)
		assert.Equal(t, "https://example.com/radio/audio_64k.m3u8", selected.URL)
	})

	t.Run("resolution hints beat unhinted variants", func(t *testing.T) {
		selected, ok := SelectVariant([]VariantCandidate{
			{URL: "a"},
			{URL: "b", Resolution: 360, HasResolution: true},
		})
		require.True(t, ok)
		assert.Equal(t, "b", selected.URL)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := SelectVariant(nil)
		assert.False(t, ok)
	})
}

func TestResolvePlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("media playlist returned as is", func(t *testing.T) {
		url := "https://example.com/vod/index.m3u8"
		playlist, err := ResolvePlaylist(ctx, url, mapFetch(map[string]string{url: TestM3U8MediaPlaylist}), nil)
		require.NoError(t, err)
		assert.Equal(t, url, playlist.URL)
		assert.Equal(t, TestM3U8MediaPlaylist, playlist.Content)
	})

	t.Run("master follows highest variant", func(t *testing.T) {
		pages := map[string]string{
			"https://example.com/vod/master.m3u8": TestM3U8MasterPlaylist,
			"https://example.com/vod/1080p.m3u8":  TestM3U8MediaPlaylist,
		}
		playlist, err := ResolvePlaylist(ctx, "https://example.com/vod/master.m3u8", mapFetch(pages), nil)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/vod/1080p.m3u8", playlist.URL)
	})

	t.Run("nested masters", func(t *testing.T) {
		pages := map[string]string{
			"https://example.com/top.m3u8":              "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1\nnested/master.m3u8\n",
			"https://example.com/nested/master.m3u8":    TestM3U8MasterNoResolution,
			"https://example.com/nested/audio_64k.m3u8": TestM3U8MediaPlaylist,
		}
		playlist, err := ResolvePlaylist(ctx, "https://example.com/top.m3u8", mapFetch(pages), nil)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/nested/audio_64k.m3u8", playlist.URL)
	})

	t.Run("master without variants", func(t *testing.T) {
		url := "https://example.com/iframes.m3u8"
		_, err := ResolvePlaylist(ctx, url, mapFetch(map[string]string{url: TestM3U8MasterEmpty}), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrNoVariant)
	})

	t.Run("fetch failure", func(t *testing.T) {
		_, err := ResolvePlaylist(ctx, "https://example.com/missing.m3u8", mapFetch(nil), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrPlaylistLoad)
		assert.ErrorIs(t, err, common.ErrNetwork)
		assert.Contains(t, err.Error(), "https://example.com/missing.m3u8")
	})

	t.Run("self referencing master stops", func(t *testing.T) {
		url := "https://example.com/loop.m3u8"
		calls := 0
		fetch := func(ctx context.Context, u string) (string, error) {
			calls++
			return "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1\nloop.m3u8\n", nil
		}
		_, err := ResolvePlaylist(ctx, url, fetch, &ParserConfig{MasterDetectionLines: 10, MaxPlaylistDepth: 3})
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrPlaylistLoad)
		assert.Equal(t, 4, calls)
		assert.True(t, strings.Contains(err.Error(), fmt.Sprintf("%d levels", 3)))
	})
}
