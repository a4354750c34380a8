package hls

// Playlist fixtures shared by the package tests
var (
	// Additional test URLs for various scenarios
	TestValidHLSURLs = []string{
		"https://example.com/playlist.m3u8",
		"https://example.com/master.m3u8",
		"https://example.com/index.m3u8",
		"https://example.com/stream/96k/playlist.m3u8",
		"https://example.com/aac/128.m3u8",
	}

	TestM3U8MasterPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=1280000,CODECS="avc1.42e00a,mp4a.40.2",RESOLUTION=852x480
480p.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2560000,CODECS="avc1.42e00a,mp4a.40.2",RESOLUTION=1280x720
720p.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=5000000,CODECS="avc1.42e00a,mp4a.40.2",RESOLUTION=1920x1080
1080p.m3u8`

	TestM3U8MasterNoResolution = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=64000
audio_64k.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=128000
audio_128k.m3u8`

	TestM3U8MasterTiedResolution = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=2000000,RESOLUTION=1280x720
/live/a/720p.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1280x720
//cdn.example.com/b/720p.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
https://other.example.com/360p.m3u8`

	TestM3U8MasterEmpty = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-I-FRAME-STREAM-INF:BANDWIDTH=86000,URI="iframe.m3u8"`

	TestM3U8MediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:9.009,
segment0.ts
#EXTINF:9.009,
segment1.ts
#EXTINF:9.009,
segment2.ts
#EXT-X-ENDLIST`

	TestM3U8WithAdBreaks = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:9.009,
segment0.ts
#EXT-X-CUE-OUT:30.0
#EXTINF:9.009,
ad_segment1.ts
#EXT-X-CUE-IN
#EXTINF:9.009,
segment1.ts
#EXT-X-ENDLIST`

	TestM3U8Encrypted = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXTINF:6.0,
clear0.ts
#EXT-X-KEY:METHOD=AES-128,URI="keys/k1.key",IV=0x0102030405060708090a0b0c0d0e0f10
#EXTINF:6.0,
enc1.ts
#EXTINF:6.0,
enc2.ts
#EXT-X-KEY:METHOD=AES-128,URI="/keys/k2.key"
#EXTINF:4.5,
enc3.ts
#EXT-X-KEY:METHOD=NONE
#EXTINF:6.0,
https://cdn.example.com/clear4.ts
#EXT-X-ENDLIST`

	TestM3U8SampleAES = `#EXTM3U
#EXT-X-TARGETDURATION:6
#EXT-X-KEY:METHOD=SAMPLE-AES,URI="skd://key"
#EXTINF:6.0,
seg0.ts
#EXT-X-ENDLIST`

	TestM3U8NoSegments = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-ENDLIST`
)
