package hls

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef")

func encryptCBC(t *testing.T, plain, key, iv []byte) []byte {
	t.Helper()
	require.Zero(t, len(plain)%aes.BlockSize)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
	return out
}

func tsPacket(fill byte) []byte {
	packet := bytes.Repeat([]byte{fill}, 188)
	packet[0] = tsSyncByte
	packet[1] = tsPATStart
	return packet
}

func TestCleanTransportStream(t *testing.T) {
	testCases := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{"already aligned", []byte{0x47, 0x00, 0x11}, []byte{0x47, 0x00, 0x11}},
		{"leading garbage", []byte{0x00, 0x01, 0x47, 0x40, 0x00}, []byte{0x47, 0x40, 0x00}},
		{"sync byte without PAT start is skipped", []byte{0x00, 0x47, 0x00, 0x47, 0x40, 0x10}, []byte{0x47, 0x40, 0x10}},
		{"no packet start", []byte{0x00, 0x01, 0x47}, []byte{0x00, 0x01, 0x47}},
		{"empty", []byte{}, []byte{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanTransportStream(tc.input))
		})
	}
}

func TestDeriveIV(t *testing.T) {
	t.Run("absent is zero", func(t *testing.T) {
		iv, err := DeriveIV("")
		require.NoError(t, err)
		assert.Equal(t, make([]byte, 16), iv)
	})

	t.Run("full hex", func(t *testing.T) {
		iv, err := DeriveIV("0x0102030405060708090a0b0c0d0e0f10")
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, iv)
	})

	t.Run("short hex is left padded", func(t *testing.T) {
		iv, err := DeriveIV("0X1")
		require.NoError(t, err)
		expected := make([]byte, 16)
		expected[15] = 1
		assert.Equal(t, expected, iv)
	})

	t.Run("hex longer than a block", func(t *testing.T) {
		_, err := DeriveIV("0x" + "00112233445566778899aabbccddeeff00")
		assert.Error(t, err)
	})

	t.Run("invalid hex", func(t *testing.T) {
		_, err := DeriveIV("0xzz")
		assert.Error(t, err)
	})

	t.Run("utf8 bytes", func(t *testing.T) {
		iv, err := DeriveIV("abcdefghijklmnop")
		require.NoError(t, err)
		assert.Equal(t, []byte("abcdefghijklmnop"), iv)
	})

	t.Run("utf8 wrong length", func(t *testing.T) {
		_, err := DeriveIV("short")
		assert.Error(t, err)
	})
}

func TestDecryptAES128(t *testing.T) {
	plain := append(tsPacket(0xAA), bytes.Repeat([]byte{0x55}, 4)...) // 192 bytes

	t.Run("hex IV", func(t *testing.T) {
		iv := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
		encrypted := encryptCBC(t, plain, testKey, iv)

		decrypted, err := DecryptAES128(encrypted, testKey, "0x0102030405060708090a0b0c0d0e0f10")
		require.NoError(t, err)
		assert.Equal(t, plain, decrypted)
	})

	t.Run("zero IV", func(t *testing.T) {
		encrypted := encryptCBC(t, plain, testKey, make([]byte, 16))

		decrypted, err := DecryptAES128(encrypted, testKey, "")
		require.NoError(t, err)
		assert.Equal(t, plain, decrypted)
	})

	t.Run("wrong IV garbles only the first block", func(t *testing.T) {
		encrypted := encryptCBC(t, plain, testKey, make([]byte, 16))

		decrypted, err := DecryptAES128(encrypted, testKey, "0x01")
		require.NoError(t, err)
		assert.NotEqual(t, plain[:16], decrypted[:16])
		assert.Equal(t, plain[16:], decrypted[16:])
	})

	t.Run("bad key length", func(t *testing.T) {
		_, err := DecryptAES128(make([]byte, 32), []byte("short"), "")
		assert.Error(t, err)
	})

	t.Run("ciphertext not block aligned", func(t *testing.T) {
		_, err := DecryptAES128(make([]byte, 20), testKey, "")
		assert.Error(t, err)
	})
}

func TestProcessSegment(t *testing.T) {
	t.Run("no key cleans", func(t *testing.T) {
		out, err := ProcessSegment("https://example.com/a.ts", []byte{0x01, 0x47, 0x40}, nil, "")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x47, 0x40}, out)
	})

	t.Run("key decrypts without cleanup", func(t *testing.T) {
		plain := append([]byte{0x00}, tsPacket(0x11)[:31]...)
		encrypted := encryptCBC(t, plain, testKey, make([]byte, 16))

		out, err := ProcessSegment("https://example.com/a.ts", encrypted, testKey, "")
		require.NoError(t, err)
		assert.Equal(t, plain, out)
	})

	t.Run("decryption failure names the segment", func(t *testing.T) {
		_, err := ProcessSegment("https://example.com/bad.ts", make([]byte, 15), testKey, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrDecryption)
		assert.Contains(t, err.Error(), "https://example.com/bad.ts")
	})

	t.Run("empty key is not treated as unencrypted", func(t *testing.T) {
		_, err := ProcessSegment("https://example.com/a.ts", make([]byte, 16), []byte{}, "")
		assert.ErrorIs(t, err, common.ErrDecryption)
	})
}
