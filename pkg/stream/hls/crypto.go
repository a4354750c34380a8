package hls

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
)

const (
	tsSyncByte = 0x47
	// second byte of a TS packet header carrying payload_unit_start_indicator on PID 0
	tsPATStart = 0x40
)

// ProcessSegment turns fetched segment bytes into clean transport stream
// bytes. Segments without a key only get sync byte cleanup.
func ProcessSegment(segmentURL string, data, key []byte, iv string) ([]byte, error) {
	if key == nil {
		return CleanTransportStream(data), nil
	}

	plain, err := DecryptAES128(data, key, iv)
	if err != nil {
		return nil, common.NewStreamError(common.ResourceSegment, segmentURL,
			common.ErrCodeDecryption, "segment decryption failed", err)
	}
	return plain, nil
}

// CleanTransportStream drops any leading garbage before the first packet of
// an MPEG-TS segment. Data that already starts on a sync byte, or that has no
// recognisable packet start, is returned unchanged.
func CleanTransportStream(data []byte) []byte {
	if len(data) == 0 || data[0] == tsSyncByte {
		return data
	}
	for i := 0; i+1 < len(data); i++ {
		if data[i] == tsSyncByte && data[i+1] == tsPATStart {
			return data[i:]
		}
	}
	return data
}

// DecryptAES128 decrypts AES-128-CBC ciphertext. Padding is left in place.
func DecryptAES128(data, key []byte, iv string) ([]byte, error) {
	if len(key) != aes.BlockSize {
		return nil, fmt.Errorf("invalid key length %d, expected %d", len(key), aes.BlockSize)
	}

	ivBytes, err := DeriveIV(iv)
	if err != nil {
		return nil, err
	}

	if len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of %d", len(data), aes.BlockSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	plain := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, ivBytes).CryptBlocks(plain, data)
	return plain, nil
}

// DeriveIV converts an IV attribute into 16 bytes. A 0x prefixed value is
// parsed as hex and left padded with zeros, any other value is used as its
// UTF-8 bytes and an empty value yields the zero IV.
func DeriveIV(iv string) ([]byte, error) {
	if iv == "" {
		return make([]byte, aes.BlockSize), nil
	}

	if strings.HasPrefix(iv, "0x") || strings.HasPrefix(iv, "0X") {
		digits := iv[2:]
		if len(digits)%2 != 0 {
			digits = "0" + digits
		}
		raw, err := hex.DecodeString(digits)
		if err != nil {
			return nil, fmt.Errorf("invalid hex IV %q: %w", iv, err)
		}
		if len(raw) > aes.BlockSize {
			return nil, fmt.Errorf("hex IV %q longer than %d bytes", iv, aes.BlockSize)
		}
		out := make([]byte, aes.BlockSize)
		copy(out[aes.BlockSize-len(raw):], raw)
		return out, nil
	}

	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("invalid IV length %d, expected %d", len(iv), aes.BlockSize)
	}
	return []byte(iv), nil
}
