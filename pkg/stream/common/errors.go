package common

import "errors"

func (e *StreamError) Error() string {
	msg := e.Message
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// StreamError represents acquisition pipeline errors
type StreamError struct {
	Type    ResourceType `json:"type"`
	URL     string       `json:"url"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Cause   error        `json:"-"`
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a StreamError carrying the same code, so the
// package sentinels below work with errors.Is.
func (e *StreamError) Is(target error) bool {
	t, ok := target.(*StreamError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// Error codes
const (
	ErrCodeNetwork               = "NETWORK_ERROR"
	ErrCodePlaylistLoad          = "PLAYLIST_LOAD_FAILED"
	ErrCodeNoVariant             = "NO_VARIANT_FOUND"
	ErrCodeEmptyPlaylist         = "EMPTY_PLAYLIST"
	ErrCodeKeyLoad               = "KEY_LOAD_FAILED"
	ErrCodeSegmentLoad           = "SEGMENT_LOAD_FAILED"
	ErrCodeDecryption            = "DECRYPTION_FAILED"
	ErrCodeUnsupportedEncryption = "UNSUPPORTED_ENCRYPTION"
	ErrCodeIncomplete            = "REASSEMBLY_INCOMPLETE"
	ErrCodeTransmux              = "TRANSMUX_FAILED"
	ErrCodeInvalidConfig         = "INVALID_CONFIG"
	ErrCodeInvalidURL            = "INVALID_URL"
)

// Sentinels for errors.Is checks
var (
	ErrNetwork               = &StreamError{Code: ErrCodeNetwork}
	ErrPlaylistLoad          = &StreamError{Code: ErrCodePlaylistLoad}
	ErrNoVariant             = &StreamError{Code: ErrCodeNoVariant}
	ErrEmptyPlaylist         = &StreamError{Code: ErrCodeEmptyPlaylist}
	ErrKeyLoad               = &StreamError{Code: ErrCodeKeyLoad}
	ErrSegmentLoad           = &StreamError{Code: ErrCodeSegmentLoad}
	ErrDecryption            = &StreamError{Code: ErrCodeDecryption}
	ErrUnsupportedEncryption = &StreamError{Code: ErrCodeUnsupportedEncryption}
	ErrIncomplete            = &StreamError{Code: ErrCodeIncomplete}
	ErrTransmux              = &StreamError{Code: ErrCodeTransmux}
	ErrInvalidConfig         = &StreamError{Code: ErrCodeInvalidConfig}
	ErrInvalidURL            = &StreamError{Code: ErrCodeInvalidURL}
)

// NewStreamError creates a new stream error
func NewStreamError(resource ResourceType, url, code, message string, cause error) *StreamError {
	return &StreamError{
		Type:    resource,
		URL:     url,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewNetworkError wraps a transport failure or non-success HTTP status
func NewNetworkError(url string, cause error) *StreamError {
	return NewStreamError("", url, ErrCodeNetwork, "network request failed", cause)
}

// ErrorCode extracts the code of the first StreamError in err's chain
func ErrorCode(err error) string {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
