package common

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var unsafeFileChars = regexp.MustCompile(`[^\w.\-]+`)

// NormalizeToken lower-cases and trims a user supplied enum value
func NormalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValidURL performs basic URL validation
func IsValidURL(url string) bool {
	url = strings.TrimSpace(url)
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// FormatDuration formats duration for display
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return strconv.Itoa(seconds) + "s"
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return strconv.Itoa(minutes) + "m"
	}

	return strconv.Itoa(minutes) + "m" + strconv.Itoa(remainingSeconds) + "s"
}

// FormatBytes formats a byte count using binary units
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}

// CleanHeaderValue cleans and normalizes header values
func CleanHeaderValue(value string) string {
	// Remove quotes and trim whitespace
	value = strings.Trim(value, "\"'")
	return strings.TrimSpace(value)
}

// ExtractContentType extracts main content type without parameters
func ExtractContentType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	// Remove charset and other parameters
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}

	return strings.TrimSpace(contentType)
}

// FileNameFromURL derives a file system friendly base name (no extension)
// from the last path element of a URL. fallback is returned when nothing
// usable remains.
func FileNameFromURL(rawURL, fallback string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fallback
	}

	base := path.Base(u.Path)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = unsafeFileChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._-")

	if base == "" || base == "/" {
		return fallback
	}
	return base
}
