package hls

import (
	"net/url"
	"strings"
)

// ResolveURL resolves a playlist reference against the URL of the playlist
// that contains it. References that already carry an http(s) scheme are
// returned unchanged, protocol-relative references get https, root-relative
// references get the base origin and anything else is appended to the base
// directory.
func ResolveURL(baseURL, reference string) (string, error) {
	reference = strings.TrimSpace(reference)

	switch {
	case hasHTTPScheme(reference):
		return reference, nil
	case strings.HasPrefix(reference, "//"):
		return "https:" + reference, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(reference, "/") {
		return base.Scheme + "://" + base.Host + reference, nil
	}

	return baseURL[:strings.LastIndex(baseURL, "/")+1] + reference, nil
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
