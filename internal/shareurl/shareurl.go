// Package shareurl turns user-supplied share links into the canonical short
// reference (surl) the remote APIs key on.
package shareurl

import (
	"net/url"
	"regexp"
	"strings"

	"vault-gateway/internal/model"
)

// Share links come in a path-segment form (/s/1AbC123, /wap/share/...) and a
// query-parameter form (sharing/link?surl=AbC123). The path form carries a
// leading "1" discriminator that is not part of the reference.
var pathPattern = regexp.MustCompile(`/(?:s|wap/share)/([A-Za-z0-9_-]+)`)

// Resolve extracts the canonical share reference from a share URL. It is a
// pure function: no I/O, no side effects. Returns model.ErrInvalidShareURL
// when neither accepted form matches.
func Resolve(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", model.ErrInvalidShareURL
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", model.ErrInvalidShareURL
	}
	if scheme := strings.ToLower(parsed.Scheme); scheme != "http" && scheme != "https" {
		return "", model.ErrInvalidShareURL
	}

	if surl := parsed.Query().Get("surl"); surl != "" {
		return stripDiscriminator(surl), nil
	}

	if matches := pathPattern.FindStringSubmatch(parsed.Path); len(matches) > 1 {
		return stripDiscriminator(matches[1]), nil
	}

	return "", model.ErrInvalidShareURL
}

// CanonicalHost reports the lowercased host of a share URL, or "" when the
// URL does not parse.
func CanonicalHost(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

func stripDiscriminator(ref string) string {
	if len(ref) > 1 && ref[0] == '1' {
		return ref[1:]
	}
	return ref
}
