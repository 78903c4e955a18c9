package news

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/deusflow/newsboard/internal/sources"
)

const (
	placeholderG1          = "https://placehold.co/800x450/c4170c/ffffff?text=G1+Santos"
	placeholderSantaPortal = "https://placehold.co/800x450/1a6b3c/ffffff?text=Santa+Portal"
	placeholderDefault     = "https://placehold.co/800x450/0066cc/ffffff?text=Diario+Litoral"

	minThumbnailLen = 10
)

var (
	httpURLRe = regexp.MustCompile(`(?i)^https?://`)
	// WordPress style "-300x200" before the extension.
	sizeSuffixRe = regexp.MustCompile(`-\d{2,4}x\d{2,4}(\.[a-zA-Z0-9]+)$`)

	sizeParams = map[string]string{
		"w":      "1600",
		"width":  "1600",
		"h":      "900",
		"height": "900",
		"resize": "1600,900",
		"fit":    "1600,900",
	}
)

// Placeholder returns the stand-in image for a source type.
func Placeholder(t sources.Type) string {
	switch t {
	case sources.TypeG1:
		return placeholderG1
	case sources.TypeSantaPortal:
		return placeholderSantaPortal
	default:
		return placeholderDefault
	}
}

func IsHTTPURL(s string) bool {
	return httpURLRe.MatchString(s)
}

func resolveThumbnail(entry RawFeedEntry, rawDescription string, t sources.Type) string {
	thumb := strings.TrimSpace(entry.EnclosureURL)
	if thumb == "" {
		for _, u := range entry.MediaContentURLs {
			if u = strings.TrimSpace(u); u != "" {
				thumb = u
				break
			}
		}
	}
	if thumb == "" {
		thumb = FirstImage(rawDescription)
	}
	if strings.HasPrefix(thumb, "//") {
		thumb = "https:" + thumb
	}

	if len(thumb) < minThumbnailLen || !IsHTTPURL(thumb) {
		return Placeholder(t)
	}
	return UpgradeImageURL(thumb)
}

// UpgradeImageURL asks for a larger rendition of a thumbnail: it drops a
// "-WxH" size suffix from the file name and bumps known size query
// parameters. Anything it cannot parse is returned unchanged.
func UpgradeImageURL(raw string) string {
	if !IsHTTPURL(raw) {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	changed := false
	if cleaned := sizeSuffixRe.ReplaceAllString(u.Path, "$1"); cleaned != u.Path {
		u.Path = cleaned
		u.RawPath = ""
		changed = true
	}

	if u.RawQuery != "" {
		if q, ok := upgradeQuery(u.RawQuery); ok {
			u.RawQuery = q
			changed = true
		}
	}

	if !changed {
		return raw
	}
	return u.String()
}

// upgradeQuery rewrites size parameters in place, keeping the order and
// encoding of everything else. Repeated size keys collapse into the first.
func upgradeQuery(rawQuery string) (string, bool) {
	pairs := strings.Split(rawQuery, "&")
	out := make([]string, 0, len(pairs))
	seen := make(map[string]bool)
	changed := false

	for _, pair := range pairs {
		rawKey, _, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		value, ok := sizeParams[key]
		if !ok {
			out = append(out, pair)
			continue
		}
		changed = true
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}
	return strings.Join(out, "&"), changed
}

// ProxiedImageURL routes an http(s) thumbnail through the image proxy at
// prefix. Placeholders and already proxied URLs are returned unchanged.
func ProxiedImageURL(prefix, thumb string) string {
	if prefix == "" || !IsHTTPURL(thumb) || strings.HasPrefix(thumb, prefix) {
		return thumb
	}
	return prefix + "?url=" + escapeURIComponent(thumb)
}
