// Package media holds the item model plus the pure URL helpers the rest of
// the engine is built from: canonicalization and extension-based kind
// detection.
package media

import (
	"net/url"
	"path"
	"strings"
)

// Kind is the media classification of a discovered item.
type Kind string

const (
	KindVideo   Kind = "video"
	KindPhoto   Kind = "photo"
	KindUnknown Kind = "unknown"
)

// Item is one discovered downloadable unit. Immutable after creation.
type Item struct {
	// URL is the canonical item URL.
	URL string
	// Title is the display title captured at discovery time.
	Title string
	Kind  Kind
	// OriginURL is the page the item was discovered on, used for folder
	// grouping.
	OriginURL string
	// Platform is the tag of the handler that produced the item.
	Platform string
	// Err marks a synthetic error item produced when extraction could not
	// run at all (e.g. browser launch failure).
	Err error
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".m4v":  true,
	".flv":  true,
	".ts":   true,
}

var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".heic": true,
}

// identityParams are query parameters that carry item identity on some
// platforms (watch pages, story permalinks). All other parameters are
// tracking noise and get stripped.
var identityParams = []string{"v", "story_fbid", "fbid", "id"}

// Canonicalize normalizes a URL for deduplication: scheme and host are
// lowercased, fragments and non-identifying query parameters are stripped,
// and a trailing slash is removed. Canonicalize is idempotent. Unparseable
// input degrades to plain string cleanup rather than failing.
func Canonicalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		s := strings.TrimSpace(raw)
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		if i := strings.IndexByte(s, '?'); i >= 0 {
			s = s[:i]
		}
		return strings.TrimRight(s, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	query := u.Query()
	kept := url.Values{}
	for _, key := range identityParams {
		if v := query.Get(key); v != "" {
			kept.Set(key, v)
		}
	}
	u.RawQuery = kept.Encode()

	return u.String()
}

// Host returns the lowercased host of a URL without a leading "www.".
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// KindFromExtension classifies a URL by file extension alone. The second
// return reports whether the extension was conclusive.
func KindFromExtension(raw string) (Kind, bool) {
	ext := extensionOf(raw)
	if ext == "" {
		return KindUnknown, false
	}
	if videoExtensions[ext] {
		return KindVideo, true
	}
	if photoExtensions[ext] {
		return KindPhoto, true
	}
	return KindUnknown, false
}

// HasMediaExtension reports whether the URL ends in a known media extension.
func HasMediaExtension(raw string) bool {
	_, ok := KindFromExtension(raw)
	return ok
}

func extensionOf(raw string) string {
	u, err := url.Parse(raw)
	p := raw
	if err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}

// IsAbsolute reports whether the URL has an http or https scheme and a host.
func IsAbsolute(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
