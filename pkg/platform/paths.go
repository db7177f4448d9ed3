package platform

import (
	"net/url"
	"path/filepath"
	"strings"

	"mediagrab/pkg/download"
)

// Path segments that shape URLs but never name content.
var structuralSegments = map[string]bool{
	"watch": true, "shorts": true, "pin": true, "p": true,
	"reel": true, "reels": true, "tv": true, "video": true,
	"videos": true, "photo": true, "episodes": true, "ep": true,
	"status": true, "playlist": true, "channel": true, "c": true,
	"user": true, "search": true, "pins": true, "story.php": true,
}

// resolveOutputPath derives a grouping subdirectory from the origin URL so
// items scraped from one page land together. Anything unparseable degrades
// to the bare base path.
func resolveOutputPath(base, target string) string {
	sub := friendlyName(target)
	if sub == "" {
		return base
	}
	return filepath.Join(base, sub)
}

// friendlyName picks the most descriptive URL piece: a profile or series
// segment when one exists, otherwise the bare site name.
func friendlyName(target string) string {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil || u.Host == "" {
		return ""
	}

	var pick string
	for _, seg := range strings.Split(u.Path, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" || structuralSegments[strings.ToLower(seg)] {
			continue
		}
		if strings.HasPrefix(seg, "@") {
			pick = strings.TrimPrefix(seg, "@")
			break
		}
		if pick == "" && !looksLikeID(seg) {
			pick = seg
		}
	}
	if pick == "" {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if i := strings.IndexByte(host, '.'); i > 0 {
			pick = host[:i]
		} else {
			pick = host
		}
	}
	return download.SanitizeFilename(pick)
}

// looksLikeID rejects opaque identifiers (all digits, or digit-led slugs
// like "42000000606_series-name" are kept since the tail is descriptive).
func looksLikeID(seg string) bool {
	digits := 0
	for _, r := range seg {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits == len(seg) && digits > 0
}
