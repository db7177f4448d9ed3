package scrape

import (
	"context"
	"encoding/json"
	"strings"

	"mediagrab/pkg/auth"
	"mediagrab/pkg/config"
	errs "mediagrab/pkg/errors"
	"mediagrab/pkg/logger"
)

// Some episode pages serve a promo clip before the real stream arrives;
// responses matching this marker are never the content.
const placeholderClipMarker = "10001_0100.mp4"

// Resolver turns a watch-page URL into a direct media URL (an mp4 or an
// HLS manifest) by sniffing network traffic while the page plays.
type Resolver struct {
	browser Browser
	log     logger.Logger
}

func NewResolver(browser Browser, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{browser: browser, log: log}
}

// isMediaResponse accepts responses the sniffer should treat as content.
func isMediaResponse(url, resourceType string) bool {
	if strings.Contains(url, placeholderClipMarker) {
		return false
	}
	lower := strings.ToLower(url)
	if strings.Contains(lower, ".m3u8") || strings.Contains(lower, ".mp4") {
		return true
	}
	return resourceType == "Media"
}

// Resolve opens pageURL in a fresh session and waits for the first media
// response. When nothing is sniffed it falls back to embedded page data and
// finally to the first video element's src.
func (r *Resolver) Resolve(ctx context.Context, pageURL string, cfg config.Config, cred *auth.Credential) (string, error) {
	opts := SessionOptions{UserAgent: cfg.Scrape.UserAgent}
	if cred != nil && cred.CookieFile != "" {
		if cookies, err := ParseCookieFile(cred.CookieFile); err == nil {
			opts.Cookies = cookies
		}
	}
	drv, err := r.browser.Open(ctx, opts)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeBrowserLaunch, "failed to open resolver session", err)
	}
	defer drv.Close()

	wait := drv.Listen(isMediaResponse)

	if err := drv.Navigate(ctx, pageURL); err != nil {
		return "", errs.Wrap(errs.ErrorTypeNetwork, "navigation failed", err)
	}

	if url, err := wait(ctx, cfg.Scrape.ResolveTimeout); err == nil && url != "" {
		r.log.DebugWithFields("media URL sniffed from network", map[string]interface{}{
			"page":  pageURL,
			"media": url,
		})
		return url, nil
	}

	if url := r.fromEmbeddedData(ctx, drv); url != "" {
		r.log.DebugWithFields("media URL found in embedded page data", map[string]interface{}{
			"page":  pageURL,
			"media": url,
		})
		return url, nil
	}

	var src string
	if err := drv.Eval(ctx, videoSrcScript, &src); err == nil {
		src = strings.TrimSpace(src)
		if src != "" && !strings.Contains(src, placeholderClipMarker) && !strings.HasPrefix(src, "blob:") {
			return src, nil
		}
	}

	return "", errs.New(errs.ErrorTypeExtraction, "no media URL found on page")
}

// fromEmbeddedData walks the server-rendered JSON blob looking for a media
// URL.
func (r *Resolver) fromEmbeddedData(ctx context.Context, drv Driver) string {
	var raw string
	if err := drv.Eval(ctx, nextDataScript, &raw); err != nil || raw == "" {
		return ""
	}
	var data interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return ""
	}
	return findMediaURL(data)
}

// findMediaURL depth-first searches arbitrary decoded JSON for the first
// string that looks like a playable media URL.
func findMediaURL(v interface{}) string {
	switch val := v.(type) {
	case string:
		if looksLikeMediaURL(val) {
			return val
		}
	case map[string]interface{}:
		for _, child := range val {
			if found := findMediaURL(child); found != "" {
				return found
			}
		}
	case []interface{}:
		for _, child := range val {
			if found := findMediaURL(child); found != "" {
				return found
			}
		}
	}
	return ""
}

func looksLikeMediaURL(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	if strings.Contains(s, placeholderClipMarker) {
		return false
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, ".m3u8") || strings.Contains(lower, ".mp4")
}
