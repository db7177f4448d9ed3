package scrape

import (
	"context"

	"github.com/lrstanley/go-ytdlp"

	"mediagrab/pkg/auth"
	errs "mediagrab/pkg/errors"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/media"
)

// YtdlpExtractor implements FlatExtractor with a flat-playlist metadata
// probe. No media is downloaded; only titles and entry URLs come back.
type YtdlpExtractor struct {
	log logger.Logger
}

func NewYtdlpExtractor(log logger.Logger) *YtdlpExtractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &YtdlpExtractor{log: log}
}

// Flat fetches flat metadata for url, capped at limit entries when limit > 0.
// A single-item page yields one entry; playlists and channels yield many.
func (y *YtdlpExtractor) Flat(ctx context.Context, url string, limit int, cred *auth.Credential) ([]media.Item, error) {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		SkipDownload().
		FlatPlaylist()
	if limit > 0 {
		cmd = cmd.PlaylistEnd(limit)
	}
	if cred != nil {
		if cred.CookieFile != "" {
			cmd = cmd.Cookies(cred.CookieFile)
		} else if cred.BrowserSource != "" {
			cmd = cmd.CookiesFromBrowser(cred.BrowserSource)
		}
	}

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeExtraction, "flat metadata probe failed", err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, "failed to parse extractor output", err)
	}

	var items []media.Item
	for _, info := range infos {
		if info == nil {
			continue
		}
		if len(info.Entries) > 0 {
			for _, entry := range info.Entries {
				if item, ok := infoToItem(entry, url); ok {
					items = append(items, item)
				}
				if limit > 0 && len(items) >= limit {
					break
				}
			}
			continue
		}
		if item, ok := infoToItem(info, url); ok {
			items = append(items, item)
		}
	}

	y.log.DebugWithFields("flat extraction complete", map[string]interface{}{
		"url":   url,
		"items": len(items),
	})
	return items, nil
}

func infoToItem(info *ytdlp.ExtractedInfo, origin string) (media.Item, bool) {
	if info == nil {
		return media.Item{}, false
	}
	var url string
	if info.WebpageURL != nil && *info.WebpageURL != "" {
		url = *info.WebpageURL
	} else if info.URL != nil {
		url = *info.URL
	}
	if url == "" {
		return media.Item{}, false
	}
	var title string
	if info.Title != nil {
		title = *info.Title
	}
	return media.Item{
		URL:       url,
		Title:     title,
		Kind:      media.KindVideo,
		OriginURL: origin,
	}, true
}
