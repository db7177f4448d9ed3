// Package platform maps URLs to per-platform capability sets. Each handler
// bundles a URL matcher, a scrape profile for the extraction engine and the
// download delegation, so adding a platform means adding one table entry.
package platform

import (
	"context"

	"mediagrab/pkg/auth"
	"mediagrab/pkg/config"
	"mediagrab/pkg/download"
	"mediagrab/pkg/media"
	"mediagrab/pkg/scrape"
)

// Handler is the capability set for one platform.
type Handler interface {
	// Tag is the stable platform identifier ("youtube", "pinterest", ...).
	Tag() string
	// CanHandle reports whether this handler owns the URL. Pure string and
	// pattern matching, no network.
	CanHandle(url string) bool
	// GetMetadata extracts at most one item from a single-item URL.
	GetMetadata(ctx context.Context, url string, cfg config.Config, cred *auth.Credential, onItem func(media.Item)) []media.Item
	// GetPlaylistMetadata extracts every requested item behind an index,
	// playlist or profile URL.
	GetPlaylistMetadata(ctx context.Context, url string, cfg config.Config, cred *auth.Credential, onItem func(media.Item)) []media.Item
	// Download fetches one extracted item to disk and returns its path.
	Download(ctx context.Context, req download.Request) (string, error)
	// ResolveOutputPath derives the destination directory for items coming
	// from target, grouping batches from the same source page together.
	ResolveOutputPath(base, target string) string
}

// Deps are the shared services handlers delegate to.
type Deps struct {
	Engine     *scrape.Engine
	Downloader *download.Downloader
}

// handler is the generic implementation every platform shares; behaviour
// differences live entirely in match and profile.
type handler struct {
	tag     string
	match   func(url string) bool
	profile scrape.Profile
	deps    Deps
}

func (h *handler) Tag() string { return h.tag }

func (h *handler) CanHandle(url string) bool { return h.match(url) }

func (h *handler) GetMetadata(ctx context.Context, url string, cfg config.Config, cred *auth.Credential, onItem func(media.Item)) []media.Item {
	// Single-item extraction is playlist extraction capped at one entry.
	cfg.Scrape.MaxEntries = 1
	return h.deps.Engine.Extract(ctx, url, h.profile, cfg, cred, onItem)
}

func (h *handler) GetPlaylistMetadata(ctx context.Context, url string, cfg config.Config, cred *auth.Credential, onItem func(media.Item)) []media.Item {
	return h.deps.Engine.Extract(ctx, url, h.profile, cfg, cred, onItem)
}

func (h *handler) Download(ctx context.Context, req download.Request) (string, error) {
	return h.deps.Downloader.Download(ctx, req)
}

func (h *handler) ResolveOutputPath(base, target string) string {
	return resolveOutputPath(base, target)
}
