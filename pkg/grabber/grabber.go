// Package grabber is the orchestration facade: it wires the platform
// registry, extraction engine, credential manager and download queue into
// the operations a UI or CLI drives directly.
package grabber

import (
	"context"
	"errors"
	"time"

	"mediagrab/internal/queue"
	"mediagrab/pkg/auth"
	"mediagrab/pkg/browser"
	"mediagrab/pkg/config"
	"mediagrab/pkg/download"
	"mediagrab/pkg/events"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/media"
	"mediagrab/pkg/platform"
	"mediagrab/pkg/ratelimit"
	"mediagrab/pkg/scrape"
)

const shutdownGrace = 10 * time.Second

// Outcome is the result of one scrape request.
type Outcome struct {
	// Unsupported is set when no platform claims the URL. Not a fault.
	Unsupported bool
	// Items are the discovered downloadable items, possibly empty.
	Items []media.Item
}

// Grabber owns the full pipeline from URL to files on disk.
type Grabber struct {
	cfg      *config.Config
	registry *platform.Registry
	queue    *queue.Queue
	creds    *auth.Manager
	sink     events.Sink
	log      logger.Logger
	chrome   *browser.Chrome
}

// New wires a Grabber from configuration. sink may be nil to discard
// events.
func New(cfg *config.Config, sink events.Sink, log logger.Logger) *Grabber {
	if sink == nil {
		sink = events.Nop{}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if rpm := cfg.RateLimit.RequestsPerMinute; rpm > 0 {
		limiter = ratelimit.NewTokenBucket(rpm, time.Minute)
	}

	chrome := browser.New(browser.Options{Headless: true, Logger: log})
	engine := scrape.NewEngine(chrome, scrape.NewYtdlpExtractor(log), limiter, log)
	resolver := scrape.NewResolver(chrome, log)
	dl := download.NewDownloader(resolver, limiter, log)

	creds, err := auth.NewManager()
	if err != nil {
		log.WarnWithFields("credential manager degraded to environment only", map[string]interface{}{
			"error": err.Error(),
		})
		creds = auth.NewManagerWithStores(auth.NewEnvironmentStore())
	}

	g := &Grabber{
		cfg:      cfg,
		registry: platform.NewRegistry(platform.Deps{Engine: engine, Downloader: dl}),
		queue:    queue.New(cfg.System.Threads, sink, log),
		creds:    creds,
		sink:     sink,
		log:      log,
		chrome:   chrome,
	}
	g.queue.SetShutdownFunc(systemShutdown(log), shutdownGrace)
	return g
}

// Registry exposes platform dispatch for callers that need to inspect
// handler selection directly.
func (g *Grabber) Registry() *platform.Registry { return g.registry }

// Credentials exposes the credential manager for the auth commands.
func (g *Grabber) Credentials() *auth.Manager { return g.creds }

// Scrape extracts metadata behind target. Discovered items are also
// streamed to the event sink as they appear.
func (g *Grabber) Scrape(ctx context.Context, target string) Outcome {
	h := g.registry.HandlerFor(target)
	if h == nil {
		g.log.InfoWithFields("no handler for URL", map[string]interface{}{
			"url": target,
		})
		return Outcome{Unsupported: true}
	}

	cred := g.credentialFor(h.Tag())
	items := h.GetPlaylistMetadata(ctx, target, g.cfg.Snapshot(), cred, g.sink.ItemFound)
	return Outcome{Items: items}
}

// EnqueueDownloads adds one held job per item and returns the job ids in
// item order. Items from unsupported platforms are skipped.
func (g *Grabber) EnqueueDownloads(items []media.Item) []string {
	snapshot := g.cfg.Snapshot()
	ids := make([]string, 0, len(items))
	for i, item := range items {
		h := g.registry.ByTag(item.Platform)
		if h == nil {
			h = g.registry.HandlerFor(item.URL)
		}
		if h == nil || item.Err != nil {
			continue
		}

		base := snapshot.Download.VideoPath
		if item.Kind == media.KindPhoto {
			base = snapshot.Download.PhotoPath
		}
		dir := h.ResolveOutputPath(base, item.OriginURL)
		cred := g.credentialFor(h.Tag())

		item := item
		handler := h
		index := i + 1
		run := func(ctx context.Context, progress func(int), status func(string)) error {
			_, err := handler.Download(ctx, download.Request{
				Item:     item,
				Dir:      dir,
				Index:    index,
				Cred:     cred,
				Cfg:      snapshot,
				Progress: progress,
				Status:   status,
			})
			return err
		}
		ids = append(ids, g.queue.Enqueue(item.URL, item.Title, snapshot, run))
	}
	return ids
}

// MarkQueued releases specific held jobs for download.
func (g *Grabber) MarkQueued(ids ...string) { g.queue.MarkQueued(ids...) }

// MarkAllQueued releases every held job for download.
func (g *Grabber) MarkAllQueued() { g.queue.MarkAllQueued() }

// PromoteToFront lets the named jobs jump ahead of the backlog.
func (g *Grabber) PromoteToFront(ids ...string) { g.queue.PromoteToFront(ids...) }

// SetConcurrency adjusts the download worker cap at runtime.
func (g *Grabber) SetConcurrency(n int) { g.queue.SetConcurrency(n) }

// Jobs returns a snapshot of the queue.
func (g *Grabber) Jobs() []queue.Job { return g.queue.Jobs() }

// Wait blocks until all released downloads finish.
func (g *Grabber) Wait() { g.queue.Wait() }

// Close stops the queue and tears down the browser.
func (g *Grabber) Close() error {
	g.queue.Stop()
	return g.chrome.Close()
}

func (g *Grabber) credentialFor(tag string) *auth.Credential {
	cred, err := g.creds.Get(tag)
	if err != nil {
		if !errors.Is(err, auth.ErrNotFound) {
			g.log.WarnWithFields("credential lookup failed", map[string]interface{}{
				"platform": tag,
				"error":    err.Error(),
			})
		}
		return nil
	}
	return cred
}
