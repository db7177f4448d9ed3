package download

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"mediagrab/pkg/auth"
	"mediagrab/pkg/config"
	errs "mediagrab/pkg/errors"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/media"
	"mediagrab/pkg/ratelimit"
	"mediagrab/pkg/retry"
)

// Request describes one file to download.
type Request struct {
	Item  media.Item
	Dir   string
	Index int
	Cred  *auth.Credential
	Cfg   config.Config

	// Progress receives whole percentages, monotonically. Optional.
	Progress func(percent int)
	// Status receives human-readable state changes. Optional.
	Status func(msg string)
}

// Resolver recovers a direct media URL from a watch page when the primary
// downloader fails. Implemented by scrape.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, pageURL string, cfg config.Config, cred *auth.Credential) (string, error)
}

// Downloader executes the strategy chain: external downloader first, then a
// browser-resolved direct URL fed back through the downloader or fetched
// over plain HTTP.
type Downloader struct {
	resolver  Resolver
	limiter   ratelimit.Limiter
	converter string
	log       logger.Logger
}

// NewDownloader creates a Downloader. resolver may be nil to disable the
// fallback tier; limiter may be nil for unlimited throughput.
func NewDownloader(resolver Resolver, limiter ratelimit.Limiter, log logger.Logger) *Downloader {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{
		resolver:  resolver,
		limiter:   limiter,
		converter: FindConverter(),
		log:       log,
	}
}

// Download fetches req.Item into req.Dir and returns the final file path.
func (d *Downloader) Download(ctx context.Context, req Request) (string, error) {
	d.limiter.Wait()
	if ctx.Err() != nil {
		return "", errs.Wrap(errs.ErrorTypeDownload, "download aborted", ctx.Err())
	}
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return "", errs.Wrap(errs.ErrorTypeDownload, "failed to create output directory", err)
	}

	var path string
	var err error
	if req.Item.Kind == media.KindPhoto {
		path, err = d.downloadPhoto(ctx, req)
	} else {
		path, err = d.downloadVideo(ctx, req)
	}
	if err != nil {
		return "", err
	}

	if req.Item.Kind != media.KindPhoto {
		path = d.maybeConvert(ctx, req, path)
	}

	if err := WriteSidecar(path, req.Item); err != nil {
		d.log.WarnWithFields("sidecar write failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}

	if info, err := os.Stat(path); err == nil {
		d.status(req, "saved "+FormatBytes(info.Size()))
		d.log.InfoWithFields("download complete", map[string]interface{}{
			"path": path,
			"size": FormatBytes(info.Size()),
		})
	}
	return path, nil
}

func (d *Downloader) downloadPhoto(ctx context.Context, req Request) (string, error) {
	d.status(req, "downloading photo")
	url := req.Item.URL
	if !media.HasMediaExtension(url) && d.resolver != nil {
		resolved, err := d.resolver.Resolve(ctx, url, req.Cfg, req.Cred)
		if err == nil {
			url = resolved
		}
	}
	fetcher := newHTTPFetcher(req.Cfg.Scrape.UserAgent, req.Cfg.Download.Timeout)
	dest := LocalFilename(req.Dir, req.Cfg.Download.Naming, req.Index, req.Item.Title,
		ExtensionFromURL(url, "jpg"))
	return fetcher.Fetch(ctx, url, req.Item.OriginURL, dest, req.Progress)
}

func (d *Downloader) downloadVideo(ctx context.Context, req Request) (string, error) {
	d.status(req, "downloading")
	path, primaryErr := d.runYtdlp(ctx, req, req.Item.URL)
	if primaryErr == nil {
		return path, nil
	}
	d.log.WarnWithFields("primary download failed", map[string]interface{}{
		"url":   req.Item.URL,
		"error": primaryErr.Error(),
	})

	if d.resolver == nil {
		return "", primaryErr
	}

	d.status(req, "resolving direct media URL")
	direct, err := d.resolver.Resolve(ctx, req.Item.URL, req.Cfg, req.Cred)
	if err != nil {
		return "", primaryErr
	}

	if strings.Contains(strings.ToLower(direct), ".m3u8") {
		// HLS manifests still need the external downloader to stitch
		// segments together.
		d.status(req, "downloading stream")
		return d.runYtdlp(ctx, req, direct)
	}

	d.status(req, "downloading direct file")
	fetcher := newHTTPFetcher(req.Cfg.Scrape.UserAgent, req.Cfg.Download.Timeout)
	dest := LocalFilename(req.Dir, req.Cfg.Download.Naming, req.Index, req.Item.Title,
		ExtensionFromURL(direct, "mp4"))
	return fetcher.Fetch(ctx, direct, req.Item.URL, dest, req.Progress)
}

func (d *Downloader) runYtdlp(ctx context.Context, req Request, url string) (string, error) {
	attempts := req.Cfg.Download.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = attempts
	cfg.Context = ctx
	cfg.Logger = d.log

	return retry.DoWithResult(func() (string, error) {
		return d.runYtdlpOnce(ctx, req, url)
	}, cfg)
}

func (d *Downloader) runYtdlpOnce(ctx context.Context, req Request, url string) (string, error) {
	template := OutputTemplate(req.Dir, req.Cfg.Download.Naming, req.Index, req.Item.Title)

	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		RestrictFilenames().
		Format(BuildFormat(req.Cfg.Video.Resolution, req.Cfg.Download.Extension, d.converter != "")).
		Output(template)
	if req.Cfg.Download.Subtitles {
		cmd = cmd.WriteSubs()
	}
	if req.Cred != nil {
		if req.Cred.CookieFile != "" {
			cmd = cmd.Cookies(req.Cred.CookieFile)
		} else if req.Cred.BrowserSource != "" {
			cmd = cmd.CookiesFromBrowser(req.Cred.BrowserSource)
		}
	}
	if req.Progress != nil {
		cmd.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes > 0 {
				req.Progress(int(update.DownloadedBytes * 100 / update.TotalBytes))
			}
		})
	}

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeDownload, "external downloader failed", err)
	}

	if result != nil {
		if info, err := result.GetExtractedInfo(); err == nil && len(info) > 0 && info[0].Filename != nil {
			return *info[0].Filename, nil
		}
	}
	// Absent extractor output, derive the path from the template.
	return ResolveTemplate(template, req.Item.Title, req.Index), nil
}

// maybeConvert probes every downloaded video when a converter is available
// and transcodes files whose codec or container falls short of what the
// settings and common players accept.
func (d *Downloader) maybeConvert(ctx context.Context, req Request, path string) string {
	if d.converter == "" {
		return path
	}
	codec, err := ProbeCodec(ctx, d.converter, path)
	if err != nil {
		d.log.DebugWithFields("codec probe failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		codec = ""
	}
	want := strings.TrimPrefix(strings.ToLower(req.Cfg.Download.Extension), ".")
	have := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !NeedsTranscode(codec, want, have) {
		return path
	}
	d.status(req, "converting to mp4")
	converted, err := TranscodeToMP4(ctx, d.converter, path)
	if err != nil {
		d.log.WarnWithFields("conversion failed, keeping original container", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return path
	}
	return converted
}

func (d *Downloader) status(req Request, msg string) {
	if req.Status != nil {
		req.Status(msg)
	}
}
