package scrape

import (
	"context"
	"strings"
	"time"

	"mediagrab/pkg/auth"
	"mediagrab/pkg/config"
	errs "mediagrab/pkg/errors"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/media"
	"mediagrab/pkg/ratelimit"
)

// FlatExtractor is the tier-1 structured extraction capability: a bounded
// flat-playlist metadata fetch through the external extractor.
type FlatExtractor interface {
	Flat(ctx context.Context, url string, limit int, cred *auth.Credential) ([]media.Item, error)
}

// Engine runs the two-tier extraction strategy. Each call owns its own
// browser session; Engines are safe for concurrent use.
type Engine struct {
	browser Browser
	flat    FlatExtractor
	limiter ratelimit.Limiter
	log     logger.Logger
}

// NewEngine creates an extraction engine. flat may be nil to disable the
// structured tier; limiter may be nil for unpaced navigation.
func NewEngine(browser Browser, flat FlatExtractor, limiter ratelimit.Limiter, log logger.Logger) *Engine {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{browser: browser, flat: flat, limiter: limiter, log: log}
}

// Extract discovers downloadable items behind target. It always returns a
// list: failures surface as an empty list or a single error-flagged item,
// never as a panic or error past the handler boundary.
func (e *Engine) Extract(ctx context.Context, target string, p Profile, cfg config.Config, cred *auth.Credential, onItem func(media.Item)) []media.Item {
	if p.StructuredFirst && e.flat != nil {
		items, err := e.flat.Flat(ctx, target, cfg.Scrape.MaxEntries, cred)
		if err == nil {
			accepted := e.acceptStructured(items, target, p, cfg, onItem)
			if len(accepted) > 0 {
				return accepted
			}
			e.log.DebugWithFields("structured extraction returned nothing usable, falling back to browser", map[string]interface{}{
				"url": target,
			})
		} else {
			e.log.WarnWithFields("structured extraction failed, falling back to browser", map[string]interface{}{
				"url":   target,
				"error": err.Error(),
			})
		}
	}
	return e.browse(ctx, target, p, cfg, cred, onItem)
}

// acceptStructured filters, deduplicates and caps tier-1 results through the
// same session bookkeeping the browser tier uses.
func (e *Engine) acceptStructured(items []media.Item, target string, p Profile, cfg config.Config, onItem func(media.Item)) []media.Item {
	sess := newSession(target, cfg)
	for _, it := range items {
		if sess.satisfied() {
			break
		}
		canon := media.Canonicalize(it.URL)
		if canon == "" {
			continue
		}
		kind := it.Kind
		if kind == media.KindUnknown || kind == "" {
			kind = p.classify(it.URL, false)
		}
		if !sess.wanted(kind) {
			continue
		}
		item := media.Item{
			URL:       canon,
			Title:     it.Title,
			Kind:      kind,
			OriginURL: target,
			Platform:  p.Tag,
		}
		if sess.accept(item) && onItem != nil {
			onItem(item)
		}
	}
	return sess.results
}

// browse is the tier-2 browser-driven scrape.
func (e *Engine) browse(ctx context.Context, target string, p Profile, cfg config.Config, cred *auth.Credential, onItem func(media.Item)) []media.Item {
	drv, err := e.openSession(ctx, cfg, cred)
	if err != nil {
		e.log.ErrorWithFields("browser launch failed", map[string]interface{}{
			"url":   target,
			"error": err.Error(),
		})
		return []media.Item{{
			URL:       media.Canonicalize(target),
			Title:     "extraction failed",
			Kind:      media.KindUnknown,
			OriginURL: target,
			Platform:  p.Tag,
			Err:       errs.Wrap(errs.ErrorTypeBrowserLaunch, "failed to open browser session", err),
		}}
	}
	defer drv.Close()

	sess := newSession(target, cfg)

	pageURL := target
	page := 1
	navigate := true
	for {
		acceptedHere := e.scrapePage(ctx, drv, pageURL, page == 1, navigate, sess, p, onItem)

		if !p.Paginated || sess.satisfied() || ctx.Err() != nil {
			break
		}
		// A page that contributed nothing after the first one means the
		// index is exhausted.
		if acceptedHere == 0 && page > 1 {
			break
		}

		if p.NextPageURL != nil {
			next, ok := p.NextPageURL(target, page+1)
			if !ok {
				break
			}
			pageURL = next
			navigate = true
		} else if p.NextSelector != "" {
			var clicked bool
			if err := drv.Eval(ctx, clickScript(p.NextSelector), &clicked); err != nil || !clicked {
				break
			}
			e.settle(ctx, sess.cfg.Scrape.ScrollSettle)
			navigate = false
		} else {
			break
		}
		page++
	}

	if len(sess.results) == 0 && !p.isIndexPage(target) {
		// The page itself is the item of last resort.
		title := sess.pageTitle
		if title == "" {
			title = target
		}
		kind := p.classify(target, false)
		if sess.wanted(kind) {
			item := media.Item{
				URL:       media.Canonicalize(target),
				Title:     title,
				Kind:      kind,
				OriginURL: target,
				Platform:  p.Tag,
			}
			if sess.accept(item) && onItem != nil {
				onItem(item)
			}
		}
	}

	e.log.InfoWithFields("browser scrape finished", map[string]interface{}{
		"url":       target,
		"items":     len(sess.results),
		"pages":     len(sess.visitedPages),
		"raw_hrefs": len(sess.seenRaw),
	})
	return sess.results
}

func (e *Engine) openSession(ctx context.Context, cfg config.Config, cred *auth.Credential) (Driver, error) {
	opts := SessionOptions{
		UserAgent:       cfg.Scrape.UserAgent,
		NavigateTimeout: cfg.Scrape.NavigateTimeout,
	}
	if cred != nil && cred.CookieFile != "" {
		cookies, err := ParseCookieFile(cred.CookieFile)
		if err != nil {
			e.log.WarnWithFields("cookie file unreadable, continuing without cookies", map[string]interface{}{
				"file":  cred.CookieFile,
				"error": err.Error(),
			})
		} else {
			opts.Cookies = cookies
			e.log.DebugWithFields("cookies loaded into session", map[string]interface{}{
				"count": len(cookies),
			})
		}
	}
	return e.browser.Open(ctx, opts)
}

// scrapePage navigates to pageURL and runs the collect/scroll loop until
// stagnation, satisfaction or the hard iteration cap. It returns the number
// of items accepted from this page.
func (e *Engine) scrapePage(ctx context.Context, drv Driver, pageURL string, firstPage, navigate bool, sess *session, p Profile, onItem func(media.Item)) int {
	if navigate {
		e.limiter.Wait()
		if err := drv.Navigate(ctx, pageURL); err != nil {
			e.log.WarnWithFields("navigation failed", map[string]interface{}{
				"url":   pageURL,
				"error": err.Error(),
			})
			return 0
		}
	}
	sess.visit(pageURL)
	e.settle(ctx, sess.cfg.Scrape.ScrollSettle)

	if title := e.pageTitle(ctx, drv, p); title != "" && sess.pageTitle == "" {
		sess.pageTitle = title
	}

	if p.ExpandSelector != "" {
		var clicked bool
		if err := drv.Eval(ctx, clickScript(p.ExpandSelector), &clicked); err == nil && clicked {
			e.settle(ctx, sess.cfg.Scrape.ScrollSettle)
		}
	}

	acceptedHere := 0

	// The target itself may be a directly downloadable item; accept it
	// before any scrolling.
	if firstPage && p.validLink(pageURL) && !p.isIndexPage(pageURL) {
		kind := p.classify(pageURL, false)
		if sess.wanted(kind) {
			item := media.Item{
				URL:       media.Canonicalize(pageURL),
				Title:     sess.pageTitle,
				Kind:      kind,
				OriginURL: sess.target,
				Platform:  p.Tag,
			}
			if sess.accept(item) {
				acceptedHere++
				if onItem != nil {
					onItem(item)
				}
			}
		}
	}

	stagnant := 0
	for iter := 0; iter < sess.cfg.Scrape.MaxIterations; iter++ {
		if ctx.Err() != nil {
			break
		}

		newRaw, newAccepted := e.collect(ctx, drv, sess, p, onItem)
		acceptedHere += newAccepted

		if sess.satisfied() {
			break
		}

		if newRaw == 0 {
			stagnant++
			if stagnant >= sess.stagnationThreshold() {
				break
			}
			if stagnant == sess.cfg.Scrape.NudgeAfter {
				e.nudge(ctx, drv, sess.cfg.Scrape.ScrollSettle)
			}
		} else {
			stagnant = 0
		}

		// Paginated platforms advance by re-navigation, not scrolling; one
		// extra pass catches content that settled late.
		if p.Paginated {
			if iter >= 1 {
				break
			}
		} else {
			e.scroll(ctx, drv)
		}
		e.settle(ctx, sess.cfg.Scrape.ScrollSettle)
	}

	return acceptedHere
}

// collect runs one extraction pass: lift all anchors, restore visual order,
// then filter, classify and deduplicate. Returns (new raw hrefs, newly
// accepted items).
func (e *Engine) collect(ctx context.Context, drv Driver, sess *session, p Profile, onItem func(media.Item)) (int, int) {
	var anchors []Anchor
	if err := drv.Eval(ctx, anchorScript, &anchors); err != nil {
		e.log.DebugWithFields("anchor extraction failed", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, 0
	}
	anchors = OrderByVisualRows(anchors)

	newRaw := 0
	newAccepted := 0
	for _, a := range anchors {
		if sess.markRaw(a.URL) {
			newRaw++
		}
		if !media.IsAbsolute(a.URL) {
			continue
		}
		if !p.validLink(a.URL) {
			continue
		}
		kind := p.classify(a.URL, a.VideoHint)
		// Dropping unwanted kinds here keeps the scroll loop from wasting
		// cycles collecting them.
		if !sess.wanted(kind) {
			continue
		}

		title := strings.TrimSpace(a.Text)
		if title == "" {
			title = sess.pageTitle
		}
		item := media.Item{
			URL:       media.Canonicalize(a.URL),
			Title:     title,
			Kind:      kind,
			OriginURL: sess.target,
			Platform:  p.Tag,
		}
		if sess.accept(item) {
			newAccepted++
			if onItem != nil {
				onItem(item)
			}
		}
	}
	return newRaw, newAccepted
}

func (e *Engine) scroll(ctx context.Context, drv Driver) {
	// Several triggers because platforms listen for different events.
	_ = drv.PressKey(ctx, KeyEnd)
	_ = drv.PressKey(ctx, KeyPageDown)
	_ = drv.Eval(ctx, scrollScript, nil)
}

// nudge jumps back up and re-scrolls to the bottom to dislodge lazy-loaded
// content that failed to trigger.
func (e *Engine) nudge(ctx context.Context, drv Driver, settle time.Duration) {
	_ = drv.PressKey(ctx, KeyHome)
	_ = drv.Eval(ctx, nudgeScript, nil)
	e.settle(ctx, settle)
	_ = drv.PressKey(ctx, KeyEnd)
	_ = drv.Eval(ctx, scrollScript, nil)
}

func (e *Engine) pageTitle(ctx context.Context, drv Driver, p Profile) string {
	var title string
	if err := drv.Eval(ctx, titleScript(p.TitleSelector), &title); err != nil {
		return ""
	}
	return strings.TrimSpace(title)
}

func (e *Engine) settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
