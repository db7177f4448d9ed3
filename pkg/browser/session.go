package browser

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	errs "mediagrab/pkg/errors"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/scrape"
)

// session is one stealth page in its own browser context, implementing
// scrape.Driver. The context is disposed with the session.
type session struct {
	page    *rod.Page
	browser *rod.Browser
	timeout time.Duration
	log     logger.Logger
}

func (s *session) configure(ctx context.Context, opts scrape.SessionOptions) error {
	p := s.page.Context(ctx)

	if opts.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			return errs.Wrap(errs.ErrorTypeBrowserLaunch, "failed to set user agent", err)
		}
	}

	if len(opts.Cookies) > 0 {
		params := make([]*proto.NetworkCookieParam, 0, len(opts.Cookies))
		for _, c := range opts.Cookies {
			param := &proto.NetworkCookieParam{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Secure:   c.Secure,
				HTTPOnly: c.HTTPOnly,
			}
			if c.Expires > 0 {
				param.Expires = proto.TimeSinceEpoch(c.Expires)
			}
			params = append(params, param)
		}
		if err := p.SetCookies(params); err != nil {
			return errs.Wrap(errs.ErrorTypeAuth, "failed to set cookies", err)
		}
	}
	return nil
}

func (s *session) Navigate(ctx context.Context, url string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return errs.Wrap(errs.ErrorTypeNetwork, "navigation failed", err)
	}
	if err := p.WaitLoad(); err != nil {
		// Heavy pages routinely miss the load event; the DOM is usually
		// usable anyway.
		s.log.DebugWithFields("wait load timed out", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
	}
	return nil
}

func (s *session) Eval(ctx context.Context, js string, out interface{}) error {
	res, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeExtraction, "page eval failed", err)
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(res.Value)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeParsing, "failed to encode eval result", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrap(errs.ErrorTypeParsing, "failed to decode eval result", err)
	}
	return nil
}

func (s *session) PressKey(ctx context.Context, key scrape.Key) error {
	k, ok := keyMap[key]
	if !ok {
		return errs.New(errs.ErrorTypeUnknown, "unsupported key: "+string(key))
	}
	if err := s.page.Context(ctx).Keyboard.Press(k); err != nil {
		return errs.Wrap(errs.ErrorTypeExtraction, "key press failed", err)
	}
	return nil
}

var keyMap = map[scrape.Key]input.Key{
	scrape.KeyEnd:      input.End,
	scrape.KeyHome:     input.Home,
	scrape.KeyPageDown: input.PageDown,
}

func (s *session) Listen(accept func(url, resourceType string) bool) func(ctx context.Context, timeout time.Duration) (string, error) {
	found := make(chan string, 1)

	// EachEvent subscribes before returning, so responses triggered by a
	// later Navigate are captured.
	wait := s.page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Response == nil {
			return false
		}
		if accept(e.Response.URL, string(e.Type)) {
			select {
			case found <- e.Response.URL:
			default:
			}
			return true
		}
		return false
	})
	go wait()

	return func(ctx context.Context, timeout time.Duration) (string, error) {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case url := <-found:
			return url, nil
		case <-timer.C:
			return "", errs.New(errs.ErrorTypeExtraction, "no matching network response before timeout")
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (s *session) Close() error {
	err := s.page.Close()
	if s.browser != nil {
		disposeContext(s.browser)
	}
	return err
}

func disposeContext(b *rod.Browser) {
	if b.BrowserContextID == "" {
		return
	}
	_ = proto.TargetDisposeBrowserContext{BrowserContextID: b.BrowserContextID}.Call(b)
}
