// Package scrape implements the two-tier metadata extraction engine: a fast
// structured pass through the external extractor, then a browser-driven
// scrape that defeats infinite scroll, pagination and anti-bot DOM noise.
//
// The browser is consumed through the narrow Driver interface below so the
// extraction algorithm never depends on a concrete automation library.
package scrape

import (
	"context"
	"time"
)

// Key is a keyboard key the driver can press on the page.
type Key string

const (
	KeyEnd      Key = "End"
	KeyHome     Key = "Home"
	KeyPageDown Key = "PageDown"
)

// Cookie is one browser cookie, as parsed from a Netscape cookie jar.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  int64
	Secure   bool
	HTTPOnly bool
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	UserAgent string
	Cookies   []Cookie

	// NavigateTimeout bounds each page load. Zero means no limit.
	NavigateTimeout time.Duration
}

// Driver is one isolated browser session. Sessions are never shared between
// concurrent scrapes.
type Driver interface {
	// Navigate loads the URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Eval runs a JavaScript function expression ("() => ...") in the page
	// and decodes its JSON result into out. out may be nil.
	Eval(ctx context.Context, js string, out interface{}) error
	// PressKey dispatches a keyboard event to the page.
	PressKey(ctx context.Context, key Key) error
	// Listen starts capturing network responses. The returned wait blocks
	// until a response URL satisfies accept, the timeout elapses, or ctx is
	// done. Listen must install its capture before returning so responses
	// triggered by a subsequent Navigate are not missed.
	Listen(accept func(url, resourceType string) bool) func(ctx context.Context, timeout time.Duration) (string, error)
	// Close tears down the session.
	Close() error
}

// Browser opens isolated sessions. Implemented by pkg/browser over a real
// headless browser, and by mocks in tests.
type Browser interface {
	Open(ctx context.Context, opts SessionOptions) (Driver, error)
}
