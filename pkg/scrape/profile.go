package scrape

import "mediagrab/pkg/media"

// Profile describes the platform-specific behaviour the engine needs during
// a scrape. Handlers supply one per platform; the engine stays generic.
type Profile struct {
	// Tag is the platform tag stamped onto every produced item.
	Tag string

	// StructuredFirst enables the tier-1 structured extraction attempt
	// before falling back to the browser.
	StructuredFirst bool

	// TitleSelector overrides the document title for platforms whose real
	// title lives in a nested element. Empty means document.title.
	TitleSelector string

	// ValidLink reports whether an href has this platform's downloadable
	// item shape (extension allowlist or path pattern).
	ValidLink func(href string) bool

	// IsIndexPage reports whether a URL is a pagination or series page
	// rather than a directly downloadable item.
	IsIndexPage func(url string) bool

	// Classify decides the media kind of an accepted candidate. videoHint
	// carries the DOM-derived signal for platforms whose URLs do not
	// distinguish kind.
	Classify func(href string, videoHint bool) media.Kind

	// Paginated platforms advance a page counter and re-navigate to a
	// derived URL instead of scrolling.
	Paginated bool

	// NextPageURL derives the URL of page n (2-based on the second call)
	// from the target. Returning false stops pagination.
	NextPageURL func(target string, page int) (string, bool)

	// NextSelector, for platforms that paginate in place, is the control
	// clicked to advance to the next page. Used when NextPageURL is nil.
	NextSelector string

	// ExpandSelector, when set, is clicked after navigation to expand a
	// collapsed listing ("View More").
	ExpandSelector string
}

// classify applies the decision precedence: extension first, then the
// platform rule.
func (p Profile) classify(href string, videoHint bool) media.Kind {
	if kind, ok := media.KindFromExtension(href); ok {
		return kind
	}
	if p.Classify != nil {
		return p.Classify(href, videoHint)
	}
	return media.KindUnknown
}

func (p Profile) validLink(href string) bool {
	if p.ValidLink != nil {
		return p.ValidLink(href)
	}
	return media.HasMediaExtension(href)
}

func (p Profile) isIndexPage(url string) bool {
	return p.IsIndexPage != nil && p.IsIndexPage(url)
}
