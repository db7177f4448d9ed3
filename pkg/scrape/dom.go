package scrape

import (
	"fmt"
	"sort"
)

// Anchor is one anchor element lifted from the page with its screen position
// and best-effort display text.
type Anchor struct {
	URL       string  `json:"url"`
	Text      string  `json:"text"`
	Top       float64 `json:"top"`
	Left      float64 `json:"left"`
	VideoHint bool    `json:"video_hint"`
}

// rowBand is the vertical distance within which anchors are treated as the
// same visual row.
const rowBand = 250.0

// anchorScript collects every anchor with its absolute position and a
// display text resolved through aria-label, title attribute, nested image
// alt text and sibling headings when the anchor's own text is a generic
// placeholder. The video hint looks for an adjacent <video> element or
// timestamp-looking text inside the nearest card container.
const anchorScript = `() => {
	const generic = new Set(['save', 'share', 'more', 'follow', 'like', 'visit']);
	const pickText = (a) => {
		let t = (a.innerText || '').trim();
		if (!t || generic.has(t.toLowerCase())) {
			t = (a.getAttribute('aria-label') || a.getAttribute('title') || '').trim();
		}
		if (!t) {
			const img = a.querySelector('img[alt]');
			if (img) t = (img.getAttribute('alt') || '').trim();
		}
		if (!t && a.parentElement) {
			const h = a.parentElement.querySelector('h1, h2, h3, h4');
			if (h) t = (h.innerText || '').trim();
		}
		return t;
	};
	return Array.from(document.querySelectorAll('a[href]')).map(a => {
		const r = a.getBoundingClientRect();
		const card = a.closest('[data-test-id="pin"], .pin, .post, article, [role="link"]');
		const cardText = card ? (card.innerText || '') : '';
		return {
			url: a.href,
			text: pickText(a),
			top: r.top + window.scrollY,
			left: r.left + window.scrollX,
			video_hint: !!(card && (card.querySelector('video') || /\b\d+:\d{2}\b/.test(cardText)))
		};
	}).filter(x => x.url);
}`

// titleScript resolves the page title, preferring a platform-specific
// selector when the real title lives in a nested element.
func titleScript(sel string) string {
	return fmt.Sprintf(`() => {
	const sel = %q;
	if (sel) {
		const el = document.querySelector(sel);
		if (el && el.innerText && el.innerText.trim()) return el.innerText.trim();
	}
	return (document.title || '').trim();
}`, sel)
}

// videoSrcScript reads a rendered <video> element's source.
const videoSrcScript = `() => {
	const v = document.querySelector('video');
	if (!v) return '';
	if (v.src) return v.src;
	const s = v.querySelector('source');
	return (s && s.src) || '';
}`

// nextDataScript lifts the embedded page-state JSON blob if present.
const nextDataScript = `() => {
	const s = document.querySelector('script#__NEXT_DATA__');
	return s ? s.textContent : '';
}`

// scrollScript pushes the window and the tallest scrollable container to the
// bottom; some platforms scroll an inner element, not the window.
const scrollScript = `() => {
	window.scrollTo(0, document.body.scrollHeight);
	let best = null;
	for (const el of document.querySelectorAll('div, main, section')) {
		if (el.scrollHeight > el.clientHeight + 100) {
			if (!best || el.scrollHeight > best.scrollHeight) best = el;
		}
	}
	if (best) best.scrollTop = best.scrollHeight;
}`

// nudgeScript scrolls up slightly; paired with a jump back to the bottom it
// dislodges lazy-loaded content that failed to trigger on the first pass.
const nudgeScript = `() => { window.scrollBy(0, -600); }`

// clickScript clicks the first element matching the selector, reporting
// whether anything was clicked.
func clickScript(sel string) string {
	return fmt.Sprintf(`() => {
	const el = document.querySelector(%q);
	if (el) { el.click(); return true; }
	return false;
}`, sel)
}

// OrderByVisualRows sorts anchors into natural reading order: anchors within
// one vertical band form a row ordered left to right, rows run top to
// bottom. Raw DOM order is unreliable on heavily virtualised pages.
func OrderByVisualRows(anchors []Anchor) []Anchor {
	out := make([]Anchor, len(anchors))
	copy(out, anchors)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Top < out[j].Top })

	// Assign rows, then order rows left to right.
	start := 0
	for start < len(out) {
		end := start + 1
		for end < len(out) && out[end].Top-out[start].Top < rowBand {
			end++
		}
		row := out[start:end]
		sort.SliceStable(row, func(i, j int) bool { return row[i].Left < row[j].Left })
		start = end
	}
	return out
}
