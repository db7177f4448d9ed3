package scrape

import (
	"mediagrab/pkg/config"
	"mediagrab/pkg/media"
)

// session is the transient state of one extraction run. It is owned
// exclusively by that run and discarded afterwards.
type session struct {
	target       string
	pageTitle    string
	visitedPages []string

	// seenRaw is the pre-filter href set; it only feeds the stagnation
	// signal.
	seenRaw map[string]struct{}
	// accepted is the post-filter canonical URL set, the dedup authority.
	accepted map[string]struct{}

	results []media.Item
	counts  map[media.Kind]int

	cfg config.Config
}

func newSession(target string, cfg config.Config) *session {
	return &session{
		target:   target,
		seenRaw:  make(map[string]struct{}),
		accepted: make(map[string]struct{}),
		counts:   make(map[media.Kind]int),
		cfg:      cfg,
	}
}

func (s *session) visit(pageURL string) {
	s.visitedPages = append(s.visitedPages, pageURL)
}

// markRaw records a raw href and reports whether it was new this scrape.
func (s *session) markRaw(href string) bool {
	if _, ok := s.seenRaw[href]; ok {
		return false
	}
	s.seenRaw[href] = struct{}{}
	return true
}

// wanted reports whether the active settings request this kind and its
// per-kind cap is not yet reached.
func (s *session) wanted(kind media.Kind) bool {
	var kc config.KindConfig
	switch kind {
	case media.KindVideo:
		kc = s.cfg.Video
	case media.KindPhoto:
		kc = s.cfg.Photo
	default:
		return false
	}
	if !kc.Enabled {
		return false
	}
	if limit := kc.Limit(); limit > 0 && s.counts[kind] >= limit {
		return false
	}
	return true
}

// accept inserts an item if its canonical URL is unseen. Callers must have
// established the kind is wanted.
func (s *session) accept(item media.Item) bool {
	if _, ok := s.accepted[item.URL]; ok {
		return false
	}
	s.accepted[item.URL] = struct{}{}
	s.results = append(s.results, item)
	s.counts[item.Kind]++
	return true
}

// satisfied reports whether every requested kind has reached its cap, or the
// overall entry cap is hit, so the scroll loop can stop early.
func (s *session) satisfied() bool {
	if len(s.results) >= s.cfg.Scrape.MaxEntries {
		return true
	}
	capped := false
	for _, kind := range []media.Kind{media.KindVideo, media.KindPhoto} {
		var kc config.KindConfig
		if kind == media.KindVideo {
			kc = s.cfg.Video
		} else {
			kc = s.cfg.Photo
		}
		if !kc.Enabled {
			continue
		}
		limit := kc.Limit()
		if limit == 0 || s.counts[kind] < limit {
			return false
		}
		capped = true
	}
	return capped
}

// stagnationThreshold returns how many consecutive stagnant iterations to
// tolerate: more while far from the requested count, fewer near it, since
// near-target stagnation is more likely genuine exhaustion.
func (s *session) stagnationThreshold() int {
	if float64(len(s.results)) < 0.8*float64(s.cfg.Scrape.MaxEntries) {
		return s.cfg.Scrape.StagnationFar
	}
	return s.cfg.Scrape.StagnationNear
}
