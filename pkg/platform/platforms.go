package platform

import (
	"regexp"
	"strings"

	"mediagrab/pkg/media"
	"mediagrab/pkg/scrape"
)

// Platform tags, also used as credential keys.
const (
	TagYouTube   = "youtube"
	TagTikTok    = "tiktok"
	TagFacebook  = "facebook"
	TagInstagram = "instagram"
	TagPinterest = "pinterest"
	TagReelShort = "reelshort"
	TagDramaBox  = "dramabox"
	TagX         = "x"
)

var (
	youtubeItemRe  = regexp.MustCompile(`(?i)(youtube\.com/(watch\?|shorts/)|youtu\.be/[\w-]+)`)
	youtubeIndexRe = regexp.MustCompile(`(?i)youtube\.com/(playlist|channel/|c/|user/|@)`)

	tiktokItemRe  = regexp.MustCompile(`(?i)tiktok\.com/@[^/]+/(video|photo)/\d+`)
	tiktokPhotoRe = regexp.MustCompile(`(?i)tiktok\.com/@[^/]+/photo/\d+`)

	// Facebook publishes the same video under several URL shapes.
	facebookItemRe = regexp.MustCompile(`(?i)(facebook\.com/(watch/?\?|watch\?|[^/]+/videos/|reel/|story\.php)|fb\.watch/)`)

	instagramItemRe  = regexp.MustCompile(`(?i)instagram\.com/(p|reel|reels|tv)/[\w-]+`)
	instagramVideoRe = regexp.MustCompile(`(?i)instagram\.com/(reel|reels|tv)/`)

	pinterestPinRe = regexp.MustCompile(`(?i)pinterest\.[a-z.]+/pin/\d+`)

	reelshortItemRe = regexp.MustCompile(`(?i)reelshort\.com/episodes/`)
	dramaboxItemRe  = regexp.MustCompile(`(?i)dramaboxdb\.com/ep/[^/]+/[^/]+`)

	xItemRe = regexp.MustCompile(`(?i)(x|twitter)\.com/[^/]+/status/\d+`)
)

func hostContains(substrs ...string) func(string) bool {
	return func(url string) bool {
		lower := strings.ToLower(url)
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

func always(kind media.Kind) func(string, bool) media.Kind {
	return func(string, bool) media.Kind { return kind }
}

// handlers builds the full handler list in dispatch priority order.
func handlers(deps Deps) []Handler {
	return []Handler{
		&handler{
			tag:   TagYouTube,
			match: hostContains("youtube.com", "youtu.be"),
			deps:  deps,
			profile: scrape.Profile{
				Tag:             TagYouTube,
				StructuredFirst: true,
				ValidLink:       youtubeItemRe.MatchString,
				IsIndexPage:     youtubeIndexRe.MatchString,
				Classify:        always(media.KindVideo),
			},
		},
		&handler{
			tag:   TagTikTok,
			match: hostContains("tiktok.com"),
			deps:  deps,
			profile: scrape.Profile{
				Tag:             TagTikTok,
				StructuredFirst: true,
				ValidLink:       tiktokItemRe.MatchString,
				IsIndexPage: func(url string) bool {
					return strings.Contains(url, "tiktok.com/@") && !tiktokItemRe.MatchString(url)
				},
				Classify: func(href string, _ bool) media.Kind {
					if tiktokPhotoRe.MatchString(href) {
						return media.KindPhoto
					}
					return media.KindVideo
				},
			},
		},
		&handler{
			tag:   TagFacebook,
			match: hostContains("facebook.com", "fb.watch", "fb.com"),
			deps:  deps,
			profile: scrape.Profile{
				Tag:             TagFacebook,
				StructuredFirst: true,
				ValidLink:       facebookItemRe.MatchString,
				IsIndexPage: func(url string) bool {
					return !facebookItemRe.MatchString(url)
				},
				Classify: always(media.KindVideo),
			},
		},
		&handler{
			tag:   TagInstagram,
			match: hostContains("instagram.com"),
			deps:  deps,
			profile: scrape.Profile{
				Tag:             TagInstagram,
				StructuredFirst: true,
				ValidLink:       instagramItemRe.MatchString,
				IsIndexPage: func(url string) bool {
					return strings.Contains(url, "instagram.com") && !instagramItemRe.MatchString(url)
				},
				Classify: func(href string, _ bool) media.Kind {
					if instagramVideoRe.MatchString(href) {
						return media.KindVideo
					}
					return media.KindPhoto
				},
			},
		},
		&handler{
			tag:   TagPinterest,
			match: hostContains("pinterest."),
			deps:  deps,
			profile: scrape.Profile{
				Tag:       TagPinterest,
				ValidLink: pinterestPinRe.MatchString,
				IsIndexPage: func(url string) bool {
					return !pinterestPinRe.MatchString(url)
				},
				// Pin URLs carry no kind signal; the DOM hint decides.
				Classify: func(_ string, videoHint bool) media.Kind {
					if videoHint {
						return media.KindVideo
					}
					return media.KindPhoto
				},
			},
		},
		&handler{
			tag:   TagReelShort,
			match: hostContains("reelshort.com"),
			deps:  deps,
			profile: scrape.Profile{
				Tag:           TagReelShort,
				TitleSelector: "h1",
				ValidLink:     reelshortItemRe.MatchString,
				IsIndexPage: func(url string) bool {
					return !reelshortItemRe.MatchString(url)
				},
				Classify: always(media.KindVideo),
			},
		},
		&handler{
			tag:   TagDramaBox,
			match: hostContains("dramabox"),
			deps:  deps,
			profile: scrape.Profile{
				Tag:       TagDramaBox,
				ValidLink: dramaboxItemRe.MatchString,
				IsIndexPage: func(url string) bool {
					return !dramaboxItemRe.MatchString(url)
				},
				Classify:       always(media.KindVideo),
				Paginated:      true,
				ExpandSelector: `[class*="viewMore"]`,
				NextSelector:   `li.next, button.next, a.next, [aria-label="Next Page"], [class*="pagination-next"]`,
			},
		},
		&handler{
			tag:   TagX,
			match: hostContains("twitter.com", "//x.com", ".x.com", "www.x.com"),
			deps:  deps,
			profile: scrape.Profile{
				Tag:             TagX,
				StructuredFirst: true,
				ValidLink:       xItemRe.MatchString,
				IsIndexPage: func(url string) bool {
					return !xItemRe.MatchString(url)
				},
				Classify: always(media.KindVideo),
			},
		},
	}
}
