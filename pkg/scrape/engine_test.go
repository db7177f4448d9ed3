package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagrab/pkg/auth"
	"mediagrab/pkg/config"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/media"
)

// fakeDriver serves anchor batches per collection pass: pass i sees the
// union of batches [0..i]. The last batch repeats once exhausted.
type fakeDriver struct {
	batches   [][]Anchor
	title     string
	pass      int
	navigated []string
	keys      []Key
	closed    bool
	clickHits int
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.navigated = append(d.navigated, url)
	return nil
}

func (d *fakeDriver) Eval(ctx context.Context, js string, out interface{}) error {
	switch v := out.(type) {
	case *[]Anchor:
		upto := d.pass
		if upto >= len(d.batches) {
			upto = len(d.batches) - 1
		}
		var all []Anchor
		for i := 0; i <= upto; i++ {
			all = append(all, d.batches[i]...)
		}
		*v = all
		d.pass++
	case *string:
		*v = d.title
	case *bool:
		if strings.Contains(js, "click") {
			d.clickHits++
		}
		*v = false
	}
	return nil
}

func (d *fakeDriver) PressKey(ctx context.Context, key Key) error {
	d.keys = append(d.keys, key)
	return nil
}

func (d *fakeDriver) Listen(accept func(url, resourceType string) bool) func(ctx context.Context, timeout time.Duration) (string, error) {
	return func(ctx context.Context, timeout time.Duration) (string, error) {
		return "", errors.New("no responses")
	}
}

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

type fakeBrowser struct {
	drv      *fakeDriver
	err      error
	opens    int
	lastOpts SessionOptions
}

func (b *fakeBrowser) Open(ctx context.Context, opts SessionOptions) (Driver, error) {
	b.opens++
	b.lastOpts = opts
	if b.err != nil {
		return nil, b.err
	}
	return b.drv, nil
}

type fakeFlat struct {
	items []media.Item
	err   error
	calls int
}

func (f *fakeFlat) Flat(ctx context.Context, url string, limit int, cred *auth.Credential) ([]media.Item, error) {
	f.calls++
	return f.items, f.err
}

func testConfig() config.Config {
	cfg := config.DefaultConfig().Snapshot()
	cfg.Scrape.ScrollSettle = 0
	cfg.Scrape.MaxIterations = 30
	cfg.Scrape.StagnationFar = 3
	cfg.Scrape.StagnationNear = 2
	cfg.Scrape.NudgeAfter = 1
	return cfg
}

// pinProfile behaves like an image board: pin links are items, everything
// else is an index page, kind comes from the DOM hint.
func pinProfile() Profile {
	return Profile{
		Tag: "pins",
		ValidLink: func(href string) bool {
			return strings.Contains(href, "/pin/")
		},
		IsIndexPage: func(url string) bool {
			return !strings.Contains(url, "/pin/")
		},
		Classify: func(_ string, videoHint bool) media.Kind {
			if videoHint {
				return media.KindVideo
			}
			return media.KindPhoto
		},
	}
}

func TestExtractBrowserLaunchFailure(t *testing.T) {
	b := &fakeBrowser{err: errors.New("chrome exploded")}
	e := NewEngine(b, nil, nil, logger.NewTestLogger())

	items := e.Extract(context.Background(), "https://pins.example/board/x", pinProfile(), testConfig(), nil, nil)

	require.Len(t, items, 1)
	assert.Error(t, items[0].Err)
	assert.Equal(t, "pins", items[0].Platform)
}

func TestExtractCollectsAndDeduplicates(t *testing.T) {
	drv := &fakeDriver{
		title: "Board",
		batches: [][]Anchor{
			{
				{URL: "https://pins.example/pin/1", Text: "first", Top: 10, Left: 10},
				{URL: "https://pins.example/pin/2", Text: "second", Top: 10, Left: 300, VideoHint: true},
			},
			{
				{URL: "https://pins.example/pin/1", Text: "first again", Top: 500, Left: 10},
				{URL: "https://pins.example/pin/3", Text: "third", Top: 500, Left: 300},
			},
		},
	}
	b := &fakeBrowser{drv: drv}
	e := NewEngine(b, nil, nil, logger.NewTestLogger())

	var streamed []media.Item
	items := e.Extract(context.Background(), "https://pins.example/board/x", pinProfile(), testConfig(), nil,
		func(it media.Item) { streamed = append(streamed, it) })

	require.Len(t, items, 3)
	assert.Equal(t, items, streamed)
	assert.Equal(t, media.KindPhoto, items[0].Kind)
	assert.Equal(t, media.KindVideo, items[1].Kind)
	assert.Equal(t, "https://pins.example/board/x", items[0].OriginURL)
	assert.True(t, drv.closed)
}

func TestExtractFiltersDisabledKinds(t *testing.T) {
	drv := &fakeDriver{
		batches: [][]Anchor{{
			{URL: "https://pins.example/pin/1", Text: "photo"},
			{URL: "https://pins.example/pin/2", Text: "video", VideoHint: true},
			{URL: "https://pins.example/pin/3", Text: "photo two"},
		}},
	}
	cfg := testConfig()
	cfg.Video.Enabled = false

	e := NewEngine(&fakeBrowser{drv: drv}, nil, nil, logger.NewTestLogger())
	items := e.Extract(context.Background(), "https://pins.example/board/x", pinProfile(), cfg, nil, nil)

	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, media.KindPhoto, it.Kind)
	}
}

func TestExtractTopNStopsEarly(t *testing.T) {
	// Endless stream of fresh pins; the per-kind cap must stop the loop.
	var batches [][]Anchor
	for i := 0; i < 40; i++ {
		batches = append(batches, []Anchor{
			{URL: "https://pins.example/pin/" + string(rune('a'+i)), Text: "pin"},
		})
	}
	cfg := testConfig()
	cfg.Video.Enabled = false
	cfg.Photo.Top = true
	cfg.Photo.Count = 3

	drv := &fakeDriver{batches: batches}
	e := NewEngine(&fakeBrowser{drv: drv}, nil, nil, logger.NewTestLogger())
	items := e.Extract(context.Background(), "https://pins.example/board/x", pinProfile(), cfg, nil, nil)

	require.Len(t, items, 3)
	assert.Less(t, drv.pass, 10, "should stop well before exhausting the stream")
}

func TestExtractStagnationTerminates(t *testing.T) {
	// One batch forever: no new raw hrefs after the first pass.
	drv := &fakeDriver{
		batches: [][]Anchor{{
			{URL: "https://pins.example/pin/1", Text: "only"},
		}},
	}
	e := NewEngine(&fakeBrowser{drv: drv}, nil, nil, logger.NewTestLogger())
	items := e.Extract(context.Background(), "https://pins.example/board/x", pinProfile(), testConfig(), nil, nil)

	require.Len(t, items, 1)
	assert.LessOrEqual(t, drv.pass, 6, "stagnation should end the loop quickly")
}

func TestExtractStagnationNudgeScrollsHome(t *testing.T) {
	// One batch forever: after NudgeAfter stale passes the engine jumps back
	// to the top of the page before scrolling down again.
	drv := &fakeDriver{
		batches: [][]Anchor{{
			{URL: "https://pins.example/pin/1", Text: "only"},
		}},
	}
	e := NewEngine(&fakeBrowser{drv: drv}, nil, nil, logger.NewTestLogger())
	e.Extract(context.Background(), "https://pins.example/board/x", pinProfile(), testConfig(), nil, nil)

	assert.Contains(t, drv.keys, KeyHome)
	assert.Contains(t, drv.keys, KeyEnd)
}

func TestExtractSessionCarriesNavigateTimeout(t *testing.T) {
	b := &fakeBrowser{drv: &fakeDriver{batches: [][]Anchor{{}}}}
	cfg := testConfig()
	cfg.Scrape.NavigateTimeout = 42 * time.Second

	e := NewEngine(b, nil, nil, logger.NewTestLogger())
	e.Extract(context.Background(), "https://pins.example/board/x", pinProfile(), cfg, nil, nil)

	assert.Equal(t, 1, b.opens)
	assert.Equal(t, 42*time.Second, b.lastOpts.NavigateTimeout)
}

func TestExtractChurnHitsHardCap(t *testing.T) {
	// Every pass yields fresh raw links that never pass the filter, so the
	// stagnation counter never fires; only the hard cap ends the loop.
	var batches [][]Anchor
	for i := 0; i < 100; i++ {
		batches = append(batches, []Anchor{
			{URL: "https://ads.example/junk/" + string(rune('a'+i%26)) + string(rune('a'+i/26))},
		})
	}
	cfg := testConfig()
	cfg.Scrape.MaxIterations = 8

	drv := &fakeDriver{batches: batches}
	e := NewEngine(&fakeBrowser{drv: drv}, nil, nil, logger.NewTestLogger())
	items := e.Extract(context.Background(), "https://pins.example/board/x", pinProfile(), cfg, nil, nil)

	assert.Empty(t, items)
	assert.LessOrEqual(t, drv.pass, 8)
}

func TestExtractTargetItselfIsItem(t *testing.T) {
	drv := &fakeDriver{title: "A single pin", batches: [][]Anchor{{}}}
	e := NewEngine(&fakeBrowser{drv: drv}, nil, nil, logger.NewTestLogger())

	items := e.Extract(context.Background(), "https://pins.example/pin/42", pinProfile(), testConfig(), nil, nil)

	require.NotEmpty(t, items)
	assert.Equal(t, "https://pins.example/pin/42", items[0].URL)
	assert.Equal(t, "A single pin", items[0].Title)
}

func TestExtractStructuredTierWins(t *testing.T) {
	flat := &fakeFlat{items: []media.Item{
		{URL: "https://tube.example/watch?v=a", Title: "one", Kind: media.KindVideo},
		{URL: "https://tube.example/watch?v=b", Title: "two", Kind: media.KindVideo},
	}}
	b := &fakeBrowser{err: errors.New("must not be opened")}
	e := NewEngine(b, flat, nil, logger.NewTestLogger())

	p := Profile{Tag: "tube", StructuredFirst: true, Classify: func(string, bool) media.Kind { return media.KindVideo }}
	items := e.Extract(context.Background(), "https://tube.example/playlist?list=1", p, testConfig(), nil, nil)

	require.Len(t, items, 2)
	assert.Equal(t, 1, flat.calls)
	assert.Zero(t, b.opens)
	assert.Equal(t, "tube", items[0].Platform)
}

func TestExtractStructuredFailureFallsBack(t *testing.T) {
	flat := &fakeFlat{err: errors.New("extractor broke")}
	drv := &fakeDriver{batches: [][]Anchor{{
		{URL: "https://pins.example/pin/1", Text: "rescued"},
	}}}
	e := NewEngine(&fakeBrowser{drv: drv}, flat, nil, logger.NewTestLogger())

	p := pinProfile()
	p.StructuredFirst = true
	items := e.Extract(context.Background(), "https://pins.example/board/x", p, testConfig(), nil, nil)

	require.Len(t, items, 1)
	assert.Equal(t, 1, flat.calls)
	assert.Equal(t, "rescued", items[0].Title)
}
