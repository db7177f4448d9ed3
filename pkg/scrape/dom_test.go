package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderByVisualRows(t *testing.T) {
	anchors := []Anchor{
		{URL: "c", Top: 120, Left: 500},
		{URL: "a", Top: 100, Left: 10},
		{URL: "d", Top: 900, Left: 10},
		{URL: "b", Top: 140, Left: 250},
	}

	ordered := OrderByVisualRows(anchors)

	urls := make([]string, len(ordered))
	for i, a := range ordered {
		urls[i] = a.URL
	}
	// a, b, c share one visual row (within the band) ordered left to right;
	// d is its own row below.
	assert.Equal(t, []string{"a", "b", "c", "d"}, urls)
}

func TestOrderByVisualRowsDoesNotMutateInput(t *testing.T) {
	anchors := []Anchor{
		{URL: "second", Top: 600},
		{URL: "first", Top: 0},
	}
	_ = OrderByVisualRows(anchors)
	assert.Equal(t, "second", anchors[0].URL)
}

func TestOrderByVisualRowsEmpty(t *testing.T) {
	assert.Empty(t, OrderByVisualRows(nil))
}
