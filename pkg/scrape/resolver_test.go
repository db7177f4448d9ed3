package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMediaResponse(t *testing.T) {
	tests := []struct {
		url          string
		resourceType string
		want         bool
	}{
		{"https://cdn.example/stream/master.m3u8", "XHR", true},
		{"https://cdn.example/clip.mp4?token=1", "Fetch", true},
		{"https://cdn.example/video/chunk", "Media", true},
		{"https://cdn.example/app.js", "Script", false},
		// Promo placeholder must never win, whatever the resource type.
		{"https://v-mps.example.com/activity/mp4/10001_0100.mp4", "Media", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isMediaResponse(tt.url, tt.resourceType), tt.url)
	}
}

func TestFindMediaURL(t *testing.T) {
	data := map[string]interface{}{
		"props": map[string]interface{}{
			"pageProps": map[string]interface{}{
				"episode": map[string]interface{}{
					"cover":  "https://cdn.example/cover.webp",
					"videos": []interface{}{
						map[string]interface{}{
							"quality": 720.0,
							"url":     "https://cdn.example/ep1/720.m3u8",
						},
					},
				},
			},
		},
	}
	assert.Equal(t, "https://cdn.example/ep1/720.m3u8", findMediaURL(data))
}

func TestFindMediaURLSkipsPlaceholder(t *testing.T) {
	data := []interface{}{
		"https://v-mps.example.com/activity/mp4/10001_0100.mp4",
		map[string]interface{}{"src": "https://cdn.example/real.mp4"},
	}
	assert.Equal(t, "https://cdn.example/real.mp4", findMediaURL(data))
}

func TestFindMediaURLNothing(t *testing.T) {
	data := map[string]interface{}{
		"title": "episode one",
		"id":    42.0,
		"tags":  []interface{}{"drama", "romance"},
	}
	assert.Equal(t, "", findMediaURL(data))
}
