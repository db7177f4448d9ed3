package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips tracking query",
			in:   "https://www.pinterest.com/pin/123/?utm_source=share&mt=login",
			want: "https://www.pinterest.com/pin/123",
		},
		{
			name: "keeps watch identity param",
			in:   "https://www.youtube.com/watch?v=dQw4w9WgXcQ&feature=share",
			want: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name: "keeps story identity params",
			in:   "https://www.facebook.com/story.php?story_fbid=987&id=42&ref=feed",
			want: "https://www.facebook.com/story.php?id=42&story_fbid=987",
		},
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://WWW.Example.COM/Path/",
			want: "https://www.example.com/Path",
		},
		{
			name: "drops fragment",
			in:   "https://a.com/x#section",
			want: "https://a.com/x",
		},
		{
			name: "unparseable degrades to string cleanup",
			in:   "not a url?x=1#y",
			want: "not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonicalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Canonicalize(got), "must be idempotent")
		})
	}
}

func TestKindFromExtension(t *testing.T) {
	tests := []struct {
		in         string
		wantKind   Kind
		conclusive bool
	}{
		{"https://a.com/clip.mp4", KindVideo, true},
		{"https://a.com/clip.MP4?q=1", KindVideo, true},
		{"https://a.com/pic.jpg", KindPhoto, true},
		{"https://a.com/pic.webp", KindPhoto, true},
		{"https://a.com/doc.pdf", KindUnknown, false},
		{"https://a.com/page", KindUnknown, false},
	}
	for _, tt := range tests {
		kind, ok := KindFromExtension(tt.in)
		assert.Equal(t, tt.wantKind, kind, tt.in)
		assert.Equal(t, tt.conclusive, ok, tt.in)
	}
}

func TestHasMediaExtension(t *testing.T) {
	assert.True(t, HasMediaExtension("https://a.com/x.jpg"))
	assert.True(t, HasMediaExtension("https://a.com/x.mp4"))
	assert.False(t, HasMediaExtension("https://a.com/x.pdf"))
	assert.False(t, HasMediaExtension("https://a.com/x"))
}

func TestHost(t *testing.T) {
	assert.Equal(t, "youtube.com", Host("https://www.YouTube.com/watch?v=1"))
	assert.Equal(t, "youtu.be", Host("https://youtu.be/abc"))
	assert.Equal(t, "", Host("://bad"))
}

func TestIsAbsolute(t *testing.T) {
	assert.True(t, IsAbsolute("https://a.com/x"))
	assert.True(t, IsAbsolute("http://a.com"))
	assert.False(t, IsAbsolute("/relative/path"))
	assert.False(t, IsAbsolute("javascript:void(0)"))
	assert.False(t, IsAbsolute("ftp://a.com/x"))
}
