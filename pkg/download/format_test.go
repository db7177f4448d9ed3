package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagrab/pkg/media"
)

func TestBuildFormat(t *testing.T) {
	tests := []struct {
		name       string
		resolution string
		extension  string
		converter  bool
		want       string
	}{
		{
			name: "unconstrained with converter",
			resolution: "Best Available", extension: "mp4", converter: true,
			want: "bestvideo+bestaudio/best",
		},
		{
			name: "height cap with converter",
			resolution: "720p", extension: "mp4", converter: true,
			want: "bestvideo[height<=720]+bestaudio/best[height<=720]/best",
		},
		{
			name: "mp4 pinned without converter",
			resolution: "best", extension: "mp4", converter: false,
			want: "bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestaudio/best[ext=mp4]/best",
		},
		{
			name: "height cap and pinned container",
			resolution: "1080", extension: "mp4", converter: false,
			want: "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/bestaudio/best[height<=1080][ext=mp4]/best",
		},
		{
			name: "no extension preference",
			resolution: "", extension: "", converter: false,
			want: "bestvideo+bestaudio/best",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFormat(tt.resolution, tt.extension, tt.converter))
		})
	}
}

func TestOutputTemplate(t *testing.T) {
	assert.Equal(t, filepath.Join("/dl", "%(title)s.%(ext)s"),
		OutputTemplate("/dl", NamingOriginal, 1, ""))
	assert.Equal(t, filepath.Join("/dl", "007.%(ext)s"),
		OutputTemplate("/dl", NamingNumbered, 7, "ignored"))
	assert.Equal(t, filepath.Join("/dl", "My Great Clip.%(ext)s"),
		OutputTemplate("/dl", NamingCaption, 1, "My Great Clip"))
	// Empty caption degrades to the title template.
	assert.Equal(t, filepath.Join("/dl", "%(title)s.%(ext)s"),
		OutputTemplate("/dl", NamingCaption, 1, "   "))
}

func TestResolveTemplate(t *testing.T) {
	assert.Equal(t, filepath.Join("/dl", "007.mp4"),
		ResolveTemplate(filepath.Join("/dl", "007.%(ext)s"), "ignored", 7))
	assert.Equal(t, filepath.Join("/dl", "My Clip.mp4"),
		ResolveTemplate(filepath.Join("/dl", "%(title)s.%(ext)s"), "My Clip", 1))
	// No usable title leaves no placeholder behind either.
	assert.Equal(t, filepath.Join("/dl", "media_003.mp4"),
		ResolveTemplate(filepath.Join("/dl", "%(title)s.%(ext)s"), "   ", 3))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeFilename(`a/b\c`))
	assert.Equal(t, "watch this", SanitizeFilename("  watch   this\n"))
	assert.Equal(t, "", SanitizeFilename("///"))

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	assert.LessOrEqual(t, len(SanitizeFilename(string(long))), maxFilenameLen)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "1.5 MB", FormatBytes(1536*1024))
	assert.Equal(t, "2.0 GB", FormatBytes(2<<30))
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")

	// Nothing there yet: path is free.
	assert.Equal(t, path, UniquePath(path))

	// A zero-byte leftover is replaceable.
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.Equal(t, path, UniquePath(path))

	// A real file forces a suffixed name.
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	next := UniquePath(path)
	assert.Equal(t, filepath.Join(dir, "clip (1).mp4"), next)

	require.NoError(t, os.WriteFile(next, []byte("data"), 0o644))
	assert.Equal(t, filepath.Join(dir, "clip (2).mp4"), UniquePath(path))
}

func TestExtensionFromURL(t *testing.T) {
	assert.Equal(t, "mp4", ExtensionFromURL("https://cdn.example/v/clip.mp4?sig=abc", "bin"))
	assert.Equal(t, "m3u8", ExtensionFromURL("https://cdn.example/master.m3u8", "mp4"))
	assert.Equal(t, "jpg", ExtensionFromURL("https://cdn.example/stream/chunk", "jpg"))
}

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "clip.mp4")

	item := media.Item{
		URL:       "https://www.tiktok.com/@user/video/123",
		OriginURL: "https://www.tiktok.com/@user",
		Title:     "clip",
		Platform:  "tiktok",
		Kind:      media.KindVideo,
	}
	require.NoError(t, WriteSidecar(mediaPath, item))

	sc, err := ReadSidecar(mediaPath)
	require.NoError(t, err)
	assert.Equal(t, item.URL, sc.URL)
	assert.Equal(t, item.Title, sc.Title)
	assert.Equal(t, string(item.Kind), sc.Kind)
	assert.False(t, sc.DownloadedAt.IsZero())
}
