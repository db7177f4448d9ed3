package download

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagrab/pkg/config"
	"mediagrab/pkg/logger"
	"mediagrab/pkg/ratelimit"
)

func TestNeedsTranscode(t *testing.T) {
	tests := []struct {
		name  string
		codec string
		want  string
		have  string
		out   bool
	}{
		{"unsupported codec in foreign container", "vp9", "best", "webm", true},
		{"unsupported codec already in mp4", "vp9", "best", "mp4", true},
		{"supported codec, container not requested", "h264", "best", "webm", false},
		{"supported codec in mp4", "h264", "mp4", "mp4", false},
		{"supported codec but mp4 requested", "av1", "mp4", "webm", true},
		{"probe failed, mp4 requested", "", "mp4", "webm", true},
		{"probe failed, no container preference", "", "best", "webm", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, NeedsTranscode(tt.codec, tt.want, tt.have))
		})
	}
}

// stubTool drops a shell script posing as ffmpeg or ffprobe into dir.
func stubTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestMaybeConvertTranscodesUnsupportedCodec(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs")
	}
	dir := t.TempDir()
	stubTool(t, dir, "ffprobe", "echo vp9")
	ffmpeg := stubTool(t, dir, "ffmpeg", "for a in \"$@\"; do out=$a; done\n: > \"$out\"")
	src := filepath.Join(dir, "clip.webm")
	require.NoError(t, os.WriteFile(src, []byte("frames"), 0o644))

	d := &Downloader{converter: ffmpeg, limiter: ratelimit.Unlimited{}, log: logger.NewTestLogger()}
	req := Request{Cfg: config.DefaultConfig().Snapshot()}

	out := d.maybeConvert(context.Background(), req, src)

	assert.Equal(t, filepath.Join(dir, "clip.mp4"), out)
	assert.FileExists(t, out)
	assert.NoFileExists(t, src)
}

func TestMaybeConvertLeavesPlayableFileAlone(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs")
	}
	dir := t.TempDir()
	stubTool(t, dir, "ffprobe", "echo h264")
	ffmpeg := stubTool(t, dir, "ffmpeg", "exit 1")
	src := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(src, []byte("frames"), 0o644))

	d := &Downloader{converter: ffmpeg, limiter: ratelimit.Unlimited{}, log: logger.NewTestLogger()}
	out := d.maybeConvert(context.Background(), Request{Cfg: config.DefaultConfig().Snapshot()}, src)

	assert.Equal(t, src, out)
	assert.FileExists(t, src)
}

func TestMaybeConvertNoConverter(t *testing.T) {
	d := &Downloader{log: logger.NewTestLogger()}
	out := d.maybeConvert(context.Background(), Request{Cfg: config.DefaultConfig().Snapshot()}, "/dl/clip.webm")
	assert.Equal(t, "/dl/clip.webm", out)
}
