package download

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	errs "mediagrab/pkg/errors"
)

// converterCandidates are checked in order when ffmpeg is not on PATH.
var converterCandidates = []string{
	"/usr/bin/ffmpeg",
	"/usr/local/bin/ffmpeg",
	"/opt/homebrew/bin/ffmpeg",
}

// FindConverter locates an ffmpeg binary. Empty string means none is
// available and format selection must pin the container instead.
func FindConverter() string {
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path
	}
	for _, candidate := range converterCandidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// ProbeCodec reports the video codec of the file using the ffprobe that
// ships next to the converter.
func ProbeCodec(ctx context.Context, converter, path string) (string, error) {
	probe := filepath.Join(filepath.Dir(converter), "ffprobe")
	if _, err := os.Stat(probe); err != nil {
		var lookErr error
		probe, lookErr = exec.LookPath("ffprobe")
		if lookErr != nil {
			return "", errs.New(errs.ErrorTypeConversion, "ffprobe not found")
		}
	}
	out, err := exec.CommandContext(ctx, probe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeConversion, "codec probe failed", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// mp4Codecs are the video codecs an mp4 container carries without
// re-encoding.
var mp4Codecs = map[string]bool{
	"h264": true,
	"hevc": true,
	"av1":  true,
}

// NeedsTranscode decides whether a downloaded video must go through the
// converter: always when the probed codec falls outside the mp4-safe set,
// and when an mp4 container was requested but not delivered. An empty codec
// means the probe failed and only the container rule applies.
func NeedsTranscode(codec, wantExt, haveExt string) bool {
	if codec != "" && !mp4Codecs[codec] {
		return true
	}
	return wantExt == "mp4" && haveExt != "mp4"
}

// TranscodeToMP4 remuxes or re-encodes src into an mp4 next to it and
// replaces src atomically. Streams already in mp4-compatible codecs are
// copied without re-encoding.
func TranscodeToMP4(ctx context.Context, converter, src string) (string, error) {
	dst := strings.TrimSuffix(src, filepath.Ext(src)) + ".mp4"
	tmp := dst + ".part"

	codec, _ := ProbeCodec(ctx, converter, src)
	args := []string{"-y", "-i", src}
	if mp4Codecs[codec] {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, "-c:v", "libx264", "-c:a", "aac")
	}
	args = append(args, "-f", "mp4", tmp)

	if out, err := exec.CommandContext(ctx, converter, args...).CombinedOutput(); err != nil {
		os.Remove(tmp)
		return "", errs.Wrap(errs.ErrorTypeConversion,
			"transcode failed: "+strings.TrimSpace(string(out)), err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		// Cross-device or locked targets need the remove-then-rename path.
		os.Remove(dst)
		if err := os.Rename(tmp, dst); err != nil {
			os.Remove(tmp)
			return "", errs.Wrap(errs.ErrorTypeConversion, "failed to place converted file", err)
		}
	}
	if dst != src {
		os.Remove(src)
	}
	return dst, nil
}
