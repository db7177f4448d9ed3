// Package download turns extracted media items into files on disk. The
// primary path shells out to the external downloader; a resolver-backed
// fallback and a plain HTTP fetch cover pages the downloader cannot handle.
package download

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BuildFormat assembles the downloader format selector from the configured
// resolution cap and target extension. Without a converter on the machine
// the selector pins the container so no transcode is needed afterwards.
func BuildFormat(resolution, extension string, haveConverter bool) string {
	height := strings.TrimSuffix(strings.ToLower(resolution), "p")
	capped := height != "" && height != "0" && isDigits(height)

	if haveConverter || extension == "" {
		if capped {
			return fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]/best", height, height)
		}
		return "bestvideo+bestaudio/best"
	}

	ext := strings.TrimPrefix(strings.ToLower(extension), ".")
	audio := "bestaudio"
	if ext == "mp4" {
		audio = "bestaudio[ext=m4a]/bestaudio"
	}
	if capped {
		return fmt.Sprintf("bestvideo[height<=%s][ext=%s]+%s/best[height<=%s][ext=%s]/best",
			height, ext, audio, height, ext)
	}
	return fmt.Sprintf("bestvideo[ext=%s]+%s/best[ext=%s]/best", ext, audio, ext)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// Naming schemes for output files.
const (
	NamingOriginal = "original"
	NamingNumbered = "numbered"
	NamingCaption  = "caption"
)

// OutputTemplate builds the downloader output template for dir under the
// given naming scheme. index and caption feed the numbered and caption
// schemes respectively.
func OutputTemplate(dir, naming string, index int, caption string) string {
	switch naming {
	case NamingNumbered:
		return filepath.Join(dir, fmt.Sprintf("%03d.%%(ext)s", index))
	case NamingCaption:
		if name := SanitizeFilename(caption); name != "" {
			return filepath.Join(dir, name+".%(ext)s")
		}
		return filepath.Join(dir, "%(title)s.%(ext)s")
	default:
		return filepath.Join(dir, "%(title)s.%(ext)s")
	}
}

// ResolveTemplate turns an output template into a concrete path when the
// downloader reported no file of its own, assuming an mp4 container. title
// substitutes the title placeholder; index backstops an empty title.
func ResolveTemplate(template, title string, index int) string {
	path := strings.ReplaceAll(template, "%(ext)s", "mp4")
	if !strings.Contains(path, "%(title)s") {
		return path
	}
	name := SanitizeFilename(title)
	if name == "" {
		name = fmt.Sprintf("media_%03d", index)
	}
	return strings.ReplaceAll(path, "%(title)s", name)
}

// LocalFilename is the OutputTemplate analogue for fallback downloads where
// the extension is already known.
func LocalFilename(dir, naming string, index int, title, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	switch naming {
	case NamingNumbered:
		return filepath.Join(dir, fmt.Sprintf("%03d.%s", index, ext))
	default:
		name := SanitizeFilename(title)
		if name == "" {
			name = fmt.Sprintf("media_%03d", index)
		}
		return filepath.Join(dir, name+"."+ext)
	}
}

// FormatBytes renders a byte count for status lines ("1.4 MB").
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

const maxFilenameLen = 120

// SanitizeFilename strips characters that are unsafe in file names and
// truncates overly long captions.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\n', '\r', '\t':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	clean := strings.Join(strings.Fields(b.String()), " ")
	if len(clean) > maxFilenameLen {
		clean = strings.TrimSpace(clean[:maxFilenameLen])
	}
	return clean
}
