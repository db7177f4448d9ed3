package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	errs "mediagrab/pkg/errors"
)

// UniquePath returns path, or a " (n)"-suffixed variant when a non-empty
// file already occupies it. Zero-byte leftovers are treated as replaceable.
func UniquePath(path string) string {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		info, err := os.Stat(candidate)
		if err != nil || info.Size() == 0 {
			return candidate
		}
	}
}

// httpFetcher downloads a direct media URL over plain HTTP with a browser
// user agent, writing through a .part file so partial downloads never
// masquerade as finished ones.
type httpFetcher struct {
	client    *http.Client
	userAgent string
}

func newHTTPFetcher(userAgent string, timeout time.Duration) *httpFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &httpFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch downloads url to dest. The referer makes hotlink-protected CDNs
// serve the file.
func (f *httpFetcher) Fetch(ctx context.Context, url, referer, dest string, progress func(percent int)) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeDownload, "invalid media URL", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeNetwork, "media request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e := errs.New(errs.ErrorTypeDownload, fmt.Sprintf("server returned %d", resp.StatusCode))
		if errs.IsRetryableStatusCode(resp.StatusCode) {
			return "", e
		}
		return "", errs.Wrap(errs.ErrorTypeUnknown, "permanent download failure", e)
	}

	dest = UniquePath(dest)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errs.Wrap(errs.ErrorTypeDownload, "failed to create output directory", err)
	}

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeDownload, "failed to create output file", err)
	}

	var written int64
	total := resp.ContentLength
	buf := make([]byte, 128*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				out.Close()
				os.Remove(tmp)
				return "", errs.Wrap(errs.ErrorTypeDownload, "write failed", writeErr)
			}
			written += int64(n)
			if progress != nil && total > 0 {
				progress(int(written * 100 / total))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(tmp)
			return "", errs.Wrap(errs.ErrorTypeNetwork, "read failed", readErr)
		}
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", errs.Wrap(errs.ErrorTypeDownload, "close failed", err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		// A concurrent download may have claimed the name; pick a fresh one
		// and retry once.
		dest = UniquePath(dest)
		if err := os.Rename(tmp, dest); err != nil {
			os.Remove(tmp)
			return "", errs.Wrap(errs.ErrorTypeDownload, "failed to finalize download", err)
		}
	}
	if progress != nil {
		progress(100)
	}
	return dest, nil
}

// ExtensionFromURL guesses a file extension from a direct media URL.
func ExtensionFromURL(url, fallback string) string {
	path := url
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" && len(ext) <= 5 {
		return strings.ToLower(ext)
	}
	return fallback
}
