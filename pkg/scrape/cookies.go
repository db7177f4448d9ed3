package scrape

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseCookieFile reads a Netscape-format cookie jar (tab-separated: domain,
// include-subdomains flag, path, secure flag, expiry epoch, name, value).
// Comment lines and malformed lines are skipped rather than failing the
// whole file.
func ParseCookieFile(path string) ([]Cookie, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer f.Close()

	var cookies []Cookie
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// The #HttpOnly_ prefix marks an http-only cookie, not a comment.
		httpOnly := false
		if strings.HasPrefix(line, "#HttpOnly_") {
			httpOnly = true
			line = strings.TrimPrefix(line, "#HttpOnly_")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 7 {
			continue
		}

		expires, err := strconv.ParseInt(parts[4], 10, 64)
		if err != nil {
			expires = 0
		}

		cookies = append(cookies, Cookie{
			Domain:   parts[0],
			Path:     parts[2],
			Secure:   strings.EqualFold(parts[3], "TRUE"),
			Expires:  expires,
			Name:     parts[5],
			Value:    parts[6],
			HTTPOnly: httpOnly,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	return cookies, nil
}
