package scrape

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCookieFile(t *testing.T) {
	content := `# Netscape HTTP Cookie File
# This is a generated file! Do not edit.

.pinterest.com	TRUE	/	TRUE	1767225600	_pinterest_sess	abc123
www.pinterest.com	FALSE	/	FALSE	0	csrftoken	tok456
#HttpOnly_.pinterest.com	TRUE	/	TRUE	1767225600	_auth	1

malformed line without tabs
.pinterest.com	TRUE	/
`
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cookies, err := ParseCookieFile(path)
	require.NoError(t, err)
	require.Len(t, cookies, 3)

	assert.Equal(t, "_pinterest_sess", cookies[0].Name)
	assert.Equal(t, "abc123", cookies[0].Value)
	assert.Equal(t, ".pinterest.com", cookies[0].Domain)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, int64(1767225600), cookies[0].Expires)

	assert.Equal(t, "csrftoken", cookies[1].Name)
	assert.False(t, cookies[1].Secure)

	// The #HttpOnly_ prefix marks an http-only cookie, not a comment.
	assert.Equal(t, "_auth", cookies[2].Name)
	assert.True(t, cookies[2].HTTPOnly)
	assert.Equal(t, ".pinterest.com", cookies[2].Domain)
}

func TestParseCookieFileMissing(t *testing.T) {
	_, err := ParseCookieFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
