package storage

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npezzotti/go-dating-chat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DiskStore {
	u, err := url.Parse("http://localhost:8000")
	require.NoError(t, err)

	store, err := NewDiskStore(filepath.Join(t.TempDir(), "uploads"), u, testutil.TestLogger(t))
	require.NoError(t, err)
	return store
}

func Test_sanitizeName(t *testing.T) {
	tcases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple", input: "cat.png", expected: "cat"},
		{name: "spaces", input: "my holiday photo.jpg", expected: "my_holiday_photo"},
		{name: "path traversal", input: "../../etc/passwd.pdf", expected: "passwd"},
		{name: "windows path", input: `C:\Users\bob\cv.pdf`, expected: "cv"},
		{name: "unicode dropped", input: "été.gif", expected: "t"},
		{name: "nothing left", input: "???.png", expected: "file"},
		{name: "empty", input: "", expected: "file"},
		{name: "long name", input: strings.Repeat("a", 100) + ".png", expected: strings.Repeat("a", 64)},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, sanitizeName(tc.input))
		})
	}
}

func TestDiskStore_Save(t *testing.T) {
	tcases := []struct {
		name        string
		contentType string
		ext         string
	}{
		{name: "jpeg", contentType: "image/jpeg", ext: ".jpg"},
		{name: "jpg alias", contentType: "image/jpg", ext: ".jpg"},
		{name: "png", contentType: "image/png", ext: ".png"},
		{name: "gif", contentType: "image/gif", ext: ".gif"},
		{name: "mp4", contentType: "video/mp4", ext: ".mp4"},
		{name: "webm", contentType: "video/webm", ext: ".webm"},
		{name: "pdf", contentType: "application/pdf", ext: ".pdf"},
	}

	store := newTestStore(t)
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			data := []byte("contents of " + tc.name)
			f, err := store.Save("my file.bin", tc.contentType, bytes.NewReader(data))
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(f.Name, "my_file_"), "expected sanitized prefix, got %q", f.Name)
			assert.Equal(t, tc.ext, filepath.Ext(f.Name))
			assert.Equal(t, "http://localhost:8000/uploads/"+f.Name, f.URL)
			assert.Equal(t, tc.contentType, f.ContentType)
			assert.Equal(t, int64(len(data)), f.Size)

			stored, err := os.ReadFile(filepath.Join(store.Dir(), f.Name))
			require.NoError(t, err)
			assert.Equal(t, data, stored)
		})
	}
}

func TestDiskStore_SaveUniqueNames(t *testing.T) {
	store := newTestStore(t)

	a, err := store.Save("cat.png", "image/png", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.Save("cat.png", "image/png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Name, b.Name, "expected distinct stored names for the same upload name")
}

func TestDiskStore_SaveUnsupportedType(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("notes.txt", "text/plain", strings.NewReader("hello"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "expected nothing written for a rejected type")
}

func TestDiskStore_SaveTooLarge(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save("big.pdf", "application/pdf", bytes.NewReader(make([]byte, MaxFileSize+1)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "expected the partial file to be removed")
}

func TestDiskStore_PublicURLWithPath(t *testing.T) {
	u, err := url.Parse("https://chat.example.com/app/")
	require.NoError(t, err)

	store, err := NewDiskStore(t.TempDir(), u, testutil.TestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com/app/uploads/x.png", store.publicURL("x.png"))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("image/png"))
	assert.False(t, Supported("image/svg+xml"))
	assert.False(t, Supported(""))
}
