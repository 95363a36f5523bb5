package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "no file open", NoFileOpen.String())
	assert.Equal(t, "file open", FileOpenClean.String())
	assert.Equal(t, "operation in flight", OperationInFlight.String())
	assert.Equal(t, "operation failed", OperationFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestSessionLabel(t *testing.T) {
	assert.Equal(t, "No file selected", Session{}.Label())
	assert.False(t, Session{}.HasFile())

	s := Session{Path: "/tmp/photo.jpg"}
	assert.True(t, s.HasFile())
	assert.Equal(t, "/tmp/photo.jpg", s.Label())

	s.Type = "image/jpeg"
	assert.Equal(t, "/tmp/photo.jpg (image/jpeg)", s.Label())
}

func TestDetectType(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "pixel.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0644))

	assert.Equal(t, "image/png", detectType(png))
	assert.Equal(t, "", detectType(filepath.Join(dir, "missing.png")))
}

func TestSuggestCopyName(t *testing.T) {
	assert.Equal(t, "", SuggestCopyName(""))
	assert.Equal(t, "photo_copy.jpg", SuggestCopyName("photo.jpg"))
	assert.Equal(t, filepath.Join("/home/me", "scan.tar_copy.gz"), SuggestCopyName("/home/me/scan.tar.gz"))
	assert.Equal(t, "README_copy", SuggestCopyName("README"))
}
