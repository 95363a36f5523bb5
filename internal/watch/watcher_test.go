package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"metamod/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsWritesToTarget(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "photo.jpg")
	other := filepath.Join(tempDir, "other.jpg")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0644))

	w, err := New(WithDebounce(20 * time.Millisecond))
	require.NoError(t, err, "New watcher creation failed")
	require.NoError(t, w.Watch(target))
	require.NoError(t, w.Start())
	defer w.Stop()

	abs, _ := filepath.Abs(target)
	assert.Equal(t, abs, w.Current())
	assert.True(t, w.IsRunning())

	// Allow a brief moment for fsnotify to initialize watches
	time.Sleep(100 * time.Millisecond)

	// Writes to a neighbour are ignored
	require.NoError(t, os.WriteFile(other, []byte("b"), 0644))
	select {
	case mod := <-w.Changes():
		t.Fatalf("unexpected change for %s", mod.Path)
	case <-time.After(300 * time.Millisecond):
	}

	// Several writes in a row collapse into one notification
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("hello world"), 0644))
	}
	select {
	case mod, ok := <-w.Changes():
		require.True(t, ok, "channel closed unexpectedly")
		assert.Equal(t, abs, mod.Path)
		require.NotNil(t, mod.Info)
		assert.Equal(t, "photo.jpg", mod.Info.Name())
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for change")
	}
}

func TestWatcherReportsReplacement(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "photo.jpg")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0644))

	w, err := New(WithDebounce(20 * time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Watch(target))
	require.NoError(t, w.Start())
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	// The metadata tool writes a temporary file and renames it over the original
	tmp := target + "_exiftool_tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("rewritten"), 0644))
	require.NoError(t, os.Rename(tmp, target))

	select {
	case mod := <-w.Changes():
		assert.Equal(t, "photo.jpg", filepath.Base(mod.Path))
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for change after rename")
	}
}

func TestWatcherSwitchesTarget(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	a := filepath.Join(first, "a.jpg")
	b := filepath.Join(second, "b.jpg")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0644))

	w, err := New(WithDebounce(20 * time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Watch(a))
	require.NoError(t, w.Watch(b))
	require.NoError(t, w.Start())
	defer w.Stop()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(a, []byte("changed"), 0644))
	select {
	case mod := <-w.Changes():
		t.Fatalf("unexpected change for %s", mod.Path)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(b, []byte("changed"), 0644))
	select {
	case mod := <-w.Changes():
		assert.Equal(t, "b.jpg", filepath.Base(mod.Path))
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for change")
	}
}

func TestWatcherErrors(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "missing")
	err = w.Watch(filepath.Join(missing, "photo.jpg"))
	require.Error(t, err)
	assert.True(t, errors.IsFileNotFound(err))
	var fileErr *errors.FileError
	require.True(t, errors.As(err, &fileErr))
	assert.Equal(t, missing, fileErr.Path())
	assert.Equal(t, "", w.Current())

	notDir := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0644))
	err = w.Watch(filepath.Join(notDir, "photo.jpg"))
	require.Error(t, err)
	assert.Equal(t, errors.InvalidPath, errors.KindOf(err))
	assert.False(t, errors.IsFileNotFound(err))

	require.NoError(t, w.Start())
	defer w.Stop()
	assert.Error(t, w.Start(), "second start")
}

func TestWatcherStopClosesChannel(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
	assert.False(t, w.IsRunning())

	select {
	case _, ok := <-w.Changes():
		assert.False(t, ok, "Changes should be closed after stop")
	case <-time.After(time.Second):
		t.Error("Timeout waiting for channel to close after stop")
	}
}
