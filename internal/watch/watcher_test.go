package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan Change, match func(Change) bool) Change {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case change, ok := <-ch:
			require.True(t, ok, "change channel closed unexpectedly")
			if match(change) {
				return change
			}
		case <-timeout:
			t.Fatal("timeout waiting for change")
			return Change{}
		}
	}
}

func TestWatcherReportsCreateAndRemove(t *testing.T) {
	tempDir := t.TempDir()

	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.AddDirectory(tempDir))
	require.NoError(t, w.Start())
	defer w.Stop()

	// Allow fsnotify to settle its watches
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(tempDir, "sub")
	require.NoError(t, os.Mkdir(target, 0755))

	created := waitFor(t, w.Changes(), func(c Change) bool {
		return c.Path == target && c.Op.Has(fsnotify.Create)
	})
	require.NotNil(t, created.Info)
	assert.True(t, created.Info.IsDir(), "directory events are reported")

	require.NoError(t, os.Remove(target))
	removed := waitFor(t, w.Changes(), func(c Change) bool {
		return c.Path == target && c.Op.Has(fsnotify.Remove)
	})
	assert.Nil(t, removed.Info, "removed paths carry no info")
}

func TestAddDirectory(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	t.Run("missing directory", func(t *testing.T) {
		err := w.AddDirectory(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
		err := w.AddDirectory(file)
		assert.ErrorContains(t, err, "is not a directory")
	})

	t.Run("duplicates are ignored", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, w.AddDirectory(dir))
		require.NoError(t, w.AddDirectory(dir))
		count := 0
		for _, d := range w.Directories() {
			if d == dir {
				count++
			}
		}
		assert.Equal(t, 1, count)

		require.NoError(t, w.RemoveDirectory(dir))
		assert.NotContains(t, w.Directories(), dir)
	})
}

func TestStartStop(t *testing.T) {
	w, err := New()
	require.NoError(t, err)

	assert.False(t, w.IsRunning())
	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(), "second start must fail")

	w.Stop()
	assert.False(t, w.IsRunning())
	_, ok := <-w.Changes()
	assert.False(t, ok, "channel is closed after stop")

	// Stopping twice is harmless
	w.Stop()
}
