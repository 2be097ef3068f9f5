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

// waitFor reads events until one matches or the timeout expires.
func waitFor(t *testing.T, ch <-chan FileModification, match func(FileModification) bool) FileModification {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case event, ok := <-ch:
			require.True(t, ok, "Event channel closed unexpectedly")
			if match(event) {
				return event
			}
		case <-timeout:
			t.Fatal("Timeout waiting for event")
			return FileModification{}
		}
	}
}

func TestWatcherFsnotify(t *testing.T) {
	tempDir := t.TempDir()

	w, err := New()
	require.NoError(t, err, "New watcher creation failed")

	require.NoError(t, w.AddDirectory(tempDir), "Failed to add directory to watcher")
	require.NoError(t, w.AddDirectory(tempDir))
	assert.Equal(t, []string{tempDir}, w.GetDirectories())

	require.NoError(t, w.Start(), "Failed to start watcher")
	defer w.Stop()
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(), "Second start should fail")

	evChan := w.FileChannel()
	// Allow a brief moment for fsnotify to initialize watches
	time.Sleep(100 * time.Millisecond)

	// --- Creation ---
	testFilePath := filepath.Join(tempDir, "clip.mp4")
	require.NoError(t, os.WriteFile(testFilePath, []byte("frames"), 0644))

	event := waitFor(t, evChan, func(m FileModification) bool {
		return m.Path == testFilePath && m.Op.Has(fsnotify.Create)
	})
	assert.Equal(t, "clip.mp4", event.Name)
	require.NotNil(t, event.Info)
	assert.False(t, event.Gone())

	// --- Directories are ignored ---
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "Good"), 0755))

	// --- Rename away ---
	renamed := filepath.Join(tempDir, "Good", "clip.mp4")
	require.NoError(t, os.Rename(testFilePath, renamed))
	event = waitFor(t, evChan, func(m FileModification) bool {
		return m.Path == testFilePath && m.Gone()
	})
	assert.Nil(t, event.Info)
	assert.Equal(t, "clip.mp4", event.Name)

	// --- Removal ---
	other := filepath.Join(tempDir, "a.jpg")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))
	require.NoError(t, os.Remove(other))
	event = waitFor(t, evChan, func(m FileModification) bool {
		return m.Path == other && m.Op.Has(fsnotify.Remove)
	})
	assert.True(t, event.Gone())

	// --- Stop ---
	w.Stop()
	assert.False(t, w.IsRunning())

DrainLoop:
	for {
		select {
		case _, ok := <-evChan:
			if !ok {
				break DrainLoop
			}
		default:
			break DrainLoop
		}
	}

	select {
	case _, ok := <-evChan:
		assert.False(t, ok, "Event channel should be closed after stop")
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event channel to close after stop")
	}
}

func TestAddDirectoryErrors(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Stop()

	assert.Error(t, w.AddDirectory(filepath.Join(t.TempDir(), "missing")))

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.Error(t, w.AddDirectory(file))
}
