package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	t.Parallel()

	t.Run("fires after a settled write burst", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "tapeview.json")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fired := make(chan struct{}, 16)
		done := make(chan error, 1)
		go func() {
			done <- Watch(ctx, path, func() { fired <- struct{}{} })
		}()

		// Give the watcher a moment to register before writing.
		time.Sleep(100 * time.Millisecond)
		for i := 0; i < 5; i++ {
			require.NoError(t, os.WriteFile(path, []byte(`{"tui":{"row_height":2}}`), 0o644))
		}

		select {
		case <-fired:
		case <-time.After(3 * time.Second):
			t.Fatal("config change never reported")
		}

		// The burst was within the debounce window, so it counts once.
		select {
		case <-fired:
			t.Fatal("burst reported more than once")
		case <-time.After(2 * watchDebounce):
		}

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(3 * time.Second):
			t.Fatal("watcher did not stop on cancel")
		}
	})

	t.Run("ignores sibling files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "tapeview.json")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fired := make(chan struct{}, 16)
		go func() {
			_ = Watch(ctx, path, func() { fired <- struct{}{} })
		}()

		time.Sleep(100 * time.Millisecond)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))

		select {
		case <-fired:
			t.Fatal("unrelated file reported")
		case <-time.After(2 * watchDebounce):
		}
	})

	t.Run("missing directory errors", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "gone", "tapeview.json")
		err := Watch(context.Background(), path, func() {})
		assert.Error(t, err)
	})
}
