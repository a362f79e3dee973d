package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumipallolabs/nestmap/internal/cache"
	"github.com/lumipallolabs/nestmap/internal/scanner"
)

func drain(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, e)
		case <-timeout:
			t.Fatal("event channel not closed in time")
		}
	}
}

func completed(t *testing.T, events []Event) ScanCompletedEvent {
	t.Helper()
	for _, e := range events {
		if done, ok := e.(ScanCompletedEvent); ok {
			return done
		}
	}
	t.Fatal("no ScanCompletedEvent")
	return ScanCompletedEvent{}
}

func TestSessionScanSavesSnapshot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaaa"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bb"), 0644))

	cacheDir := t.TempDir()
	s := NewSession(root, SessionOptions{
		Scanner: scanner.Options{Workers: 2},
		Cache:   cache.New(cacheDir),
		Diff:    true,
	})

	ch, err := s.StartScan(context.Background())
	require.NoError(t, err)
	events := drain(t, ch)

	assert.IsType(t, ScanStartedEvent{}, events[0])
	done := completed(t, events)
	require.NoError(t, done.Err)
	require.NotNil(t, done.Root)
	assert.Equal(t, 2, done.Root.Nodes().Len())

	// First scan: no previous snapshot, everything is new
	for n := range done.Root.Nodes().All() {
		assert.Equal(t, float32(cache.NewNodeChange), n.ColorMetric(), n.Text())
	}

	state := s.ScanState()
	assert.Equal(t, PhaseComplete, state.Phase)
	assert.FileExists(t, state.SnapshotPath)

	s.FinalizeScan()
	assert.False(t, s.ScanState().IsScanning())
}

func TestSessionScanError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0644))

	s := NewSession(dir, SessionOptions{})
	ch, err := s.StartScan(ctx)
	require.NoError(t, err)

	done := completed(t, drain(t, ch))
	assert.ErrorIs(t, done.Err, context.Canceled)
	assert.Equal(t, PhaseIdle, s.ScanState().Phase)
}

func TestSessionWatchStops(t *testing.T) {
	s := NewSession(t.TempDir(), SessionOptions{})
	ch, err := s.StartWatching()
	require.NoError(t, err)

	s.Stop()
	drain(t, ch)
}
