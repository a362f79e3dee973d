// Package watcher reports filesystem deletions below a scanned root so the
// displayed tree can drop nodes that no longer exist.
package watcher

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/lumipallolabs/nestmap/internal/logging"
)

// EventType represents the type of filesystem event
type EventType int

const (
	EventDeleted EventType = iota
	EventCreated
	EventModified
)

func (t EventType) String() string {
	switch t {
	case EventDeleted:
		return "deleted"
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Event represents a filesystem change event
type Event struct {
	Type EventType
	Path string
}

// base holds the channel plumbing every platform backend shares
type base struct {
	eventCh chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

func (b *base) init() {
	b.eventCh = make(chan Event, 100)
	b.done = make(chan struct{})
}

// Events returns the channel for receiving filesystem events. It is closed by Stop.
func (b *base) Events() <-chan Event {
	return b.eventCh
}

// send delivers ev unless the consumer is behind, in which case it is dropped
func (b *base) send(ev Event) {
	select {
	case b.eventCh <- ev:
	default:
		logging.Debug.Debug("watcher: dropped event", "type", ev.Type, "path", ev.Path)
	}
}

// shutdown stops the backend once and closes the event channel after the
// reader goroutine is gone
func (b *base) shutdown(stopBackend func()) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	if stopBackend != nil {
		stopBackend()
	}
	b.wg.Wait()
	close(b.eventCh)
	return nil
}

// Within reports whether path is root or below it
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
