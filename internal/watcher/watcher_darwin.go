//go:build darwin

package watcher

import (
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsevents"
)

const (
	streamLatency = 500 * time.Millisecond
	// Move to Trash arrives as a rename
	removalFlags = fsevents.ItemRemoved | fsevents.ItemRenamed
)

// Watcher reports removals under one directory tree through an FSEvents
// stream
type Watcher struct {
	base
	stream *fsevents.EventStream
}

func New() (*Watcher, error) {
	w := &Watcher{}
	w.init()
	return w, nil
}

// AddRecursive prepares a stream for root. Only one root is kept.
func (w *Watcher) AddRecursive(root string) error {
	dev, err := fsevents.DeviceForPath(root)
	if err != nil {
		return err
	}
	w.stream = &fsevents.EventStream{
		Paths:   []string{root},
		Device:  dev,
		Latency: streamLatency,
		Flags:   fsevents.FileEvents | fsevents.WatchRoot,
	}
	return nil
}

func (w *Watcher) Start() {
	if w.stream == nil {
		return
	}
	w.stream.Start()
	w.wg.Add(1)
	go w.forward(w.stream.Events)
}

// forward relays removals from each batch until the stream closes or the
// watcher stops
func (w *Watcher) forward(batches <-chan []fsevents.Event) {
	defer w.wg.Done()
	for {
		var batch []fsevents.Event
		var ok bool
		select {
		case <-w.done:
			return
		case batch, ok = <-batches:
		}
		if !ok {
			return
		}
		for _, ev := range batch {
			if path, gone := w.removed(ev); gone {
				w.send(Event{Type: EventDeleted, Path: path})
			}
		}
	}
}

// removed reports the absolute path an event took away. A rename is reported
// for both names, so a path that still exists was the destination.
func (w *Watcher) removed(ev fsevents.Event) (string, bool) {
	if ev.Flags&removalFlags == 0 {
		return "", false
	}
	path := "/" + strings.TrimPrefix(ev.Path, "/")
	if ev.Flags&fsevents.ItemRemoved == 0 {
		if _, err := os.Lstat(path); err == nil {
			return "", false
		}
	}
	return path, true
}

func (w *Watcher) Stop() error {
	return w.shutdown(func() {
		if w.stream != nil {
			w.stream.Stop()
		}
	})
}
