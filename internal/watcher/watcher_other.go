//go:build !darwin && !windows && !linux

package watcher

// Watcher does nothing on platforms without a backend; Events only closes
type Watcher struct {
	base
}

func New() (*Watcher, error) {
	w := &Watcher{}
	w.init()
	return w, nil
}

func (w *Watcher) AddRecursive(root string) error { return nil }

func (w *Watcher) Start() {}

func (w *Watcher) Stop() error { return w.shutdown(nil) }
