package core

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/lumipallolabs/nestmap/internal/cache"
	"github.com/lumipallolabs/nestmap/internal/logging"
	"github.com/lumipallolabs/nestmap/internal/model"
	"github.com/lumipallolabs/nestmap/internal/scanner"
	"github.com/lumipallolabs/nestmap/internal/watcher"
)

// SessionOptions configures a scan session
type SessionOptions struct {
	Scanner scanner.Options
	// Cache, when set, receives a snapshot after every scan
	Cache *cache.Cache
	// Diff recolors nodes by size change against the previous snapshot
	Diff bool
}

// Session scans a directory and watches it for deletions. Results arrive as
// events on channels; the tree itself is only touched by whoever consumes
// them, normally through a Controller on the UI goroutine.
type Session struct {
	mu sync.RWMutex

	path string
	opts SessionOptions
	scan ScanState

	scanner    scanner.Scanner
	newScanner func(scanner.Options) scanner.Scanner
	watcher    *watcher.Watcher
}

// NewSession creates a session for path, made absolute when possible
func NewSession(path string, opts SessionOptions) *Session {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Session{
		path: path,
		opts: opts,
		newScanner: func(o scanner.Options) scanner.Scanner {
			return scanner.NewWalker(o)
		},
	}
}

// Path returns the scanned root path
func (s *Session) Path() string { return s.path }

// Snapshots reports whether scans are saved to a cache
func (s *Session) Snapshots() bool { return s.opts.Cache != nil }

// ScanState returns the current scan state
func (s *Session) ScanState() ScanState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scan
}

// StartScan begins scanning in the background. The returned channel is closed
// after ScanCompletedEvent.
func (s *Session) StartScan(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	s.scanner = s.newScanner(s.opts.Scanner)
	s.scan = ScanState{Phase: PhaseScanning}
	sc := s.scanner
	s.mu.Unlock()

	eventCh := make(chan Event, 100)
	go s.runScan(ctx, sc, eventCh)
	return eventCh, nil
}

// runScan executes the scan in a goroutine
func (s *Session) runScan(ctx context.Context, sc scanner.Scanner, eventCh chan Event) {
	defer close(eventCh)

	logging.Debug.Debug("starting scan", "path", s.path)

	s.mu.Lock()
	s.scan.StartTime = time.Now()
	s.mu.Unlock()

	eventCh <- ScanStartedEvent{Path: s.path}

	var progressWg sync.WaitGroup
	progressWg.Add(1)
	go func() {
		defer progressWg.Done()
		for progress := range sc.Progress() {
			s.mu.Lock()
			s.scan.FilesScanned = progress.FilesScanned
			s.scan.BytesFound = progress.BytesFound
			s.mu.Unlock()

			eventCh <- ScanProgressEvent{
				FilesScanned: progress.FilesScanned,
				BytesFound:   progress.BytesFound,
				CurrentPath:  progress.CurrentPath,
			}
		}
	}()

	root, err := sc.Scan(ctx, s.path)
	progressWg.Wait()

	if err != nil {
		s.setPhase(PhaseIdle)
		eventCh <- ScanCompletedEvent{Err: err}
		return
	}

	if s.opts.Cache != nil {
		s.setPhase(PhaseComparing)
		eventCh <- ScanPhaseChangedEvent{Phase: PhaseComparing}
		if err := s.snapshot(root); err != nil {
			eventCh <- ErrorEvent{Err: err}
		}
	}

	s.mu.Lock()
	s.scan.Phase = PhaseComplete
	s.scan.BytesFound = int64(root.SizeMetric())
	s.mu.Unlock()

	eventCh <- ScanPhaseChangedEvent{Phase: PhaseComplete}
	eventCh <- ScanCompletedEvent{Root: root}

	logging.Debug.Debug("scan complete", "path", s.path, "size", root.SizeMetric())
}

// snapshot applies the diff against the previous snapshot, if asked to, and
// saves the fresh tree
func (s *Session) snapshot(root *model.Node) error {
	key := cache.Key(s.path)
	if s.opts.Diff {
		previous, _, err := s.opts.Cache.LoadLatest(key)
		if err != nil {
			logging.Debug.Debug("no previous snapshot", "key", key, "err", err)
		}
		cache.ApplyDiff(root.Nodes().Items(), previous)
	}

	path, err := s.opts.Cache.Save(key, root.Nodes())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.scan.SnapshotPath = path
	s.mu.Unlock()
	return nil
}

// FinalizeScan marks the scan as idle once the UI is done showing completion
func (s *Session) FinalizeScan() {
	s.setPhase(PhaseIdle)
}

func (s *Session) setPhase(p ScanPhase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scan.Phase = p
}

// StartWatching starts the filesystem watcher for the scan root. The
// returned channel carries DeletionDetectedEvent and closes on Stop.
func (s *Session) StartWatching() (<-chan Event, error) {
	s.mu.Lock()
	if s.watcher != nil {
		_ = s.watcher.Stop()
	}

	w, err := watcher.New()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.watcher = w
	s.mu.Unlock()

	if err := w.AddRecursive(s.path); err != nil {
		logging.Debug.Warn("failed to add recursive watch", "path", s.path, "err", err)
	}
	w.Start()
	logging.Debug.Debug("filesystem watcher started", "path", s.path)

	eventCh := make(chan Event, 100)
	go s.watchLoop(w, eventCh)
	return eventCh, nil
}

// watchLoop forwards deletions below the scan root
func (s *Session) watchLoop(w *watcher.Watcher, eventCh chan Event) {
	defer close(eventCh)

	for event := range w.Events() {
		if event.Type != watcher.EventDeleted || !watcher.Within(s.path, event.Path) {
			continue
		}
		eventCh <- DeletionDetectedEvent{Path: event.Path}
	}
}

// Stop cleans up resources
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher != nil {
		_ = s.watcher.Stop()
		s.watcher = nil
	}
}
