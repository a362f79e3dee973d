package scanner

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/lumipallolabs/nestmap/internal/logging"
	"github.com/lumipallolabs/nestmap/internal/model"
)

// progressEvery is how many files pass between progress reports
const progressEvery = 1000

// Walker implements parallel filesystem scanning
type Walker struct {
	opts       Options
	progressCh chan Progress
	progress   Progress
	now        func() time.Time
}

// NewWalker creates a new parallel filesystem walker
func NewWalker(opts Options) *Walker {
	if opts.Workers < 1 {
		opts.Workers = 8
	}
	return &Walker{
		opts:       opts,
		progressCh: make(chan Progress, 100),
		now:        time.Now,
	}
}

// Progress returns the progress channel
func (w *Walker) Progress() <-chan Progress {
	return w.progressCh
}

// nodeEntry is a temporary structure for building the tree
type nodeEntry struct {
	path    string
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

// Scan scans the filesystem starting at root using fastwalk
func (w *Walker) Scan(ctx context.Context, root string) (*model.Node, error) {
	defer close(w.progressCh)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	// Get platform-specific root info for mount point detection
	rootInfo := getPlatformRootInfo(absRoot)

	// Use channels for lock-free entry collection
	entryChan := make(chan nodeEntry, 50000)
	var entries []nodeEntry
	var entriesWg sync.WaitGroup

	entriesWg.Add(1)
	go func() {
		defer entriesWg.Done()
		collected := make([]nodeEntry, 0, 4096)
		for e := range entryChan {
			collected = append(collected, e)
		}
		entries = collected
	}()

	// Track seen paths/inodes for deduplication
	var seenItems sync.Map

	conf := &fastwalk.Config{
		Follow:     false,
		NumWorkers: w.opts.Workers,
	}

	walkErr := fastwalk.Walk(conf, absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip entries with errors
		}

		if path == absRoot {
			return nil
		}

		// Platform-specific directory checks (mount points, firmlinks)
		if d.IsDir() && shouldSkipDir(path, d, rootInfo, &seenItems) {
			return fs.SkipDir
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		var size int64
		if !d.IsDir() {
			size = getFileSize(info, &seenItems)
			if size < 0 {
				// Negative means skip (e.g., already counted hard link)
				return nil
			}

			files := atomic.AddInt64(&w.progress.FilesScanned, 1)
			bytes := atomic.AddInt64(&w.progress.BytesFound, size)
			if files%progressEvery == 0 {
				w.report(Progress{
					FilesScanned: files,
					DirsScanned:  atomic.LoadInt64(&w.progress.DirsScanned),
					BytesFound:   bytes,
					CurrentPath:  path,
				})
			}
		} else {
			atomic.AddInt64(&w.progress.DirsScanned, 1)
		}

		entryChan <- nodeEntry{
			path:    path,
			name:    d.Name(),
			size:    size,
			modTime: info.ModTime(),
			isDir:   d.IsDir(),
		}
		return nil
	})

	close(entryChan)
	entriesWg.Wait()

	if walkErr != nil {
		if errors.Is(walkErr, ctx.Err()) {
			return nil, ctx.Err()
		}
		return nil, walkErr
	}

	logging.Scanner.Debug("walk finished", "root", absRoot, "entries", len(entries))
	return w.buildTree(absRoot, entries)
}

// report sends a progress snapshot without blocking the walk
func (w *Walker) report(p Progress) {
	select {
	case w.progressCh <- p:
	default:
	}
}

// buildTree constructs the node tree from flat entries. Directory sizes are
// the sum of their contents and a directory's age is that of its newest entry.
func (w *Walker) buildTree(rootPath string, entries []nodeEntry) (*model.Node, error) {
	children := make(map[string][]int, len(entries)/10+1)
	for i := range entries {
		parent := filepath.Dir(entries[i].path)
		children[parent] = append(children[parent], i)
	}

	now := w.now()
	rootEntry := nodeEntry{path: rootPath, name: filepath.Base(rootPath), isDir: true}

	var build func(e *nodeEntry, depth int) (*model.Node, int64, time.Time, error)
	build = func(e *nodeEntry, depth int) (*model.Node, int64, time.Time, error) {
		size := e.size
		newest := e.modTime
		var kids []*model.Node

		for _, i := range children[e.path] {
			child := &entries[i]
			n, childSize, childNewest, err := build(child, depth+1)
			if err != nil {
				return nil, 0, time.Time{}, err
			}
			size += childSize
			if childNewest.After(newest) {
				newest = childNewest
			}
			if n != nil {
				kids = append(kids, n)
			}
		}

		// Past the depth limit only the totals travel up
		if w.opts.MaxDepth > 0 && depth > w.opts.MaxDepth {
			return nil, size, newest, nil
		}

		node, err := model.NewNode(e.name, float32(size), ageDays(now, newest))
		if err != nil {
			return nil, 0, time.Time{}, err
		}
		node.SetTag(e.path)
		node.SetToolTip(e.path)
		switch {
		case e.isDir && w.opts.DirColor != nil:
			node.SetAbsoluteColor(w.opts.DirColor)
		case !e.isDir && w.opts.FileColor != nil:
			node.SetAbsoluteColor(w.opts.FileColor)
		}
		for _, k := range kids {
			if err := node.Nodes().Add(k); err != nil {
				return nil, 0, time.Time{}, err
			}
		}
		return node, size, newest, nil
	}

	root, _, _, err := build(&rootEntry, 0)
	return root, err
}

// ageDays returns whole and fractional days between t and now, never negative
func ageDays(now, t time.Time) float32 {
	if t.IsZero() {
		return 0
	}
	days := now.Sub(t).Hours() / 24
	return float32(math.Max(days, 0))
}

// Ensure Walker implements Scanner
var _ Scanner = (*Walker)(nil)
