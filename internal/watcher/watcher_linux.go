//go:build linux

package watcher

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"sync"
	"unsafe"

	"github.com/charlievieth/fastwalk"
	"golang.org/x/sys/unix"

	"github.com/lumipallolabs/nestmap/internal/logging"
)

const (
	watchMask  = unix.IN_DELETE | unix.IN_MOVED_FROM | unix.IN_DELETE_SELF | unix.IN_ONLYDIR
	pollMillis = 200
)

// Watcher watches for deletions using inotify, one watch per directory
type Watcher struct {
	base
	fd        int
	closeOnce sync.Once

	dirsMu sync.Mutex
	dirs   map[int]string // watch descriptor -> directory
}

func New() (*Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, err
	}
	w := &Watcher{fd: fd, dirs: make(map[int]string)}
	w.init()
	return w, nil
}

// AddRecursive watches root and every directory below it. Directories that
// can't be watched are skipped; running out of watches stops the walk.
func (w *Watcher) AddRecursive(root string) error {
	conf := &fastwalk.Config{Follow: false}
	return fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		wd, err := unix.InotifyAddWatch(w.fd, path, watchMask)
		if err == unix.ENOSPC {
			logging.Debug.Warn("watcher: inotify watch limit reached", "at", path)
			return fs.SkipDir
		}
		if err != nil {
			return nil
		}
		w.dirsMu.Lock()
		w.dirs[wd] = path
		w.dirsMu.Unlock()
		return nil
	})
}

func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Watcher) run() {
	defer w.wg.Done()
	buf := make([]byte, 64*1024)
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}

	for {
		select {
		case <-w.done:
			return
		default:
		}

		n, err := unix.Poll(fds, pollMillis)
		if err == unix.EINTR || n == 0 {
			continue
		}
		if err != nil {
			return
		}

		read, err := unix.Read(w.fd, buf)
		if err == unix.EAGAIN {
			continue
		}
		if err != nil || read <= 0 {
			return
		}
		w.processEvents(buf[:read])
	}
}

func (w *Watcher) processEvents(buf []byte) {
	for len(buf) >= unix.SizeofInotifyEvent {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[0]))
		end := unix.SizeofInotifyEvent + int(raw.Len)
		if end > len(buf) {
			return
		}
		name := string(bytes.TrimRight(buf[unix.SizeofInotifyEvent:end], "\x00"))

		w.dirsMu.Lock()
		dir, ok := w.dirs[int(raw.Wd)]
		if raw.Mask&unix.IN_IGNORED != 0 {
			delete(w.dirs, int(raw.Wd))
		}
		w.dirsMu.Unlock()

		if ok && raw.Mask&(unix.IN_DELETE|unix.IN_MOVED_FROM) != 0 && name != "" {
			w.send(Event{Type: EventDeleted, Path: filepath.Join(dir, name)})
		}
		buf = buf[end:]
	}
}

// Stop waits for the reader to notice, which takes at most one poll interval,
// then releases the inotify descriptor
func (w *Watcher) Stop() error {
	err := w.shutdown(nil)
	w.closeOnce.Do(func() { _ = unix.Close(w.fd) })
	return err
}
