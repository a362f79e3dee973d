//go:build windows

package watcher

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

const (
	// Names only; size and attribute churn never removes a node.
	notifyFilter  = windows.FILE_NOTIFY_CHANGE_FILE_NAME | windows.FILE_NOTIFY_CHANGE_DIR_NAME
	notifyBufSize = 64 << 10
)

// Watcher reports removals under one directory tree through
// ReadDirectoryChangesW
type Watcher struct {
	base
	root string
	dir  windows.Handle
}

func New() (*Watcher, error) {
	w := &Watcher{dir: windows.InvalidHandle}
	w.init()
	return w, nil
}

// AddRecursive opens root for change notifications. Only one root is kept.
func (w *Watcher) AddRecursive(root string) error {
	dir, err := openDir(root)
	if err != nil {
		return err
	}
	w.root, w.dir = root, dir
	return nil
}

func openDir(path string) (windows.Handle, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return windows.InvalidHandle, err
	}
	share := uint32(windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE | windows.FILE_SHARE_DELETE)
	// BACKUP_SEMANTICS is required to open a directory handle
	flags := uint32(windows.FILE_FLAG_BACKUP_SEMANTICS | windows.FILE_FLAG_OVERLAPPED)
	return windows.CreateFile(name, windows.FILE_LIST_DIRECTORY, share, nil, windows.OPEN_EXISTING, flags, 0)
}

func (w *Watcher) Start() {
	if w.dir == windows.InvalidHandle {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		buf := make([]byte, notifyBufSize)
		for w.read(buf) {
		}
	}()
}

// read blocks for one batch of changes and forwards its removals. It returns
// false once the handle is closed or the watcher is stopping.
func (w *Watcher) read(buf []byte) bool {
	var n uint32
	if err := windows.ReadDirectoryChanges(w.dir, &buf[0], uint32(len(buf)), true, notifyFilter, &n, nil, 0); err != nil {
		return false
	}
	for action, name := range notifyRecords(buf[:n]) {
		if isRemoval(action) {
			w.send(Event{Type: EventDeleted, Path: filepath.Join(w.root, name)})
		}
	}
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Stop closes the directory handle, which unblocks the pending read
func (w *Watcher) Stop() error {
	return w.shutdown(func() {
		if w.dir != windows.InvalidHandle {
			_ = windows.CloseHandle(w.dir)
		}
	})
}
