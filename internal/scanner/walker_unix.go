//go:build !windows

package scanner

import (
	"io/fs"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// platformRootInfo holds platform-specific root information
type platformRootInfo struct {
	dev uint64
}

// getPlatformRootInfo returns the device the root lives on
func getPlatformRootInfo(path string) platformRootInfo {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return platformRootInfo{}
	}
	return platformRootInfo{dev: uint64(stat.Dev)}
}

// shouldSkipDir returns true if the directory should be skipped
func shouldSkipDir(path string, d fs.DirEntry, rootInfo platformRootInfo, seenItems *sync.Map) bool {
	info, err := d.Info()
	if err != nil {
		return false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}

	// Skip if different filesystem (mount point)
	if rootInfo.dev != 0 && uint64(stat.Dev) != rootInfo.dev {
		return true
	}

	// Skip if already seen this inode (firmlinks on macOS)
	if _, exists := seenItems.LoadOrStore(stat.Ino, true); exists {
		return true
	}
	return false
}

// getFileSize returns bytes allocated on disk, or -1 for an already counted hard link
func getFileSize(info fs.FileInfo, seenItems *sync.Map) int64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.Size()
	}

	if stat.Nlink > 1 {
		if _, exists := seenItems.LoadOrStore(stat.Ino, true); exists {
			return -1
		}
	}

	// Blocks is in 512-byte units
	return stat.Blocks * 512
}
