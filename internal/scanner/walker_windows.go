//go:build windows

package scanner

import (
	"io/fs"
	"sync"
)

// platformRootInfo is empty on Windows; drives are separate roots
type platformRootInfo struct{}

func getPlatformRootInfo(path string) platformRootInfo {
	return platformRootInfo{}
}

func shouldSkipDir(path string, d fs.DirEntry, rootInfo platformRootInfo, seenItems *sync.Map) bool {
	return false
}

// getFileSize returns the logical size; Windows has no cheap block count
func getFileSize(info fs.FileInfo, seenItems *sync.Map) int64 {
	return info.Size()
}
