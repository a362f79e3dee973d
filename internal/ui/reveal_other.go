//go:build !windows && !darwin

package ui

import (
	"os"
	"os/exec"
	"path/filepath"
)

// revealPath opens the folder holding path with the desktop's default
// handler; directories open themselves
func revealPath(path string) error {
	target := path
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		target = filepath.Dir(path)
	}
	return exec.Command("xdg-open", target).Start()
}
