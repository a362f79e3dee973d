//go:build windows

package ui

import "os/exec"

// revealPath opens Explorer on the parent folder with path selected
func revealPath(path string) error {
	return exec.Command("explorer", "/select,"+path).Start()
}
