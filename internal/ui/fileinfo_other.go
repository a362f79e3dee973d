//go:build !darwin

package ui

import (
	"os"
	"time"
)

// birthTime is unknown where stat has no birthtime
func birthTime(os.FileInfo) time.Time {
	return time.Time{}
}
