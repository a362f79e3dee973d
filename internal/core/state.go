package core

import (
	"time"

	"github.com/lumipallolabs/nestmap/internal/model"
)

// ScanPhase represents the current phase of scanning
type ScanPhase int

const (
	PhaseIdle ScanPhase = iota
	PhaseScanning
	PhaseComparing
	PhaseComplete
)

// String returns a human-readable phase name
func (p ScanPhase) String() string {
	switch p {
	case PhaseIdle:
		return ""
	case PhaseScanning:
		return "Scanning files"
	case PhaseComparing:
		return "Comparing with snapshot"
	case PhaseComplete:
		return "Complete"
	default:
		return ""
	}
}

// ScanState holds the current scan state
type ScanState struct {
	Phase        ScanPhase
	StartTime    time.Time
	FilesScanned int64
	BytesFound   int64
	SnapshotPath string
}

// IsScanning returns true while files are walked or compared
func (s ScanState) IsScanning() bool {
	return s.Phase == PhaseScanning || s.Phase == PhaseComparing
}

// Elapsed returns time since scan started
func (s ScanState) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return time.Since(s.StartTime).Truncate(time.Second)
}

// NavigationState is a read-only snapshot of zoom and history state for
// enabling and disabling UI affordances
type NavigationState struct {
	Zoomable       bool
	CanZoomOut     bool
	CanMoveBack    bool
	CanMoveForward bool
	// Path lists the zoomed node and its ancestors, outermost first
	Path  []*model.Node
	Index int
	Len   int
}

// Zoomed returns the node currently zoomed into, or nil
func (s NavigationState) Zoomed() *model.Node {
	if len(s.Path) == 0 {
		return nil
	}
	return s.Path[len(s.Path)-1]
}
