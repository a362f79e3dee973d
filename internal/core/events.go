package core

import "github.com/lumipallolabs/nestmap/internal/model"

// Event represents a state change from the controller or a scan session
type Event interface {
	isEvent()
}

// RedrawRequiredEvent is emitted when layout-affecting state changed. Inside
// a BeginUpdate/EndUpdate bracket it fires once, on the closing EndUpdate.
type RedrawRequiredEvent struct{}

func (RedrawRequiredEvent) isEvent() {}

// NavigationChangedEvent is emitted after a zoom or history move, or when
// zooming is switched on or off
type NavigationChangedEvent struct {
	State NavigationState
}

func (NavigationChangedEvent) isEvent() {}

// NodesChangedEvent is emitted when nodes are added, removed or replaced
type NodesChangedEvent struct{}

func (NodesChangedEvent) isEvent() {}

// ScanStartedEvent is emitted when a scan begins
type ScanStartedEvent struct {
	Path string
}

func (ScanStartedEvent) isEvent() {}

// ScanProgressEvent is emitted during scanning
type ScanProgressEvent struct {
	FilesScanned int64
	BytesFound   int64
	CurrentPath  string
}

func (ScanProgressEvent) isEvent() {}

// ScanPhaseChangedEvent is emitted when scan phase changes
type ScanPhaseChangedEvent struct {
	Phase ScanPhase
}

func (ScanPhaseChangedEvent) isEvent() {}

// ScanCompletedEvent is emitted when scan finishes. Root is the scanned
// directory; its children become the top level.
type ScanCompletedEvent struct {
	Root *model.Node
	Err  error
}

func (ScanCompletedEvent) isEvent() {}

// DeletionDetectedEvent is emitted when a file or folder below the scan root
// disappears
type DeletionDetectedEvent struct {
	Path string
}

func (DeletionDetectedEvent) isEvent() {}

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) isEvent() {}
