package scanner

import (
	"context"
	"image/color"

	"github.com/lumipallolabs/nestmap/internal/model"
)

// Progress reports scanning progress
type Progress struct {
	FilesScanned int64
	DirsScanned  int64
	BytesFound   int64
	CurrentPath  string
}

// Options controls how the scanned filesystem maps onto nodes
type Options struct {
	// Workers is the number of fastwalk goroutines
	Workers int
	// MaxDepth folds everything below this many levels into the deepest
	// directory kept. 0 means unlimited.
	MaxDepth int
	// DirColor and FileColor, when set, become the nodes' absolute colors
	DirColor  color.Color
	FileColor color.Color
}

// Scanner defines the interface for filesystem scanning
type Scanner interface {
	// Scan scans the given root path and returns the root directory node.
	// Size metric is bytes on disk, color metric is days since the last
	// modification, tag and tooltip hold the absolute path.
	Scan(ctx context.Context, root string) (*model.Node, error)

	// Progress returns a channel that receives progress updates
	Progress() <-chan Progress
}

// Path returns the filesystem path stored on a scanned node
func Path(n *model.Node) string {
	if p, ok := n.Tag().(string); ok {
		return p
	}
	return ""
}
