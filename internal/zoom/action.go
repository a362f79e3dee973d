package zoom

import "github.com/lumipallolabs/nestmap/internal/model"

// Kind tells which top-level state a zoom action left behind
type Kind int

const (
	// FromTopLevel left the original top-level set
	FromTopLevel Kind = iota
	// FromOneTopLevelNode left a single original top-level node
	FromOneTopLevelNode
	// FromInnerNode left a single inner node shown at the top level
	FromInnerNode
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case FromTopLevel:
		return "FromTopLevel"
	case FromOneTopLevelNode:
		return "FromOneTopLevelNode"
	case FromInnerNode:
		return "FromInnerNode"
	default:
		return "Unknown"
	}
}

// Action is one reversible change of the displayed top level. Zoomed is the
// node shown afterwards, or nil when the original top-level set is shown.
// ParentOfZoomed is the real parent of Zoomed, captured before Zoomed was
// lifted to the top level.
//
// Origin is the single node shown before the action (unused for
// FromTopLevel) and OriginParent is its real parent (FromInnerNode only).
type Action struct {
	Kind           Kind
	Zoomed         *model.Node
	ParentOfZoomed *model.Node
	Origin         *model.Node
	OriginParent   *model.Node
}

// canZoomOut reports whether the state this action produced has somewhere to
// go up to
func (a Action) canZoomOut(originals int) bool {
	if a.Zoomed == nil {
		return false
	}
	return a.ParentOfZoomed != nil || originals > 1
}

func (a Action) String() string {
	return a.Kind.String() + "(" + nodeText(a.Origin) + " -> " + nodeText(a.Zoomed) + ")"
}

func nodeText(n *model.Node) string {
	if n == nil {
		return "<top>"
	}
	return n.Text()
}
