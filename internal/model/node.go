package model

import (
	"fmt"
	"image/color"
	"math"
)

// Owner is notified whenever layout-affecting state changes somewhere in a
// tree. The controller that owns the top-level collection implements it.
type Owner interface {
	Invalidate()
}

// Node is one weighted, colored element of the treemap tree
type Node struct {
	text          string
	sizeMetric    float32
	colorMetric   float32
	absoluteColor color.Color
	tag           any
	toolTip       string

	// Set by the layout engine on every pass
	rect       Rect
	penWidthPx int

	parent     *Node  // non-owning back-reference, nil for top-level nodes
	collection *Nodes // collection that owns this node, nil until added
	children   *Nodes
}

// NewNode creates a node colored by a color metric
func NewNode(text string, sizeMetric, colorMetric float32) (*Node, error) {
	if err := validateSizeMetric(sizeMetric); err != nil {
		return nil, err
	}
	if err := validateColorMetric(colorMetric); err != nil {
		return nil, err
	}
	n := &Node{
		text:        text,
		sizeMetric:  sizeMetric,
		colorMetric: colorMetric,
	}
	n.children = newChildNodes(n)
	return n, nil
}

// NewNodeWithColor creates a node with an absolute color instead of a color metric
func NewNodeWithColor(text string, sizeMetric float32, c color.Color) (*Node, error) {
	if err := validateSizeMetric(sizeMetric); err != nil {
		return nil, err
	}
	n := &Node{
		text:          text,
		sizeMetric:    sizeMetric,
		absoluteColor: c,
	}
	n.children = newChildNodes(n)
	return n, nil
}

// MustNode is NewNode for literals in tests and examples; it panics on invalid input
func MustNode(text string, sizeMetric, colorMetric float32) *Node {
	n, err := NewNode(text, sizeMetric, colorMetric)
	if err != nil {
		panic(err)
	}
	return n
}

func validateSizeMetric(v float32) error {
	if math.IsNaN(float64(v)) || v < 0 {
		return fmt.Errorf("size metric %v must be >= 0: %w", v, ErrInvalidArgument)
	}
	return nil
}

func validateColorMetric(v float32) error {
	if math.IsNaN(float64(v)) {
		return fmt.Errorf("color metric can't be NaN: %w", ErrInvalidArgument)
	}
	return nil
}

func (n *Node) String() string {
	return n.text
}

// Text returns the node label
func (n *Node) Text() string { return n.text }

// SetText sets the node label
func (n *Node) SetText(text string) {
	if n.text == text {
		return
	}
	n.text = text
	n.invalidate()
}

// SizeMetric returns the weight that drives the node's area
func (n *Node) SizeMetric() float32 { return n.sizeMetric }

// SetSizeMetric sets the weight that drives the node's area
func (n *Node) SetSizeMetric(v float32) error {
	if err := validateSizeMetric(v); err != nil {
		return err
	}
	if n.sizeMetric != v {
		n.sizeMetric = v
		n.invalidate()
	}
	return nil
}

// ColorMetric returns the value mapped to a fill color in metric color mode
func (n *Node) ColorMetric() float32 { return n.colorMetric }

// SetColorMetric sets the value mapped to a fill color in metric color mode
func (n *Node) SetColorMetric(v float32) error {
	if err := validateColorMetric(v); err != nil {
		return err
	}
	if n.colorMetric != v {
		n.colorMetric = v
		n.invalidate()
	}
	return nil
}

// AbsoluteColor returns the fixed fill color used in absolute color mode
func (n *Node) AbsoluteColor() (color.Color, bool) {
	return n.absoluteColor, n.absoluteColor != nil
}

// SetAbsoluteColor sets the fixed fill color used in absolute color mode
func (n *Node) SetAbsoluteColor(c color.Color) {
	n.absoluteColor = c
	n.invalidate()
}

// Tag returns the caller payload
func (n *Node) Tag() any { return n.tag }

// SetTag attaches an opaque caller payload. It does not affect layout.
func (n *Node) SetTag(tag any) { n.tag = tag }

// ToolTip returns the tooltip text
func (n *Node) ToolTip() string { return n.toolTip }

// SetToolTip sets the tooltip text. It does not affect layout.
func (n *Node) SetToolTip(s string) { n.toolTip = s }

// Rectangle returns the rectangle computed by the last layout pass
func (n *Node) Rectangle() Rect { return n.rect }

// SetRectangle is called by the layout engine
func (n *Node) SetRectangle(r Rect) { n.rect = r }

// PenWidthPx returns the border width assigned for the node's level
func (n *Node) PenWidthPx() int { return n.penWidthPx }

// SetPenWidthPx is called by the layout engine
func (n *Node) SetPenWidthPx(px int) { n.penWidthPx = px }

// IsDrawn reports whether the last layout pass gave the node a visible rectangle
func (n *Node) IsDrawn() bool { return !n.rect.IsEmpty() }

// Nodes returns the node's child collection
func (n *Node) Nodes() *Nodes { return n.children }

// Parent returns the parent node, or nil for a top-level node
func (n *Node) Parent() *Node { return n.parent }

// SetParent re-points the parent back-reference without moving the node
// between collections. Zoom navigation uses it to restore the real parent of
// a node that was temporarily shown at the top level.
func (n *Node) SetParent(parent *Node) error {
	if parent == n {
		return fmt.Errorf("node %q can't be its own parent: %w", n.text, ErrInvalidArgument)
	}
	n.parent = parent
	return nil
}

// Level returns the number of ancestors reachable through parent links
func (n *Node) Level() int {
	level := 0
	for p := n.parent; p != nil; p = p.parent {
		level++
	}
	return level
}

// IsDescendantOf reports whether ancestor is reachable from n through parent links
func (n *Node) IsDescendantOf(ancestor *Node) bool {
	if ancestor == nil {
		return false
	}
	for p := n.parent; p != nil; p = p.parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first. Returning false from fn skips
// the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.children.items {
		child.Walk(fn)
	}
}

// owner finds the tree owner through the collection that holds the node
func (n *Node) owner() Owner {
	if n.collection == nil {
		return nil
	}
	return n.collection.owner
}

func (n *Node) invalidate() {
	if o := n.owner(); o != nil {
		o.Invalidate()
	}
}

// setOwner propagates the owner to every collection below n
func (n *Node) setOwner(o Owner) {
	n.children.owner = o
	for _, child := range n.children.items {
		child.setOwner(o)
	}
}

// containsInSubtree reports whether target is n or below n in the child collections
func (n *Node) containsInSubtree(target *Node) bool {
	if n == target {
		return true
	}
	for _, child := range n.children.items {
		if child.containsInSubtree(target) {
			return true
		}
	}
	return false
}
