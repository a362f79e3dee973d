package model

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"slices"
)

// Nodes is an ordered sibling collection owned by the tree root or by one parent Node
type Nodes struct {
	items      []*Node
	parent     *Node // nil for the top-level collection
	owner      Owner
	emptySpace EmptySpace
}

// NewNodes creates a top-level collection. owner may be nil.
func NewNodes(owner Owner) *Nodes {
	ns := &Nodes{owner: owner}
	ns.emptySpace.nodes = ns
	return ns
}

func newChildNodes(parent *Node) *Nodes {
	ns := &Nodes{parent: parent}
	ns.emptySpace.nodes = ns
	return ns
}

// Parent returns the node that owns the collection, or nil for the top level
func (ns *Nodes) Parent() *Node { return ns.parent }

// Len returns the number of nodes
func (ns *Nodes) Len() int { return len(ns.items) }

// At returns the node at index i
func (ns *Nodes) At(i int) *Node { return ns.items[i] }

// All iterates the nodes in insertion order
func (ns *Nodes) All() iter.Seq[*Node] {
	return slices.Values(ns.items)
}

// Items returns a copy of the nodes in insertion order
func (ns *Nodes) Items() []*Node {
	return slices.Clone(ns.items)
}

// Contains reports whether n is a member of this collection
func (ns *Nodes) Contains(n *Node) bool {
	return slices.Contains(ns.items, n)
}

// EmptySpace returns the collection's unallocated weight
func (ns *Nodes) EmptySpace() *EmptySpace { return &ns.emptySpace }

// Add appends n, sets its parent back-reference and propagates the owner
func (ns *Nodes) Add(n *Node) error {
	if n == nil {
		return fmt.Errorf("nil node: %w", ErrInvalidArgument)
	}
	if err := validateSizeMetric(n.sizeMetric); err != nil {
		return err
	}
	if err := validateColorMetric(n.colorMetric); err != nil {
		return err
	}
	if n.collection != nil {
		return fmt.Errorf("node %q already belongs to a collection: %w", n.text, ErrInvalidArgument)
	}
	if ns.parent != nil && n.containsInSubtree(ns.parent) {
		return fmt.Errorf("adding %q under %q would create a cycle: %w", n.text, ns.parent.text, ErrInvalidArgument)
	}

	ns.items = append(ns.items, n)
	n.parent = ns.parent
	n.collection = ns
	n.setOwner(ns.owner)
	ns.invalidate()
	return nil
}

// AddNew creates a node and appends it
func (ns *Nodes) AddNew(text string, sizeMetric, colorMetric float32) (*Node, error) {
	n, err := NewNode(text, sizeMetric, colorMetric)
	if err != nil {
		return nil, err
	}
	if err := ns.Add(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Remove detaches n from the collection. It reports whether n was found.
func (ns *Nodes) Remove(n *Node) bool {
	i := slices.Index(ns.items, n)
	if i < 0 {
		return false
	}
	ns.items = slices.Delete(ns.items, i, i+1)
	ns.detach(n)
	ns.invalidate()
	return true
}

// Clear removes every node and resets the empty space
func (ns *Nodes) Clear() {
	for _, n := range ns.items {
		ns.detach(n)
	}
	ns.items = nil
	ns.emptySpace.sizeMetric = 0
	ns.emptySpace.rect = EmptyRect
	ns.invalidate()
}

func (ns *Nodes) detach(n *Node) {
	if n.collection != ns {
		return
	}
	n.collection = nil
	n.parent = nil
	n.setOwner(nil)
}

// Reset replaces the visible members with nodes that stay owned by their
// original collections. Each node's parent back-reference is pointed at this
// collection's parent; zoom navigation restores the real parent with
// Node.SetParent when the node leaves.
func (ns *Nodes) Reset(nodes []*Node, emptySpace float32) {
	ns.items = slices.Clone(nodes)
	for _, n := range ns.items {
		n.parent = ns.parent
	}
	ns.emptySpace.sizeMetric = emptySpace
	ns.emptySpace.rect = EmptyRect
	ns.invalidate()
}

// SortedBySize returns a snapshot ordered by size metric descending. Equal
// weights keep insertion order.
func (ns *Nodes) SortedBySize() []*Node {
	out := slices.Clone(ns.items)
	slices.SortStableFunc(out, func(a, b *Node) int {
		return cmp.Compare(b.sizeMetric, a.sizeMetric)
	})
	return out
}

// TotalWeight returns the children's size metrics plus the empty space weight
func (ns *Nodes) TotalWeight() float64 {
	total := float64(ns.emptySpace.sizeMetric)
	for _, n := range ns.items {
		total += float64(n.sizeMetric)
	}
	return total
}

// SizeMetricRange returns the smallest and largest size metrics, or zeros if empty
func (ns *Nodes) SizeMetricRange() (lo, hi float32) {
	if len(ns.items) == 0 {
		return 0, 0
	}
	lo, hi = math.MaxFloat32, 0
	for _, n := range ns.items {
		lo = min(lo, n.sizeMetric)
		hi = max(hi, n.sizeMetric)
	}
	return lo, hi
}

func (ns *Nodes) invalidate() {
	if ns.owner != nil {
		ns.owner.Invalidate()
	}
}

// EmptySpace is unallocated weight in a sibling collection, drawn as blank area
type EmptySpace struct {
	sizeMetric float32
	rect       Rect
	nodes      *Nodes
}

// SizeMetric returns the empty space weight
func (e *EmptySpace) SizeMetric() float32 { return e.sizeMetric }

// SetSizeMetric sets the empty space weight
func (e *EmptySpace) SetSizeMetric(v float32) error {
	if err := validateSizeMetric(v); err != nil {
		return err
	}
	if e.sizeMetric != v {
		e.sizeMetric = v
		if e.nodes != nil {
			e.nodes.invalidate()
		}
	}
	return nil
}

// Rectangle returns the area the last layout pass left blank
func (e *EmptySpace) Rectangle() Rect { return e.rect }

// SetRectangle is called by the layout engine
func (e *EmptySpace) SetRectangle(r Rect) { e.rect = r }
