package core

import (
	"fmt"
	"slices"

	"github.com/lumipallolabs/nestmap/internal/layout"
	"github.com/lumipallolabs/nestmap/internal/logging"
	"github.com/lumipallolabs/nestmap/internal/model"
	"github.com/lumipallolabs/nestmap/internal/zoom"
)

// ErrInvalidOperation is returned by zoom and history calls that are not
// allowed in the current state, including any zoom call while zooming is off
var ErrInvalidOperation = zoom.ErrInvalidOperation

// Controller owns the node tree, layout settings and optional zoom history.
// It is not safe for concurrent use; callers serialize access, typically by
// only touching it from the UI goroutine.
type Controller struct {
	top     *model.Nodes
	engine  *layout.Engine
	history *zoom.History
	// historyLimit bounds the zoom history, 0 for unbounded
	historyLimit int

	dirty    bool
	laidOut  bool
	lastRect model.Rect

	updateDepth  int
	pendingDraw  bool
	pendingNav   bool
	pendingNodes bool

	listeners []func(Event)
}

// NewController creates a controller with an empty tree
func NewController(opts layout.Options, historyLimit int) (*Controller, error) {
	engine, err := layout.New(opts)
	if err != nil {
		return nil, err
	}
	c := &Controller{
		engine:       engine,
		historyLimit: max(historyLimit, 0),
		dirty:        true,
	}
	c.top = model.NewNodes(c)
	return c, nil
}

// Invalidate implements model.Owner
func (c *Controller) Invalidate() {
	c.dirty = true
	c.requestRedraw()
}

// Nodes returns the displayed top-level collection
func (c *Controller) Nodes() *model.Nodes { return c.top }

// Subscribe registers fn for every event. The returned function removes it.
func (c *Controller) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.listeners = append(c.listeners, fn)
	idx := len(c.listeners) - 1
	return func() {
		if idx < len(c.listeners) {
			c.listeners[idx] = nil
		}
	}
}

// BeginUpdate suppresses notifications until the matching EndUpdate
func (c *Controller) BeginUpdate() {
	c.updateDepth++
}

// EndUpdate closes a bracket opened by BeginUpdate. Closing the outermost
// bracket fires each pending notification once.
func (c *Controller) EndUpdate() error {
	if c.updateDepth == 0 {
		return fmt.Errorf("end update without begin update: %w", ErrInvalidOperation)
	}
	c.updateDepth--
	if c.updateDepth > 0 {
		return nil
	}

	if c.pendingNodes {
		c.pendingNodes = false
		c.emit(NodesChangedEvent{})
	}
	if c.pendingNav {
		c.pendingNav = false
		c.emit(NavigationChangedEvent{State: c.Navigation()})
	}
	if c.pendingDraw {
		c.pendingDraw = false
		c.emit(RedrawRequiredEvent{})
	}
	return nil
}

// InUpdate reports whether a BeginUpdate bracket is open
func (c *Controller) InUpdate() bool { return c.updateDepth > 0 }

// Options returns the layout settings
func (c *Controller) Options() layout.Options { return c.engine.Options() }

// SetOptions validates and applies new layout settings
func (c *Controller) SetOptions(opts layout.Options) error {
	engine, err := layout.New(opts)
	if err != nil {
		return err
	}
	c.engine = engine
	c.Invalidate()
	return nil
}

// Layout recomputes every rectangle when the tree changed or dest differs
// from the previous call. It reports whether a pass ran.
func (c *Controller) Layout(dest model.Rect) bool {
	if c.laidOut && !c.dirty && dest == c.lastRect {
		return false
	}
	c.engine.Layout(c.top, dest)
	c.dirty = false
	c.laidOut = true
	c.lastRect = dest
	logging.Debug.Debug("layout pass", "rect", dest, "top", c.top.Len())
	return true
}

// HitTest returns the innermost displayed node at the point, or nil
func (c *Controller) HitTest(x, y float64) *model.Node {
	return layout.HitTest(c.top, x, y)
}

// AddNode adds n below parent, or at the top level when parent is nil. A
// top-level add while zoomed returns to the original top level and drops the
// zoom history first.
func (c *Controller) AddNode(parent, n *model.Node) error {
	c.BeginUpdate()
	defer c.EndUpdate()

	if parent == nil {
		c.resetZoom()
		if err := c.top.Add(n); err != nil {
			return err
		}
	} else if err := parent.Nodes().Add(n); err != nil {
		return err
	}
	c.pendingNodes = true
	return nil
}

// RemoveNode detaches n from its parent or from the top level. Removing a
// node the current zoom goes through drops the zoom history first.
func (c *Controller) RemoveNode(n *model.Node) error {
	if n == nil {
		return fmt.Errorf("remove nil node: %w", model.ErrInvalidArgument)
	}

	c.BeginUpdate()
	defer c.EndUpdate()

	if c.history != nil && (n.Parent() == nil || slices.Contains(c.history.Path(), n)) {
		c.resetZoom()
	}

	removed := false
	if parent := n.Parent(); parent != nil {
		removed = parent.Nodes().Remove(n)
	} else {
		removed = c.top.Remove(n)
	}
	if !removed {
		return fmt.Errorf("remove %q: not in tree: %w", n.Text(), model.ErrInvalidArgument)
	}
	c.pendingNodes = true
	return nil
}

// Find returns the first node, in depth-first order from the original top
// level, whose tag equals tag
func (c *Controller) Find(tag any) *model.Node {
	var found *model.Node
	for _, root := range c.roots() {
		root.Walk(func(n *model.Node) bool {
			if found != nil {
				return false
			}
			if n.Tag() == tag {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// Clear removes every node and drops the zoom history
func (c *Controller) Clear() {
	c.BeginUpdate()
	defer c.EndUpdate()

	c.resetZoom()
	c.top.Clear()
	c.pendingNodes = true
}

// Replace swaps the whole tree for nodes, which must not belong to another
// collection
func (c *Controller) Replace(nodes []*model.Node, emptySpace float32) error {
	c.BeginUpdate()
	defer c.EndUpdate()

	c.resetZoom()
	c.top.Clear()
	c.pendingNodes = true
	for _, n := range nodes {
		if err := c.top.Add(n); err != nil {
			return err
		}
	}
	return c.top.EmptySpace().SetSizeMetric(emptySpace)
}

// SetZoomable switches zoom support on or off. Switching off returns to the
// original top level and discards the history.
func (c *Controller) SetZoomable(on bool) {
	if on == (c.history != nil) {
		return
	}

	c.BeginUpdate()
	defer c.EndUpdate()

	if on {
		c.history = zoom.New(c.top, c.historyLimit)
	} else {
		c.history.RestoreOriginal()
		c.history = nil
	}
	c.pendingNav = true
}

// IsZoomable reports whether zoom history is allocated
func (c *Controller) IsZoomable() bool { return c.history != nil }

func (c *Controller) CanZoomIn(n *model.Node) bool {
	return c.history != nil && c.history.CanZoomIn(n)
}

func (c *Controller) CanZoomOut() bool {
	return c.history != nil && c.history.CanZoomOut()
}

func (c *Controller) CanMoveBack() bool {
	return c.history != nil && c.history.CanMoveBack()
}

func (c *Controller) CanMoveForward() bool {
	return c.history != nil && c.history.CanMoveForward()
}

// ZoomIn shows n as the only top-level node
func (c *Controller) ZoomIn(n *model.Node) error {
	return c.navigate("zoom in", func(h *zoom.History) error { return h.ZoomIn(n) })
}

// ZoomOut shows one level above the zoomed node
func (c *Controller) ZoomOut() error {
	return c.navigate("zoom out", (*zoom.History).ZoomOut)
}

// MoveBack returns to the previous zoom state
func (c *Controller) MoveBack() error {
	return c.navigate("move back", (*zoom.History).MoveBack)
}

// MoveForward returns to the next zoom state
func (c *Controller) MoveForward() error {
	return c.navigate("move forward", (*zoom.History).MoveForward)
}

func (c *Controller) navigate(name string, op func(*zoom.History) error) error {
	if c.history == nil {
		return fmt.Errorf("%s: zooming is off: %w", name, ErrInvalidOperation)
	}

	c.BeginUpdate()
	defer c.EndUpdate()

	if err := op(c.history); err != nil {
		return err
	}
	c.pendingNav = true
	return nil
}

// Navigation returns the current zoom and history state
func (c *Controller) Navigation() NavigationState {
	if c.history == nil {
		return NavigationState{Index: -1}
	}
	return NavigationState{
		Zoomable:       true,
		CanZoomOut:     c.history.CanZoomOut(),
		CanMoveBack:    c.history.CanMoveBack(),
		CanMoveForward: c.history.CanMoveForward(),
		Path:           c.history.Path(),
		Index:          c.history.Index(),
		Len:            c.history.Len(),
	}
}

// roots returns the original top level, whether or not a zoom is active
func (c *Controller) roots() []*model.Node {
	if c.history != nil {
		if originals := c.history.Originals(); originals != nil && c.history.Zoomed() != nil {
			return originals
		}
	}
	return c.top.Items()
}

// resetZoom shows the original top level again and forgets the history
func (c *Controller) resetZoom() {
	if c.history == nil {
		return
	}
	hadHistory := c.history.Len() > 0
	c.history.RestoreOriginal()
	c.history.Clear()
	if hadHistory {
		c.pendingNav = true
	}
}

func (c *Controller) requestRedraw() {
	if c.updateDepth > 0 {
		c.pendingDraw = true
		return
	}
	c.emit(RedrawRequiredEvent{})
}

func (c *Controller) emit(event Event) {
	for _, fn := range c.listeners {
		if fn != nil {
			fn(event)
		}
	}
}
