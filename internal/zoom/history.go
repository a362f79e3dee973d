// Package zoom tracks which subtree is shown at the top level and lets the
// caller step back and forth through earlier zoom states.
package zoom

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lumipallolabs/nestmap/internal/history"
	"github.com/lumipallolabs/nestmap/internal/logging"
	"github.com/lumipallolabs/nestmap/internal/model"
)

// ErrInvalidOperation is returned when a navigation call is not allowed in the
// current state
var ErrInvalidOperation = errors.New("invalid operation")

// History replaces the members of a top-level collection as the user zooms.
// The original top-level set is captured on the first zoom and kept until
// Clear.
type History struct {
	top     *model.Nodes
	actions *history.List[Action]

	originals     []*model.Node
	originalEmpty float32
}

// New creates a history driving top. A positive limit bounds the number of
// recorded actions.
func New(top *model.Nodes, limit int) *History {
	return &History{
		top:     top,
		actions: history.NewBounded[Action](limit),
	}
}

// CanZoomIn is false only when n is already the sole top-level node
func (h *History) CanZoomIn(n *model.Node) bool {
	return !(h.top.Len() == 1 && h.top.At(0) == n)
}

// CanZoomOut reports whether ZoomOut has a parent level to show
func (h *History) CanZoomOut() bool {
	cur, ok := h.current()
	return ok && cur.canZoomOut(len(h.originals))
}

// CanMoveBack reports whether there is an action to undo
func (h *History) CanMoveBack() bool { return h.actions.CanMoveBack() }

// CanMoveForward reports whether there is an undone action to redo
func (h *History) CanMoveForward() bool { return h.actions.CanMoveForward() }

// ZoomIn shows n as the only top-level node
func (h *History) ZoomIn(n *model.Node) error {
	if n == nil {
		return fmt.Errorf("zoom into nil node: %w", model.ErrInvalidArgument)
	}
	if !h.CanZoomIn(n) {
		return fmt.Errorf("zoom into %q: already shown: %w", n.Text(), ErrInvalidOperation)
	}

	action := Action{Zoomed: n, ParentOfZoomed: n.Parent()}
	cur, ok := h.current()

	switch {
	case !ok || h.top.Len() != 1 || (cur.ParentOfZoomed == nil && len(h.originals) <= 1):
		h.captureOriginals()
		action.Kind = FromTopLevel
	case cur.ParentOfZoomed == nil:
		action.Kind = FromOneTopLevelNode
		action.Origin = h.top.At(0)
	default:
		shown := h.top.At(0)
		if err := shown.SetParent(cur.ParentOfZoomed); err != nil {
			return err
		}
		action.Kind = FromInnerNode
		action.Origin = shown
		action.OriginParent = cur.ParentOfZoomed
	}

	h.top.Reset([]*model.Node{n}, 0)
	h.actions.Insert(action)
	logging.Debug.Debug("zoom in", "action", action, "index", h.actions.Index())
	return nil
}

// ZoomOut shows the parent of the zoomed node, or the original top-level set
// when the zoomed node is an original top-level node
func (h *History) ZoomOut() error {
	if !h.CanZoomOut() {
		return fmt.Errorf("zoom out: %w", ErrInvalidOperation)
	}
	cur, _ := h.current()
	shown := cur.Zoomed

	var action Action
	if parent := cur.ParentOfZoomed; parent != nil {
		action = Action{
			Kind:           FromInnerNode,
			Zoomed:         parent,
			ParentOfZoomed: parent.Parent(),
			Origin:         shown,
			OriginParent:   parent,
		}
		if err := shown.SetParent(parent); err != nil {
			return err
		}
		h.top.Reset([]*model.Node{parent}, 0)
	} else {
		action = Action{Kind: FromOneTopLevelNode, Origin: shown}
		h.top.Reset(h.originals, h.originalEmpty)
	}

	h.actions.Insert(action)
	logging.Debug.Debug("zoom out", "action", action, "index", h.actions.Index())
	return nil
}

// MoveBack undoes the current action
func (h *History) MoveBack() error {
	a, ok := h.actions.MoveBack()
	if !ok {
		return fmt.Errorf("move back: %w", ErrInvalidOperation)
	}
	h.undo(a)
	logging.Debug.Debug("move back", "action", a, "index", h.actions.Index())
	return nil
}

// MoveForward redoes the next action
func (h *History) MoveForward() error {
	a, ok := h.actions.MoveForward()
	if !ok {
		return fmt.Errorf("move forward: %w", ErrInvalidOperation)
	}
	h.redo(a)
	logging.Debug.Debug("move forward", "action", a, "index", h.actions.Index())
	return nil
}

func (h *History) undo(a Action) {
	if a.Zoomed != nil {
		_ = a.Zoomed.SetParent(a.ParentOfZoomed)
	}
	switch a.Kind {
	case FromTopLevel:
		h.top.Reset(h.originals, h.originalEmpty)
	default:
		h.top.Reset([]*model.Node{a.Origin}, 0)
	}
}

func (h *History) redo(a Action) {
	if a.Kind == FromInnerNode {
		_ = a.Origin.SetParent(a.OriginParent)
	}
	if a.Zoomed == nil {
		h.top.Reset(h.originals, h.originalEmpty)
		return
	}
	h.top.Reset([]*model.Node{a.Zoomed}, 0)
}

// RestoreOriginal shows the original top-level set again and repairs the
// parent link of the zoomed node. Records are kept; callers repopulating the
// tree follow up with Clear.
func (h *History) RestoreOriginal() {
	if h.originals == nil {
		return
	}
	if cur, ok := h.current(); ok && cur.Zoomed != nil {
		_ = cur.Zoomed.SetParent(cur.ParentOfZoomed)
		h.top.Reset(h.originals, h.originalEmpty)
	}
}

// Clear drops every record and forgets the original top-level set
func (h *History) Clear() {
	h.actions.Clear()
	h.originals = nil
	h.originalEmpty = 0
}

// Zoomed returns the node currently zoomed into, or nil at the original top level
func (h *History) Zoomed() *model.Node {
	if cur, ok := h.current(); ok {
		return cur.Zoomed
	}
	return nil
}

// Path returns the real ancestors of the zoomed node followed by the node
// itself, outermost first
func (h *History) Path() []*model.Node {
	cur, ok := h.current()
	if !ok || cur.Zoomed == nil {
		return nil
	}
	path := []*model.Node{cur.Zoomed}
	for p := cur.ParentOfZoomed; p != nil; p = p.Parent() {
		path = append(path, p)
	}
	slices.Reverse(path)
	return path
}

// Originals returns the captured original top-level set, nil before the
// first zoom
func (h *History) Originals() []*model.Node { return slices.Clone(h.originals) }

// Len returns the number of recorded actions
func (h *History) Len() int { return h.actions.Len() }

// Index returns the position of the current action, -1 before any action
func (h *History) Index() int { return h.actions.Index() }

// current returns the action whose result is shown. Before the first kept
// action that is the newest record the bound dropped, if any.
func (h *History) current() (Action, bool) {
	if a, ok := h.actions.Current(); ok {
		return a, true
	}
	return h.actions.Dropped()
}

func (h *History) captureOriginals() {
	if h.originals != nil {
		return
	}
	h.originals = h.top.Items()
	h.originalEmpty = h.top.EmptySpace().SizeMetric()
}
