package ui

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/lumipallolabs/nestmap/internal/core"
	"github.com/lumipallolabs/nestmap/internal/model"
)

var (
	colorSelected = string(ColorPrimary)
	// borders are the fill color pulled towards black
	borderShade = colorful.Color{}
)

// TreemapPanel draws the controller's top level and its nested children.
// Selection points at a node of the selectable level: the top level, or the
// children of the top-level node when it is alone there. Arrow keys move it
// by probing the neighborhood with hit tests.
type TreemapPanel struct {
	ctrl        *core.Controller
	palette     Palette
	unsubscribe func()

	selected *model.Node
	width    int
	height   int

	// Render cache
	cachedView string
	cacheValid bool
}

// NewTreemapPanel creates a panel drawing ctrl's nodes. It listens to the
// controller to know when the cached view is stale.
func NewTreemapPanel(ctrl *core.Controller, palette Palette) *TreemapPanel {
	t := &TreemapPanel{ctrl: ctrl, palette: palette}
	t.unsubscribe = ctrl.Subscribe(t.handleEvent)
	return t
}

func (t *TreemapPanel) handleEvent(e core.Event) {
	switch e.(type) {
	case core.RedrawRequiredEvent:
		t.cacheValid = false
	case core.NodesChangedEvent, core.NavigationChangedEvent:
		t.cacheValid = false
		if !t.isDisplayed(t.selected) {
			t.selected = nil
		}
	}
}

// Close stops listening to the controller
func (t *TreemapPanel) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

// SetSize sets the panel dimensions in cells
func (t *TreemapPanel) SetSize(w, h int) {
	if t.width != w || t.height != h {
		t.width = w
		t.height = h
		t.cacheValid = false
	}
}

// Size returns the panel dimensions in cells
func (t *TreemapPanel) Size() (w, h int) { return t.width, t.height }

// InvalidateCache marks the render cache as invalid
func (t *TreemapPanel) InvalidateCache() {
	t.cacheValid = false
}

// Bounds is the layout rectangle in pixels
func (t *TreemapPanel) Bounds() model.Rect {
	return model.Rect{W: float64(t.width * cellWidthPx), H: float64(t.height * cellHeightPx)}
}

// Layout brings the node rectangles up to date with the panel size
func (t *TreemapPanel) Layout() {
	if t.width < 1 || t.height < 1 {
		return
	}
	if t.ctrl.Layout(t.Bounds()) {
		t.cacheValid = false
	}
	if t.selected == nil || !t.selected.IsDrawn() {
		t.SelectFirst()
	}
}

// Selected returns the selected node, nil when nothing is drawn
func (t *TreemapPanel) Selected() *model.Node {
	return t.selected
}

// SetSelected selects n, or its ancestor on the selectable level
func (t *TreemapPanel) SetSelected(n *model.Node) {
	if sel := t.selectable(n); sel != nil {
		t.selected = sel
		t.cacheValid = false
	}
}

// SelectFirst selects the first drawn node of the selectable level
func (t *TreemapPanel) SelectFirst() {
	t.selected = nil
	nodes, _ := t.level()
	for n := range nodes.All() {
		if n.IsDrawn() {
			t.selected = n
			break
		}
	}
	t.cacheValid = false
}

// SelectAt selects the node under a cell. It reports whether the selection
// changed.
func (t *TreemapPanel) SelectAt(col, row int) bool {
	x := (float64(col) + 0.5) * cellWidthPx
	y := (float64(row) + 0.5) * cellHeightPx
	sel := t.selectable(t.ctrl.HitTest(x, y))
	if sel == nil || sel == t.selected {
		return false
	}
	t.selected = sel
	t.cacheValid = false
	return true
}

// MoveSelection moves the selection to the nearest selectable node in the
// direction (dx, dy), probing cell by cell from the edge of the current one
func (t *TreemapPanel) MoveSelection(dx, dy int) bool {
	if t.selected == nil {
		t.SelectFirst()
		return t.selected != nil
	}

	r := t.selected.Rectangle()
	x, y := r.X+r.W/2, r.Y+r.H/2
	switch {
	case dx > 0:
		x = r.Right() + cellWidthPx/2
	case dx < 0:
		x = r.X - cellWidthPx/2
	case dy > 0:
		y = r.Bottom() + cellHeightPx/2
	case dy < 0:
		y = r.Y - cellHeightPx/2
	}

	bounds := t.Bounds()
	for bounds.Contains(x, y) {
		if sel := t.selectable(t.ctrl.HitTest(x, y)); sel != nil && sel != t.selected {
			t.selected = sel
			t.cacheValid = false
			return true
		}
		x += float64(dx * cellWidthPx)
		y += float64(dy * cellHeightPx)
	}
	return false
}

// level returns the selectable nodes and their parent, nil at the top level
func (t *TreemapPanel) level() (*model.Nodes, *model.Node) {
	top := t.ctrl.Nodes()
	if top.Len() == 1 {
		if only := top.At(0); only.Nodes().Len() > 0 {
			return only.Nodes(), only
		}
	}
	return top, nil
}

func (t *TreemapPanel) isDisplayed(n *model.Node) bool {
	nodes, _ := t.level()
	return n != nil && nodes.Contains(n)
}

// selectable walks up from n to its ancestor on the selectable level
func (t *TreemapPanel) selectable(n *model.Node) *model.Node {
	_, parent := t.level()
	for n != nil && n.Parent() != parent {
		n = n.Parent()
	}
	return n
}

// View renders the treemap
func (t *TreemapPanel) View() string {
	t.Layout()
	if t.cacheValid {
		return t.cachedView
	}
	t.cachedView = t.paint().Render()
	t.cacheValid = true
	return t.cachedView
}

// paint draws every visible node onto a fresh canvas, parents first
func (t *TreemapPanel) paint() *canvas {
	c := newCanvas(t.width, t.height)
	var visit func(nodes *model.Nodes)
	visit = func(nodes *model.Nodes) {
		for n := range nodes.All() {
			if !n.IsDrawn() {
				continue
			}
			t.paintNode(c, n)
			visit(n.Nodes())
		}
	}
	visit(t.ctrl.Nodes())

	if t.selected != nil && t.selected.IsDrawn() {
		if r := toCells(t.selected.Rectangle()); r.w >= 2 && r.h >= 2 {
			c.box(r, colorSelected, true)
		}
	}
	return c
}

func (t *TreemapPanel) paintNode(c *canvas, n *model.Node) {
	r := toCells(n.Rectangle())
	if r.empty() {
		return
	}
	fill := t.palette.Fill(n)
	c.fill(r, fill.Hex())

	labelX, labelY, labelW := r.x, r.y, r.w
	if r.w >= 2 && r.h >= 2 && n.PenWidthPx() > 0 {
		c.box(r, fill.BlendLab(borderShade, 0.45).Clamped().Hex(), false)
		labelX, labelW = r.x+1, r.w-2
		if r.h > 2 {
			labelY = r.y + 1
		}
	}
	if labelW < 1 {
		return
	}
	c.text(labelX, labelY, labelW, label(n, labelW), textOn(fill).Hex(), n == t.selected)
}

// label is the node text, followed by its size when both fit
func label(n *model.Node, width int) string {
	text := n.Text()
	withSize := text + " " + FormatSize(int64(n.SizeMetric()))
	if len([]rune(withSize)) <= width {
		return withSize
	}
	return text
}
