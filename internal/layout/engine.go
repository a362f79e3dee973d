// Package layout computes squarified treemap rectangles for a node tree.
//
// The engine walks the tree top down. For each sibling collection it sorts the
// siblings by weight, builds rows greedily so every rectangle stays as close to
// square as the row allows, then recurses into each child inside its own
// rectangle shrunk by the pen width, padding and text band of that level.
package layout

import (
	"math"

	"github.com/lumipallolabs/nestmap/internal/model"
)

// Engine lays out node trees. The two variants share every step except the
// edge that rows and row members accumulate from.
type Engine struct {
	opts Options
}

// New creates an engine after validating opts
func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts}, nil
}

// ComputeLayout is a one-shot helper around New and Layout
func ComputeLayout(top *model.Nodes, dest model.Rect, opts Options) error {
	e, err := New(opts)
	if err != nil {
		return err
	}
	e.Layout(top, dest)
	return nil
}

// Options returns the engine settings
func (e *Engine) Options() Options { return e.opts }

// Layout sets the rectangle and pen width of every node in top and below
func (e *Engine) Layout(top *model.Nodes, dest model.Rect) {
	e.layoutLevel(top, dest, e.opts.PaddingPx, e.opts.PenWidthPx)
}

// item is one entry of the row builder; node is nil for the empty space
type item struct {
	node   *model.Node
	weight float64
	rect   model.Rect
}

func (e *Engine) layoutLevel(nodes *model.Nodes, rect model.Rect, paddingPx, penWidthPx int) {
	emptySpace := nodes.EmptySpace()
	emptySpace.SetRectangle(model.EmptyRect)

	if nodes.Len() == 0 {
		return
	}

	total := nodes.TotalWeight()
	if total <= 0 || rect.IsEmpty() {
		emptyNodes(nodes)
		return
	}

	sorted := nodes.SortedBySize()
	areaPerWeight := rect.Area() / total
	emptyWeight := float64(emptySpace.SizeMetric())

	if emptyWeight > 0 && e.opts.EmptySpace == EmptySpaceTop {
		band := areaPerWeight * emptyWeight / rect.W
		if band >= rect.H {
			emptySpace.SetRectangle(rect)
			emptyNodes(nodes)
			return
		}
		emptySpace.SetRectangle(model.Rect{X: rect.X, Y: rect.Y, W: rect.W, H: band})
		rect.Y += band
		rect.H -= band
		emptyWeight = 0
	}

	items := make([]item, 0, len(sorted)+1)
	emptyPlaced := emptyWeight <= 0
	for _, n := range sorted {
		w := float64(n.SizeMetric())
		if !emptyPlaced && emptyWeight > w {
			items = append(items, item{weight: emptyWeight})
			emptyPlaced = true
		}
		if w == 0 {
			emptySubtree(n)
			continue
		}
		items = append(items, item{node: n, weight: w})
	}
	if !emptyPlaced {
		items = append(items, item{weight: emptyWeight})
	}

	e.squarify(items, rect, areaPerWeight)

	for i := range items {
		it := &items[i]
		if it.node == nil {
			emptySpace.SetRectangle(it.rect)
			continue
		}
		e.placeNode(it.node, it.rect, paddingPx, penWidthPx)
	}
}

// placeNode stores a row result and recurses into the node's children
func (e *Engine) placeNode(n *model.Node, r model.Rect, paddingPx, penWidthPx int) {
	if r.IsDegenerate() {
		emptySubtree(n)
		return
	}
	n.SetRectangle(r)
	n.SetPenWidthPx(penWidthPx)

	children := n.Nodes()
	if children.Len() == 0 {
		return
	}

	inset := float64(penWidthPx + paddingPx)
	top := inset
	if e.opts.Text == TextTop {
		top += e.opts.TextSpacePx
	}
	interior := r.Inset(inset, top, inset, inset)
	if interior.IsDegenerate() {
		// The node stays drawn; only its subtree has no room
		emptyNodes(children)
		return
	}

	e.layoutLevel(children, interior,
		nextLevel(paddingPx, e.opts.PaddingDecrementPerLevelPx),
		nextLevel(penWidthPx, e.opts.PenWidthDecrementPerLevelPx))
}

// squarify assigns a rectangle to every item, building rows greedily. A
// candidate joins the row while its aspect ratio is no worse than the row's
// best so far; ties keep adding.
func (e *Engine) squarify(items []item, rect model.Rect, areaPerWeight float64) {
	saved := make([]model.Rect, 0, len(items))

	start := 0
	for start < len(items) {
		if rect.IsEmpty() {
			for i := start; i < len(items); i++ {
				items[i].rect = model.EmptyRect
			}
			return
		}

		vertical := rect.W >= rect.H
		best := math.Inf(1)
		rowWeight := 0.0
		end := start

		for end < len(items) {
			candidateWeight := rowWeight + items[end].weight
			e.placeRow(items[start:end+1], candidateWeight, rect, areaPerWeight, vertical, false)

			ratio := items[end].rect.AspectRatio()
			if ratio > best {
				// Regressed: put the committed members back
				for i, r := range saved {
					items[start+i].rect = r
				}
				break
			}

			best = ratio
			rowWeight = candidateWeight
			end++
			saved = saved[:0]
			for i := start; i < end; i++ {
				saved = append(saved, items[i].rect)
			}
		}

		last := end == len(items)
		thickness := e.placeRow(items[start:end], rowWeight, rect, areaPerWeight, vertical, last)
		rect = e.remaining(rect, thickness, vertical)
		saved = saved[:0]
		start = end
	}
}

// placeRow lays row out as one strip of rect and returns the strip thickness.
// With fill set the strip takes the whole remaining rectangle, which absorbs
// rounding drift on the final row.
func (e *Engine) placeRow(row []item, rowWeight float64, rect model.Rect, areaPerWeight float64, vertical, fill bool) float64 {
	rowArea := areaPerWeight * rowWeight
	trailing := e.opts.Variant == BottomWeighted

	var thickness, length float64
	if vertical {
		length = rect.H
		thickness = rowArea / length
		if fill {
			thickness = rect.W
		}
	} else {
		length = rect.W
		thickness = rowArea / length
		if fill {
			thickness = rect.H
		}
	}

	cumulative := 0.0
	for i := range row {
		from := length * cumulative / rowWeight
		cumulative += row[i].weight
		to := length * cumulative / rowWeight
		if i == len(row)-1 {
			to = length
		}

		var r model.Rect
		if vertical {
			r = model.Rect{X: rect.X, Y: rect.Y + from, W: thickness, H: to - from}
			if trailing {
				r.X = rect.Right() - thickness
				r.Y = rect.Bottom() - to
			}
		} else {
			r = model.Rect{X: rect.X + from, Y: rect.Y, W: to - from, H: thickness}
			if trailing {
				r.X = rect.Right() - to
				r.Y = rect.Bottom() - thickness
			}
		}
		row[i].rect = r
	}
	return thickness
}

// remaining returns the part of rect a closed strip did not consume
func (e *Engine) remaining(rect model.Rect, thickness float64, vertical bool) model.Rect {
	trailing := e.opts.Variant == BottomWeighted
	if vertical {
		rect.W -= thickness
		if !trailing {
			rect.X += thickness
		}
	} else {
		rect.H -= thickness
		if !trailing {
			rect.Y += thickness
		}
	}
	if rect.W < 0 {
		rect.W = 0
	}
	if rect.H < 0 {
		rect.H = 0
	}
	return rect
}

// emptyNodes empties every node of a collection and everything below it
func emptyNodes(nodes *model.Nodes) {
	nodes.EmptySpace().SetRectangle(model.EmptyRect)
	for n := range nodes.All() {
		emptySubtree(n)
	}
}

func emptySubtree(n *model.Node) {
	n.SetRectangle(model.EmptyRect)
	n.SetPenWidthPx(0)
	emptyNodes(n.Nodes())
}
