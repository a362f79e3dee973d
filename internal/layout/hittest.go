package layout

import "github.com/lumipallolabs/nestmap/internal/model"

// HitTest returns the innermost node whose current rectangle contains the
// point, or nil
func HitTest(top *model.Nodes, x, y float64) *model.Node {
	for n := range top.All() {
		if !n.Rectangle().Contains(x, y) {
			continue
		}
		if inner := HitTest(n.Nodes(), x, y); inner != nil {
			return inner
		}
		return n
	}
	return nil
}

// Drawn returns every node with a visible rectangle at the given depth below
// top (0 is the top level), in insertion order
func Drawn(top *model.Nodes, depth int) []*model.Node {
	var out []*model.Node
	var visit func(nodes *model.Nodes, level int)
	visit = func(nodes *model.Nodes, level int) {
		for n := range nodes.All() {
			if !n.IsDrawn() {
				continue
			}
			if level == depth {
				out = append(out, n)
				continue
			}
			visit(n.Nodes(), level+1)
		}
	}
	visit(top, 0)
	return out
}
