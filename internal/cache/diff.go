package cache

import "github.com/lumipallolabs/nestmap/internal/model"

// NewNodeChange is the color metric given to nodes missing from the previous
// snapshot
const NewNodeChange = 100

// ApplyDiff sets every current node's color metric to its size change in
// percent against the previous snapshot, clamped to [-100, 100]. Nodes are
// matched by the path stored in their tag. With no previous snapshot every
// node counts as new.
func ApplyDiff(current, previous []*model.Node) {
	prevMap := make(map[string]*model.Node)
	for _, n := range previous {
		buildPathMap(n, prevMap)
	}
	for _, n := range current {
		applyDiffRecursive(n, prevMap)
	}
}

func buildPathMap(node *model.Node, m map[string]*model.Node) {
	if path, ok := node.Tag().(string); ok {
		m[path] = node
	}
	for child := range node.Nodes().All() {
		buildPathMap(child, m)
	}
}

func applyDiffRecursive(node *model.Node, prevMap map[string]*model.Node) {
	change := float32(NewNodeChange)
	if path, ok := node.Tag().(string); ok {
		if prev, exists := prevMap[path]; exists {
			change = percentChange(prev.SizeMetric(), node.SizeMetric())
		}
	}
	// Always a finite number, so this can't fail
	_ = node.SetColorMetric(change)

	for child := range node.Nodes().All() {
		applyDiffRecursive(child, prevMap)
	}
}

func percentChange(prev, cur float32) float32 {
	switch {
	case prev == cur:
		return 0
	case prev == 0:
		return NewNodeChange
	}
	pct := (cur - prev) / prev * 100
	return min(max(pct, -100), 100)
}
