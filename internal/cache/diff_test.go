package cache

import (
	"testing"

	"github.com/lumipallolabs/nestmap/internal/model"
)

func tagged(text, path string, size float32) *model.Node {
	n := model.MustNode(text, size, 0)
	n.SetTag(path)
	return n
}

func TestApplyDiff(t *testing.T) {
	prev := []*model.Node{
		tagged("old", "/data/old", 100),
		tagged("same", "/data/same", 200),
		tagged("shrunk", "/data/shrunk", 400),
	}

	same := tagged("same", "/data/same", 250)
	newNode := tagged("new", "/data/new", 300)
	shrunk := tagged("shrunk", "/data/shrunk", 100)
	curr := []*model.Node{same, newNode, shrunk}

	ApplyDiff(curr, prev)

	if same.ColorMetric() != 25 {
		t.Errorf("expected +25%% for same, got %v", same.ColorMetric())
	}
	if newNode.ColorMetric() != NewNodeChange {
		t.Errorf("expected new node at %v, got %v", float32(NewNodeChange), newNode.ColorMetric())
	}
	if shrunk.ColorMetric() != -75 {
		t.Errorf("expected -75%% for shrunk, got %v", shrunk.ColorMetric())
	}
}

func TestApplyDiffNestedAndClamped(t *testing.T) {
	prevDir := tagged("dir", "/d", 10)
	prevDir.Nodes().Add(tagged("f", "/d/f", 10))

	dir := tagged("dir", "/d", 1000)
	f := tagged("f", "/d/f", 10)
	dir.Nodes().Add(f)

	ApplyDiff([]*model.Node{dir}, []*model.Node{prevDir})

	if dir.ColorMetric() != 100 {
		t.Errorf("growth should clamp at 100, got %v", dir.ColorMetric())
	}
	if f.ColorMetric() != 0 {
		t.Errorf("unchanged child should be 0, got %v", f.ColorMetric())
	}
}

func TestApplyDiffWithoutPrevious(t *testing.T) {
	n := tagged("a", "/a", 1)
	ApplyDiff([]*model.Node{n}, nil)
	if n.ColorMetric() != NewNodeChange {
		t.Errorf("expected every node to count as new, got %v", n.ColorMetric())
	}
}
