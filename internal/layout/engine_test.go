package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/jeffwilliams/squarify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumipallolabs/nestmap/internal/model"
)

const eps = 1e-6

func flatOptions(v Variant) Options {
	return Options{
		Variant:    v,
		EmptySpace: EmptySpaceByAlgorithm,
		Text:       TextCenter,
	}
}

func buildTop(t *testing.T, sizes ...float32) (*model.Nodes, []*model.Node) {
	t.Helper()
	top := model.NewNodes(nil)
	nodes := make([]*model.Node, 0, len(sizes))
	for i, s := range sizes {
		n, err := top.AddNew(fmt.Sprintf("n%d", i), s, 0)
		require.NoError(t, err)
		nodes = append(nodes, n)
	}
	return top, nodes
}

func assertRect(t *testing.T, want, got model.Rect, name string) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "%s X", name)
	assert.InDelta(t, want.Y, got.Y, eps, "%s Y", name)
	assert.InDelta(t, want.W, got.W, eps, "%s W", name)
	assert.InDelta(t, want.H, got.H, eps, "%s H", name)
}

// assertTiles checks that the rectangles stay inside bounds, don't overlap and
// cover the expected area
func assertTiles(t *testing.T, bounds model.Rect, rects []model.Rect, wantArea float64) {
	t.Helper()
	var total float64
	for i, r := range rects {
		assert.GreaterOrEqual(t, r.X, bounds.X-eps, "rect %d left", i)
		assert.GreaterOrEqual(t, r.Y, bounds.Y-eps, "rect %d top", i)
		assert.LessOrEqual(t, r.Right(), bounds.Right()+eps, "rect %d right", i)
		assert.LessOrEqual(t, r.Bottom(), bounds.Bottom()+eps, "rect %d bottom", i)
		total += r.Area()
		for j := i + 1; j < len(rects); j++ {
			assert.False(t, r.Intersects(rects[j], eps), "rects %d and %d overlap: %+v %+v", i, j, r, rects[j])
		}
	}
	assert.InDelta(t, wantArea, total, 1e-3)
}

func TestThreeSiblingsTileSquare(t *testing.T) {
	tests := []struct {
		variant Variant
		want    []model.Rect
	}{
		{
			variant: TopWeighted,
			want: []model.Rect{
				{X: 0, Y: 0, W: 60, H: 100},
				{X: 60, Y: 0, W: 40, H: 75},
				{X: 60, Y: 75, W: 40, H: 25},
			},
		},
		{
			variant: BottomWeighted,
			want: []model.Rect{
				{X: 40, Y: 0, W: 60, H: 100},
				{X: 0, Y: 25, W: 40, H: 75},
				{X: 0, Y: 0, W: 40, H: 25},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			top, nodes := buildTop(t, 60, 30, 10)
			bounds := model.Rect{W: 100, H: 100}
			require.NoError(t, ComputeLayout(top, bounds, flatOptions(tt.variant)))

			var rects []model.Rect
			for i, n := range nodes {
				assertRect(t, tt.want[i], n.Rectangle(), n.Text())
				rects = append(rects, n.Rectangle())
			}
			assert.InDelta(t, 6000, nodes[0].Rectangle().Area(), eps)
			assert.InDelta(t, 3000, nodes[1].Rectangle().Area(), eps)
			assert.InDelta(t, 1000, nodes[2].Rectangle().Area(), eps)
			assertTiles(t, bounds, rects, 10000)
		})
	}
}

func TestAreaProportionality(t *testing.T) {
	weights := []float32{500, 433, 301, 300, 120, 97, 64, 64, 33, 12, 9}
	var total float64
	for _, w := range weights {
		total += float64(w)
	}

	for _, variant := range []Variant{BottomWeighted, TopWeighted} {
		for _, bounds := range []model.Rect{
			{W: 800, H: 600},
			{X: 13, Y: 7, W: 300, H: 900},
			{W: 1000, H: 1000},
		} {
			name := fmt.Sprintf("%s/%vx%v", variant, bounds.W, bounds.H)
			t.Run(name, func(t *testing.T) {
				top, nodes := buildTop(t, weights...)
				require.NoError(t, ComputeLayout(top, bounds, flatOptions(variant)))

				var rects []model.Rect
				for _, n := range nodes {
					want := float64(n.SizeMetric()) / total * bounds.Area()
					assert.InDelta(t, want, n.Rectangle().Area(), want*1e-9+1e-6, n.Text())
					rects = append(rects, n.Rectangle())
				}
				assertTiles(t, bounds, rects, bounds.Area())
			})
		}
	}
}

func TestEqualAspectRatioKeepsAddingToRow(t *testing.T) {
	top, nodes := buildTop(t, 1, 1)
	require.NoError(t, ComputeLayout(top, model.Rect{W: 100, H: 100}, flatOptions(TopWeighted)))

	// The second node ties the first one's aspect ratio, so both share one strip
	assertRect(t, model.Rect{X: 0, Y: 0, W: 100, H: 50}, nodes[0].Rectangle(), "first")
	assertRect(t, model.Rect{X: 0, Y: 50, W: 100, H: 50}, nodes[1].Rectangle(), "second")
}

func TestZeroWeightSiblingsAreEmpty(t *testing.T) {
	top, nodes := buildTop(t, 50, 0, 50)
	_, err := nodes[1].Nodes().AddNew("hidden child", 10, 0)
	require.NoError(t, err)

	bounds := model.Rect{W: 100, H: 50}
	require.NoError(t, ComputeLayout(top, bounds, flatOptions(TopWeighted)))

	assert.True(t, nodes[1].Rectangle().IsEmpty())
	assert.True(t, nodes[1].Nodes().At(0).Rectangle().IsEmpty())
	assertTiles(t, bounds, []model.Rect{nodes[0].Rectangle(), nodes[2].Rectangle()}, 5000)
}

func TestAllZeroWeightsEmptyEverything(t *testing.T) {
	for _, bounds := range []model.Rect{{W: 1, H: 1}, {W: 640, H: 480}, {W: 1e6, H: 3}} {
		top, nodes := buildTop(t, 0, 0, 0)
		child, err := nodes[0].Nodes().AddNew("child", 0, 0)
		require.NoError(t, err)
		_, err = child.Nodes().AddNew("grandchild", 0, 0)
		require.NoError(t, err)

		// Stale rectangles from an earlier pass must be cleared too
		nodes[0].SetRectangle(model.Rect{W: 5, H: 5})

		opts := DefaultOptions()
		require.NoError(t, ComputeLayout(top, bounds, opts))

		for _, n := range nodes {
			n.Walk(func(n *model.Node) bool {
				assert.True(t, n.Rectangle().IsEmpty(), "%s should be empty in %+v", n.Text(), bounds)
				return true
			})
		}
	}
}

func TestEmptySpaceAtTop(t *testing.T) {
	top, nodes := buildTop(t, 30, 30)
	require.NoError(t, top.EmptySpace().SetSizeMetric(40))

	opts := flatOptions(TopWeighted)
	opts.EmptySpace = EmptySpaceTop
	bounds := model.Rect{W: 100, H: 100}
	require.NoError(t, ComputeLayout(top, bounds, opts))

	assertRect(t, model.Rect{X: 0, Y: 0, W: 100, H: 40}, top.EmptySpace().Rectangle(), "empty space")
	for _, n := range nodes {
		assert.GreaterOrEqual(t, n.Rectangle().Y, 40-eps, n.Text())
		assert.InDelta(t, 3000, n.Rectangle().Area(), eps, n.Text())
	}
}

func TestEmptySpaceCollapsesRectangle(t *testing.T) {
	top, nodes := buildTop(t, 0.0001)
	require.NoError(t, top.EmptySpace().SetSizeMetric(1e6))

	opts := flatOptions(TopWeighted)
	opts.EmptySpace = EmptySpaceTop
	require.NoError(t, ComputeLayout(top, model.Rect{W: 10, H: 10}, opts))

	assert.True(t, nodes[0].Rectangle().IsEmpty())
}

func TestEmptySpaceByAlgorithm(t *testing.T) {
	top, nodes := buildTop(t, 50, 25)
	require.NoError(t, top.EmptySpace().SetSizeMetric(25))

	bounds := model.Rect{W: 200, H: 100}
	require.NoError(t, ComputeLayout(top, bounds, flatOptions(BottomWeighted)))

	rects := []model.Rect{nodes[0].Rectangle(), nodes[1].Rectangle(), top.EmptySpace().Rectangle()}
	assert.InDelta(t, 5000, rects[2].Area(), eps)
	assertTiles(t, bounds, rects, bounds.Area())
}

func TestNestedPaddingAndPenWidth(t *testing.T) {
	top := model.NewNodes(nil)
	p, err := top.AddNew("p", 100, 0)
	require.NoError(t, err)
	c, err := p.Nodes().AddNew("c", 100, 0)
	require.NoError(t, err)
	g, err := c.Nodes().AddNew("g", 100, 0)
	require.NoError(t, err)
	gg, err := g.Nodes().AddNew("gg", 100, 0)
	require.NoError(t, err)

	opts := Options{
		Variant:                     TopWeighted,
		Text:                        TextTop,
		TextSpacePx:                 10,
		PaddingPx:                   5,
		PaddingDecrementPerLevelPx:  1,
		PenWidthPx:                  3,
		PenWidthDecrementPerLevelPx: 1,
	}
	require.NoError(t, ComputeLayout(top, model.Rect{W: 200, H: 200}, opts))

	assertRect(t, model.Rect{X: 0, Y: 0, W: 200, H: 200}, p.Rectangle(), "p")
	// pen 3 + padding 5 on each side, plus the text band on top
	assertRect(t, model.Rect{X: 8, Y: 18, W: 184, H: 174}, c.Rectangle(), "c")
	// pen 2 + padding 4
	assertRect(t, model.Rect{X: 14, Y: 34, W: 172, H: 152}, g.Rectangle(), "g")

	assert.Equal(t, 3, p.PenWidthPx())
	assert.Equal(t, 2, c.PenWidthPx())
	assert.Equal(t, 1, g.PenWidthPx())
	assert.Equal(t, 1, gg.PenWidthPx(), "pen width floors at 1px")
}

func TestTinyParentKeepsItselfButEmptiesChildren(t *testing.T) {
	top, nodes := buildTop(t, 1)
	_, err := nodes[0].Nodes().AddNew("child", 1, 0)
	require.NoError(t, err)

	require.NoError(t, ComputeLayout(top, model.Rect{W: 10, H: 10}, DefaultOptions()))

	assert.False(t, nodes[0].Rectangle().IsEmpty(), "parent should stay drawn")
	assert.True(t, nodes[0].Nodes().At(0).Rectangle().IsEmpty(), "child has no room")
}

func TestDegenerateSiblingIsEmptied(t *testing.T) {
	top, nodes := buildTop(t, 1000, 1)
	bounds := model.Rect{W: 10, H: 10}
	require.NoError(t, ComputeLayout(top, bounds, flatOptions(TopWeighted)))

	assert.False(t, nodes[0].Rectangle().IsEmpty())
	assert.True(t, nodes[1].Rectangle().IsEmpty(), "a 0.1 unit rectangle is not drawn")
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"padding", func(o *Options) { o.PaddingPx = 101 }},
		{"negative padding", func(o *Options) { o.PaddingPx = -1 }},
		{"padding decrement", func(o *Options) { o.PaddingDecrementPerLevelPx = 100 }},
		{"pen width", func(o *Options) { o.PenWidthPx = 101 }},
		{"pen decrement", func(o *Options) { o.PenWidthDecrementPerLevelPx = -2 }},
		{"variant", func(o *Options) { o.Variant = Variant(7) }},
		{"text space", func(o *Options) { o.TextSpacePx = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := New(opts)
			assert.ErrorIs(t, err, model.ErrInvalidArgument)
		})
	}
}

func TestHitTestFindsInnermost(t *testing.T) {
	top := model.NewNodes(nil)
	p, _ := top.AddNew("p", 50, 0)
	q, _ := top.AddNew("q", 50, 0)
	c, _ := p.Nodes().AddNew("c", 10, 0)

	opts := DefaultOptions()
	opts.Variant = TopWeighted
	require.NoError(t, ComputeLayout(top, model.Rect{W: 200, H: 100}, opts))

	pr := p.Rectangle()
	cr := c.Rectangle()
	require.False(t, cr.IsEmpty())

	assert.Same(t, c, HitTest(top, cr.X+cr.W/2, cr.Y+cr.H/2))
	assert.Same(t, p, HitTest(top, pr.X+0.5, pr.Y+0.5))
	qr := q.Rectangle()
	assert.Same(t, q, HitTest(top, qr.X+qr.W/2, qr.Y+qr.H/2))
	assert.Nil(t, HitTest(top, 500, 500))

	assert.ElementsMatch(t, []*model.Node{p, q}, Drawn(top, 0))
	assert.Equal(t, []*model.Node{c}, Drawn(top, 1))
}

// squarifyItem adapts nodes to the squarify library used as a reference
type squarifyItem struct {
	node     *model.Node
	size     float64
	children []*squarifyItem
}

func (s *squarifyItem) Size() float64 { return s.size }
func (s *squarifyItem) NumChildren() int { return len(s.children) }
func (s *squarifyItem) Child(i int) squarify.TreeSizer { return s.children[i] }

func TestAreasMatchReferenceSquarify(t *testing.T) {
	weights := []float32{700, 300, 300, 150, 80, 40, 20, 10}
	top, nodes := buildTop(t, weights...)
	bounds := model.Rect{W: 160, H: 90}
	require.NoError(t, ComputeLayout(top, bounds, flatOptions(BottomWeighted)))

	root := &squarifyItem{}
	for _, n := range nodes {
		root.children = append(root.children, &squarifyItem{node: n, size: float64(n.SizeMetric())})
		root.size += float64(n.SizeMetric())
	}

	blocks, metas := squarify.Squarify(root, squarify.Rect{W: bounds.W, H: bounds.H}, squarify.Options{
		MaxDepth: 1,
		Sort:     true,
	})
	require.Len(t, blocks, len(nodes))

	for i, b := range blocks {
		require.Equal(t, 0, metas[i].Depth)
		item := b.TreeSizer.(*squarifyItem)
		got := item.node.Rectangle().Area()
		assert.InDelta(t, b.W*b.H, got, 1e-6*math.Max(1, got), item.node.Text())
	}
}

func TestParseNames(t *testing.T) {
	v, err := ParseVariant("top_weighted")
	require.NoError(t, err)
	assert.Equal(t, TopWeighted, v)

	l, err := ParseEmptySpaceLocation("top")
	require.NoError(t, err)
	assert.Equal(t, EmptySpaceTop, l)

	tl, err := ParseTextLocation("center")
	require.NoError(t, err)
	assert.Equal(t, TextCenter, tl)

	_, err = ParseVariant("sideways")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = ParseEmptySpaceLocation("")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = ParseTextLocation("bottom")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}
