package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumipallolabs/nestmap/internal/layout"
	"github.com/lumipallolabs/nestmap/internal/model"
)

type recorder struct {
	events []Event
}

func (r *recorder) record(e Event) { r.events = append(r.events, e) }

func (r *recorder) count(match func(Event) bool) int {
	n := 0
	for _, e := range r.events {
		if match(e) {
			n++
		}
	}
	return n
}

func (r *recorder) redraws() int {
	return r.count(func(e Event) bool { _, ok := e.(RedrawRequiredEvent); return ok })
}

func (r *recorder) navigations() int {
	return r.count(func(e Event) bool { _, ok := e.(NavigationChangedEvent); return ok })
}

func (r *recorder) reset() { r.events = nil }

func newController(t *testing.T) (*Controller, *recorder) {
	t.Helper()
	c, err := NewController(layout.DefaultOptions(), 0)
	require.NoError(t, err)
	rec := &recorder{}
	c.Subscribe(rec.record)
	return c, rec
}

// populate builds a (b (c)), q at the top level
func populate(t *testing.T, c *Controller) (a, b, cc, q *model.Node) {
	t.Helper()
	a = model.MustNode("a", 60, 0)
	b = model.MustNode("b", 40, 0)
	cc = model.MustNode("c", 20, 0)
	q = model.MustNode("q", 30, 0)
	require.NoError(t, c.AddNode(nil, a))
	require.NoError(t, c.AddNode(a, b))
	require.NoError(t, c.AddNode(b, cc))
	require.NoError(t, c.AddNode(nil, q))
	return a, b, cc, q
}

func TestNewControllerRejectsInvalidOptions(t *testing.T) {
	opts := layout.DefaultOptions()
	opts.PaddingPx = 500
	_, err := NewController(opts, 0)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestMutationsRequestRedraw(t *testing.T) {
	c, rec := newController(t)
	a, _, _, _ := populate(t, c)
	assert.Equal(t, 4, rec.count(func(e Event) bool { _, ok := e.(NodesChangedEvent); return ok }))

	rec.reset()
	require.NoError(t, a.SetSizeMetric(10))
	assert.Equal(t, 1, rec.redraws())

	rec.reset()
	a.SetTag("not layout affecting")
	assert.Empty(t, rec.events)
}

func TestUpdateBracketBatchesNotifications(t *testing.T) {
	c, rec := newController(t)
	a, b, _, _ := populate(t, c)
	rec.reset()

	c.BeginUpdate()
	c.BeginUpdate()
	require.NoError(t, a.SetSizeMetric(1))
	require.NoError(t, b.SetSizeMetric(2))
	a.SetText("renamed")
	require.NoError(t, c.EndUpdate())
	assert.Empty(t, rec.events, "inner EndUpdate must not flush")

	require.NoError(t, c.EndUpdate())
	assert.Equal(t, 1, rec.redraws())
	assert.Len(t, rec.events, 1)

	assert.ErrorIs(t, c.EndUpdate(), ErrInvalidOperation)
}

func TestLayoutOnlyWhenNeeded(t *testing.T) {
	c, _ := newController(t)
	a, _, _, _ := populate(t, c)
	rect := model.Rect{W: 300, H: 200}

	assert.True(t, c.Layout(rect))
	assert.True(t, a.IsDrawn())
	assert.False(t, c.Layout(rect), "nothing changed")

	assert.True(t, c.Layout(model.Rect{W: 400, H: 200}), "rectangle changed")

	require.NoError(t, a.SetSizeMetric(5))
	assert.True(t, c.Layout(model.Rect{W: 400, H: 200}), "tree changed")

	opts := c.Options()
	opts.Variant = layout.TopWeighted
	require.NoError(t, c.SetOptions(opts))
	assert.True(t, c.Layout(model.Rect{W: 400, H: 200}), "options changed")
	assert.Equal(t, layout.TopWeighted, c.Options().Variant)
}

func TestHitTestThroughController(t *testing.T) {
	c, _ := newController(t)
	a, _, _, q := populate(t, c)
	c.Layout(model.Rect{W: 300, H: 200})

	r := q.Rectangle()
	assert.Same(t, q, c.HitTest(r.X+r.W/2, r.Y+r.H/2))
	r = a.Rectangle()
	assert.Same(t, a, c.HitTest(r.X+0.5, r.Y+0.5))
	assert.Nil(t, c.HitTest(-5, -5))
}

func TestZoomRequiresZoomable(t *testing.T) {
	c, _ := newController(t)
	a, _, _, _ := populate(t, c)

	assert.False(t, c.IsZoomable())
	assert.False(t, c.CanZoomIn(a))
	assert.ErrorIs(t, c.ZoomIn(a), ErrInvalidOperation)
	assert.ErrorIs(t, c.ZoomOut(), ErrInvalidOperation)
	assert.ErrorIs(t, c.MoveBack(), ErrInvalidOperation)
	assert.ErrorIs(t, c.MoveForward(), ErrInvalidOperation)
	assert.Equal(t, NavigationState{Index: -1}, c.Navigation())
}

func TestZoomNotifiesOnce(t *testing.T) {
	c, rec := newController(t)
	a, b, _, _ := populate(t, c)
	c.SetZoomable(true)
	rec.reset()

	require.NoError(t, c.ZoomIn(a))
	assert.Equal(t, 1, rec.navigations())
	assert.Equal(t, 1, rec.redraws())
	assert.Equal(t, []*model.Node{a}, c.Nodes().Items())

	rec.reset()
	require.NoError(t, c.ZoomIn(b))
	nav := c.Navigation()
	assert.Equal(t, []*model.Node{a, b}, nav.Path)
	assert.Same(t, b, nav.Zoomed())
	assert.True(t, nav.CanZoomOut)
	assert.True(t, nav.CanMoveBack)
	assert.False(t, nav.CanMoveForward)

	last := rec.events[len(rec.events)-1]
	assert.IsType(t, RedrawRequiredEvent{}, last, "redraw comes after navigation")
}

func TestZoomIntoSoleTopLevelNode(t *testing.T) {
	c, rec := newController(t)
	x := model.MustNode("x", 1, 0)
	require.NoError(t, c.AddNode(nil, x))
	c.SetZoomable(true)
	rec.reset()

	assert.False(t, c.CanZoomIn(x))
	assert.ErrorIs(t, c.ZoomIn(x), ErrInvalidOperation)
	assert.Empty(t, rec.events, "a failed zoom changes nothing")
}

func TestBackAndForwardThroughController(t *testing.T) {
	c, _ := newController(t)
	a, b, cc, q := populate(t, c)
	c.SetZoomable(true)

	require.NoError(t, c.ZoomIn(a))
	require.NoError(t, c.ZoomIn(b))
	require.NoError(t, c.MoveBack())
	require.NoError(t, c.MoveBack())
	assert.Equal(t, []*model.Node{a, q}, c.Nodes().Items())
	assert.False(t, c.CanMoveBack())

	require.NoError(t, c.MoveForward())
	require.NoError(t, c.MoveForward())
	assert.Equal(t, []*model.Node{b}, c.Nodes().Items())

	require.NoError(t, c.ZoomIn(cc))
	require.NoError(t, c.ZoomOut())
	assert.Equal(t, []*model.Node{b}, c.Nodes().Items())
	assert.Same(t, b, cc.Parent())
}

func TestDisablingZoomRestoresOriginals(t *testing.T) {
	c, rec := newController(t)
	a, b, _, q := populate(t, c)
	c.SetZoomable(true)
	require.NoError(t, c.ZoomIn(b))
	rec.reset()

	c.SetZoomable(false)
	assert.Equal(t, []*model.Node{a, q}, c.Nodes().Items())
	assert.Same(t, a, b.Parent())
	assert.Equal(t, 1, rec.navigations())
	assert.False(t, c.IsZoomable())
}

func TestRemoveZoomedNodeResetsZoom(t *testing.T) {
	c, _ := newController(t)
	a, b, cc, q := populate(t, c)
	c.SetZoomable(true)
	require.NoError(t, c.ZoomIn(cc))

	require.NoError(t, c.RemoveNode(b))
	assert.Equal(t, []*model.Node{a, q}, c.Nodes().Items())
	assert.Equal(t, 0, a.Nodes().Len())
	assert.Nil(t, b.Parent())
	assert.False(t, c.CanMoveBack(), "history dropped")

	assert.ErrorIs(t, c.RemoveNode(b), model.ErrInvalidArgument)
}

func TestRemoveUnrelatedNodeKeepsZoom(t *testing.T) {
	c, _ := newController(t)
	_, b, cc, _ := populate(t, c)
	c.SetZoomable(true)
	require.NoError(t, c.ZoomIn(b))

	require.NoError(t, c.RemoveNode(cc))
	assert.Equal(t, []*model.Node{b}, c.Nodes().Items())
	assert.True(t, c.CanMoveBack())
}

func TestFindSearchesOriginalsWhileZoomed(t *testing.T) {
	c, _ := newController(t)
	_, b, _, q := populate(t, c)
	q.SetTag("/q")
	c.SetZoomable(true)
	require.NoError(t, c.ZoomIn(b))

	assert.Same(t, q, c.Find("/q"))
	assert.Nil(t, c.Find("/missing"))
}

func TestReplaceDropsZoom(t *testing.T) {
	c, rec := newController(t)
	_, b, _, _ := populate(t, c)
	c.SetZoomable(true)
	require.NoError(t, c.ZoomIn(b))
	rec.reset()

	fresh := []*model.Node{model.MustNode("x", 1, 0), model.MustNode("y", 2, 0)}
	require.NoError(t, c.Replace(fresh, 3))

	assert.Equal(t, fresh, c.Nodes().Items())
	assert.Equal(t, float32(3), c.Nodes().EmptySpace().SizeMetric())
	assert.False(t, c.CanMoveBack())
	assert.Equal(t, 1, rec.redraws())
	assert.Equal(t, 1, rec.navigations())

	c.Clear()
	assert.Equal(t, 0, c.Nodes().Len())
}

func TestUnsubscribe(t *testing.T) {
	c, err := NewController(layout.DefaultOptions(), 0)
	require.NoError(t, err)
	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.record)
	unsubscribe()

	require.NoError(t, c.AddNode(nil, model.MustNode("a", 1, 0)))
	assert.Empty(t, rec.events)
}
