package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccanvas/internal/selection"
	"doccanvas/internal/shape"
)

func newStore(t *testing.T, shapes ...shape.Shape) *shape.Store {
	t.Helper()
	st := shape.NewStore()
	for _, s := range shapes {
		require.NoError(t, st.Add(s))
	}
	return st
}

func rect(id string, x, y, w, h float64, z int) shape.Shape {
	s := shape.New(id, shape.KindRect)
	s.X, s.Y, s.Width, s.Height = x, y, w, h
	s.ZIndex = z
	return s
}

func TestMirrorHorizontal_MovesAndNegatesScale(t *testing.T) {
	st := newStore(t, rect("a", 10, 20, 30, 40, 0))
	e := NewEngine(st)

	m, ok := e.MirrorHorizontal("a")
	require.True(t, ok)
	assert.Equal(t, 40.0, m.X, "position shifts by width")
	assert.Equal(t, -1.0, m.ScaleX)
	assert.Equal(t, 20.0, m.Y)
}

func TestFlipHorizontal_OnlyInvertsScale(t *testing.T) {
	st := newStore(t, rect("a", 10, 20, 30, 40, 0))
	e := NewEngine(st)

	f, ok := e.FlipHorizontal("a")
	require.True(t, ok)
	assert.Equal(t, 10.0, f.X, "flip does not move the bounding box")
	assert.Equal(t, -1.0, f.ScaleX)

	// Flipping twice restores the original scale.
	e.Apply(f)
	f2, _ := e.FlipHorizontal("a")
	assert.Equal(t, 1.0, f2.ScaleX)
}

func TestMirrorVertical(t *testing.T) {
	st := newStore(t, rect("a", 10, 20, 30, 40, 0))
	e := NewEngine(st)

	m, ok := e.MirrorVertical("a")
	require.True(t, ok)
	assert.Equal(t, 60.0, m.Y)
	assert.Equal(t, -1.0, m.ScaleY)
}

func TestDuplicate_OffsetsAndFreshIDs(t *testing.T) {
	st := newStore(t, rect("src", 100, 100, 10, 10, 0))
	e := NewEngine(st)

	copies := e.Duplicate("src", 3, 20, 10)
	require.Len(t, copies, 3)

	seen := map[string]bool{"src": true}
	for i, c := range copies {
		assert.False(t, seen[c.ID], "ids must be fresh")
		seen[c.ID] = true
		assert.Equal(t, 100+20*float64(i+1), c.X)
		assert.Equal(t, 100+10*float64(i+1), c.Y)
	}

	assert.Nil(t, e.Duplicate("missing", 2, 5, 5))
	assert.Nil(t, e.Duplicate("src", 0, 5, 5))
}

func TestDuplicateMany_PerSourceNotAsGroup(t *testing.T) {
	st := newStore(t,
		rect("a", 0, 0, 10, 10, 0),
		rect("b", 100, 0, 10, 10, 0),
	)
	e := NewEngine(st)

	copies := e.DuplicateMany([]string{"a", "b"}, 1, 5, 5)
	require.Len(t, copies, 2)
	assert.Equal(t, 5.0, copies[0].X)
	assert.Equal(t, 105.0, copies[1].X, "each source offsets independently")
}

func TestZOrder_FrontBack(t *testing.T) {
	st := newStore(t,
		rect("a", 0, 0, 10, 10, 1),
		rect("b", 0, 0, 10, 10, 2),
		rect("c", 0, 0, 10, 10, 3),
	)
	e := NewEngine(st)

	front, _ := e.BringToFront("a")
	assert.Equal(t, 4, front.ZIndex, "strictly beyond current max")

	back, _ := e.SendToBack("c")
	assert.Equal(t, 0, back.ZIndex, "strictly below current min")
}

func TestZOrder_StepSwapsToNextDistinct(t *testing.T) {
	st := newStore(t,
		rect("a", 0, 0, 10, 10, 1),
		rect("b", 0, 0, 10, 10, 5),
		rect("c", 0, 0, 10, 10, 9),
	)
	e := NewEngine(st)

	up, _ := e.BringForward("a")
	assert.Equal(t, 5, up.ZIndex)

	down, _ := e.SendBackward("c")
	assert.Equal(t, 5, down.ZIndex)

	// Already extremal: no-op.
	top, _ := e.BringForward("c")
	assert.Equal(t, 9, top.ZIndex)
	bottom, _ := e.SendBackward("a")
	assert.Equal(t, 1, bottom.ZIndex)
}

func TestBringToFront_ThenHitTestReturnsFrontShape(t *testing.T) {
	st := newStore(t,
		rect("under", 0, 0, 100, 100, 1),
		rect("over", 0, 0, 100, 100, 2),
	)
	e := NewEngine(st)
	sel := selection.NewEngine(st)

	require.Equal(t, "over", sel.HitTest(50, 50))

	front, ok := e.BringToFront("under")
	require.True(t, ok)
	e.Apply(front)

	assert.Equal(t, "under", sel.HitTest(50, 50))
}

func TestRotate_ModuloAndReset(t *testing.T) {
	st := newStore(t, rect("a", 0, 0, 10, 10, 0))
	e := NewEngine(st)

	r, _ := e.Rotate("a", 350)
	e.Apply(r)
	r, _ = e.Rotate("a", 20)
	assert.Equal(t, 10.0, r.Rotation)

	e.Apply(r)
	r, _ = e.Rotate("a", -30)
	assert.Equal(t, 340.0, r.Rotation, "negative results normalize into [0,360)")

	reset, _ := e.ResetRotation("a")
	assert.Equal(t, 0.0, reset.Rotation)
}

func TestDelete_CountsAndToleratesMissing(t *testing.T) {
	st := newStore(t,
		rect("a", 0, 0, 10, 10, 0),
		rect("b", 0, 0, 10, 10, 0),
	)
	e := NewEngine(st)

	assert.Equal(t, 2, e.Delete("a", "ghost", "b"))
	assert.Equal(t, 0, st.Len())
	assert.Equal(t, 0, e.Delete("a"), "already-missing ids are a no-op")
}

func TestCopyPaste_ClonesWithOffsetAndFreshIDs(t *testing.T) {
	st := newStore(t, rect("a", 10, 10, 10, 10, 0))
	e := NewEngine(st)

	require.Equal(t, 1, e.Copy("a", "ghost"))

	// Copy captured values, not references: mutate the original afterwards.
	orig, _ := st.Get("a")
	orig.X = 999
	require.NoError(t, st.Update(orig))

	pasted := e.Paste()
	require.Len(t, pasted, 1)
	assert.Equal(t, 10.0+PasteOffset, pasted[0].X)
	assert.Equal(t, 10.0+PasteOffset, pasted[0].Y)
	assert.NotEqual(t, "a", pasted[0].ID)

	// Repeated paste yields an independent clone with another fresh id.
	again := e.Paste()
	require.Len(t, again, 1)
	assert.NotEqual(t, pasted[0].ID, again[0].ID)
}
