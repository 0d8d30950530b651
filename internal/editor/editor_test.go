package editor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccanvas/internal/align"
	"doccanvas/internal/autosave"
	"doccanvas/internal/shape"
)

func rect(id string, x, y, w, h float64, z int) shape.Shape {
	s := shape.New(id, shape.KindRect)
	s.X, s.Y, s.Width, s.Height = x, y, w, h
	s.ZIndex = z
	return s
}

func testDoc() shape.Document {
	return shape.Document{
		Name:   "letterhead",
		Canvas: shape.DefaultCanvasSettings(),
		Shapes: []shape.Shape{
			rect("a", 0, 0, 20, 10, 1),
			rect("b", 50, 30, 20, 10, 2),
			rect("c", 200, 60, 20, 10, 3),
		},
	}
}

func TestNew_LoadsDocumentWithoutMarkingDirty(t *testing.T) {
	coord := autosave.New(
		func(ctx context.Context, doc shape.Document) error { return nil },
		&nullBackups{},
		autosave.Options{SaveInterval: time.Hour},
	)
	defer coord.Stop()

	e, err := New(testDoc(), coord)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Store.Len())
	assert.False(t, coord.HasUnsavedChanges(), "loading is not an edit")
}

func TestStoreMutations_MarkCoordinatorDirty(t *testing.T) {
	coord := autosave.New(
		func(ctx context.Context, doc shape.Document) error { return nil },
		&nullBackups{},
		autosave.Options{SaveInterval: time.Hour},
	)
	defer coord.Stop()

	e, err := New(testDoc(), coord)
	require.NoError(t, err)

	moved, ok := e.Transform.Rotate("a", 45)
	require.True(t, ok)
	e.Transform.Apply(moved)

	assert.True(t, coord.HasUnsavedChanges())
	assert.Equal(t, autosave.StateDirty, coord.State())
}

func TestDeleteSelected_PrunesSelection(t *testing.T) {
	e, err := New(testDoc(), nil)
	require.NoError(t, err)

	e.Selection.Select("a", "b")
	assert.Equal(t, 2, e.DeleteSelected())
	assert.Empty(t, e.Selection.SelectedIDs())
	assert.Equal(t, 1, e.Store.Len())
	assert.Equal(t, 0, e.DeleteSelected(), "empty selection deletes nothing")
}

func TestAlignSelected_CommitsAlignment(t *testing.T) {
	e, err := New(testDoc(), nil)
	require.NoError(t, err)

	e.Selection.SelectAll()
	e.AlignSelected(align.AlignLeft)

	for _, id := range []string{"a", "b", "c"} {
		s, ok := e.Store.Get(id)
		require.True(t, ok)
		assert.Equal(t, 0.0, s.X)
	}
}

func TestDuplicateSelected_AddsAndSelectsClones(t *testing.T) {
	e, err := New(testDoc(), nil)
	require.NoError(t, err)

	e.Selection.Select("a")
	ids := e.DuplicateSelected(10, 10)
	require.Len(t, ids, 1)

	assert.Equal(t, 4, e.Store.Len())
	assert.Equal(t, ids, e.Selection.SelectedIDs(), "clones become the new selection")

	clone, ok := e.Store.Get(ids[0])
	require.True(t, ok)
	assert.Equal(t, 10.0, clone.X)
}

func TestPasteClipboard(t *testing.T) {
	e, err := New(testDoc(), nil)
	require.NoError(t, err)

	e.Transform.Copy("b")
	ids := e.PasteClipboard()
	require.Len(t, ids, 1)

	pasted, ok := e.Store.Get(ids[0])
	require.True(t, ok)
	assert.Equal(t, 50.0+16, pasted.X)
	assert.Equal(t, ids, e.Selection.SelectedIDs())
}

func TestGuidesFor_UsesCanvasTolerance(t *testing.T) {
	doc := testDoc()
	doc.Canvas.SnapTolerance = 3
	e, err := New(doc, nil)
	require.NoError(t, err)

	dragged := rect("drag", 52, 100, 20, 10, 9)
	guides := e.GuidesFor(dragged) // b's left edge is at 50, 2px away
	found := false
	for _, g := range guides {
		if g.Type == align.GuideEdge && g.Orientation == align.Vertical && g.Position == 50 {
			found = true
		}
	}
	assert.True(t, found)

	doc.Canvas.SnapTolerance = 1
	e2, err := New(doc, nil)
	require.NoError(t, err)
	for _, g := range e2.GuidesFor(dragged) {
		if g.Type == align.GuideEdge && g.Orientation == align.Vertical && g.Position == 50 {
			t.Fatal("guide produced outside tolerance")
		}
	}
}

// nullBackups satisfies autosave.BackupStore with no storage at all.
type nullBackups struct{}

func (nullBackups) Write(autosave.Backup) error          { return nil }
func (nullBackups) Read() (autosave.Backup, bool, error) { return autosave.Backup{}, false, nil }
func (nullBackups) Clear() error                         { return nil }
