// Package editor composes the canvas core for one open document: the
// shape store, the selection and transform engines, alignment helpers and
// the autosave coordinator, wired so every store mutation marks the
// document dirty.
package editor

import (
	"doccanvas/internal/align"
	"doccanvas/internal/autosave"
	"doccanvas/internal/selection"
	"doccanvas/internal/shape"
	"doccanvas/internal/transform"
)

// Editor is the editing core for one document.
type Editor struct {
	Store     *shape.Store
	Selection *selection.Engine
	Transform *transform.Engine

	name     string
	canvas   shape.CanvasSettings
	autosave *autosave.Coordinator
}

// New builds an editor over the given document. The coordinator may be
// nil for read-only or test use.
func New(doc shape.Document, coord *autosave.Coordinator) (*Editor, error) {
	store := shape.NewStore()
	if err := store.ReplaceAll(doc.Shapes); err != nil {
		return nil, err
	}
	e := &Editor{
		Store:     store,
		Selection: selection.NewEngine(store),
		Transform: transform.NewEngine(store),
		name:      doc.Name,
		canvas:    doc.Canvas,
		autosave:  coord,
	}
	if coord != nil {
		store.OnChange(func() { coord.MarkDirty(e.Document()) })
	}
	return e, nil
}

// Document snapshots the current state in persisted form.
func (e *Editor) Document() shape.Document {
	return shape.Document{
		Name:   e.name,
		Canvas: e.canvas,
		Shapes: e.Store.List(),
	}
}

// Canvas returns the page settings.
func (e *Editor) Canvas() shape.CanvasSettings { return e.canvas }

// AlignSelected runs an alignment function over the current selection and
// commits the result. Selections too small for the operation are left
// untouched by the alignment functions themselves.
func (e *Editor) AlignSelected(fn func([]shape.Shape) []shape.Shape) {
	e.Transform.Apply(fn(e.Selection.SelectedShapes())...)
}

// DistributeSelected is AlignSelected under a different name for call
// sites that read better with it.
func (e *Editor) DistributeSelected(fn func([]shape.Shape) []shape.Shape) {
	e.AlignSelected(fn)
}

// DeleteSelected removes every selected shape and returns how many went.
// The store's removal hooks prune the selection.
func (e *Editor) DeleteSelected() int {
	return e.Transform.Delete(e.Selection.SelectedIDs()...)
}

// DuplicateSelected clones each selected shape once with the given offset,
// commits the clones and selects them.
func (e *Editor) DuplicateSelected(offsetX, offsetY float64) []string {
	clones := e.Transform.DuplicateMany(e.Selection.SelectedIDs(), 1, offsetX, offsetY)
	ids := make([]string, 0, len(clones))
	for _, c := range clones {
		if err := e.Store.Add(c); err != nil {
			continue
		}
		ids = append(ids, c.ID)
	}
	e.Selection.DeselectAll()
	e.Selection.Select(ids...)
	return ids
}

// PasteClipboard inserts the transform engine's clipboard contents and
// selects the pasted clones.
func (e *Editor) PasteClipboard() []string {
	pasted := e.Transform.Paste()
	ids := make([]string, 0, len(pasted))
	for _, p := range pasted {
		if err := e.Store.Add(p); err != nil {
			continue
		}
		ids = append(ids, p.ID)
	}
	e.Selection.DeselectAll()
	e.Selection.Select(ids...)
	return ids
}

// GuidesFor computes smart guides for a shape being dragged, excluding the
// rest of the selection, using the canvas snap tolerance.
func (e *Editor) GuidesFor(dragged shape.Shape) []align.Guide {
	tol := e.canvas.SnapTolerance
	if tol <= 0 {
		tol = align.DefaultTolerance
	}
	return align.GetSmartGuides(dragged, e.Store.List(), e.Selection.SelectedIDs(), tol)
}
