// Package selection decides which shapes the user is acting on: point
// hit-testing against the z-order and lasso selection by drag rectangle.
package selection

import (
	"sort"
	"sync"

	"doccanvas/internal/geom"
	"doccanvas/internal/shape"
)

// Engine maintains the selection set for one document. The set is pruned
// against the store on every read, so it can never name a shape that has
// already been deleted.
type Engine struct {
	mu       sync.Mutex
	store    *shape.Store
	selected map[string]struct{}

	dragging   bool
	dragOrigin geom.Point
	dragRect   geom.Rect
}

// NewEngine creates a selection engine over the given store.
func NewEngine(store *shape.Store) *Engine {
	e := &Engine{store: store, selected: make(map[string]struct{})}
	store.OnRemove(func(id string) {
		e.mu.Lock()
		delete(e.selected, id)
		e.mu.Unlock()
	})
	return e
}

// HitTest returns the topmost visible shape under the point, scanning from
// highest to lowest z-index. The empty string means nothing was hit.
// Rotated shapes are tested against the axis-aligned bound of their
// rotated corners, so points just outside a rotated corner may still hit.
func (e *Engine) HitTest(x, y float64) string {
	shapes := e.store.ByZ()
	for i := len(shapes) - 1; i >= 0; i-- {
		s := shapes[i]
		if !s.Visible {
			continue
		}
		if s.DisplayBounds().Contains(x, y) {
			return s.ID
		}
	}
	return ""
}

// SelectAtPoint selects the shape under the point. A plain click replaces
// the selection; an additive click toggles membership. Clicking empty
// canvas clears the selection unless additive.
func (e *Engine) SelectAtPoint(x, y float64, add bool) {
	id := e.HitTest(x, y)
	e.mu.Lock()
	defer e.mu.Unlock()
	if id == "" {
		if !add {
			e.selected = make(map[string]struct{})
		}
		return
	}
	if add {
		if _, on := e.selected[id]; on {
			delete(e.selected, id)
		} else {
			e.selected[id] = struct{}{}
		}
		return
	}
	e.selected = map[string]struct{}{id: {}}
}

// StartSelection begins a lasso drag at the given point.
func (e *Engine) StartSelection(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dragging = true
	e.dragOrigin = geom.Point{X: x, Y: y}
	e.dragRect = geom.Rect{X: x, Y: y}
}

// UpdateSelection extends the lasso to the current pointer position. The
// rectangle is normalized so dragging in any direction works.
func (e *Engine) UpdateSelection(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dragging {
		return
	}
	e.dragRect = geom.NormalizedRect(e.dragOrigin.X, e.dragOrigin.Y, x, y)
}

// EndSelection finishes the lasso: every visible shape whose bounding box
// intersects the drag rectangle becomes selected, replacing the selection
// or unioning into it when additive.
func (e *Engine) EndSelection(add bool) {
	e.mu.Lock()
	if !e.dragging {
		e.mu.Unlock()
		return
	}
	rect := e.dragRect
	e.dragging = false
	e.mu.Unlock()

	hit := make(map[string]struct{})
	for _, s := range e.store.List() {
		if !s.Visible {
			continue
		}
		if s.DisplayBounds().Intersects(rect) {
			hit[s.ID] = struct{}{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !add {
		e.selected = hit
		return
	}
	for id := range hit {
		e.selected[id] = struct{}{}
	}
}

// SelectionRect returns the current lasso rectangle and whether a drag is
// in progress, for callers that render the marquee.
func (e *Engine) SelectionRect() (geom.Rect, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dragRect, e.dragging
}

// SelectAll selects every shape in the store.
func (e *Engine) SelectAll() {
	ids := e.store.IDs()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		e.selected[id] = struct{}{}
	}
}

// DeselectAll clears the selection.
func (e *Engine) DeselectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = make(map[string]struct{})
}

// Select adds specific ids to the selection, ignoring unknown ones.
func (e *Engine) Select(ids ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range ids {
		if e.store.Has(id) {
			e.selected[id] = struct{}{}
		}
	}
}

// SelectedIDs returns the selected ids, pruned against the store and
// sorted for deterministic output.
func (e *Engine) SelectedIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.selected))
	for id := range e.selected {
		if !e.store.Has(id) {
			delete(e.selected, id)
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SelectedShapes returns copies of the selected shapes in store order.
func (e *Engine) SelectedShapes() []shape.Shape {
	e.mu.Lock()
	sel := make(map[string]struct{}, len(e.selected))
	for id := range e.selected {
		sel[id] = struct{}{}
	}
	e.mu.Unlock()

	var out []shape.Shape
	for _, s := range e.store.List() {
		if _, on := sel[s.ID]; on {
			out = append(out, s)
		}
	}
	return out
}

// IsSelected reports membership for one id.
func (e *Engine) IsSelected(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.Has(id) {
		delete(e.selected, id)
		return false
	}
	_, on := e.selected[id]
	return on
}
