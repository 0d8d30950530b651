// Package transform derives new shape values from existing ones: mirror,
// flip, duplicate, rotate, z-order moves, delete and the clipboard.
// Operations return values; the caller commits them with Apply.
package transform

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"doccanvas/internal/shape"
)

// PasteOffset is the fixed pixel delta applied to pasted clones so they do
// not land exactly on top of their sources.
const PasteOffset = 16.0

// Engine performs shape transformations against one store. The store is
// read for z-order context; writes only happen through Apply and Delete.
type Engine struct {
	store *shape.Store

	mu        sync.Mutex
	clipboard []shape.Shape
}

// NewEngine creates a transform engine over the given store.
func NewEngine(store *shape.Store) *Engine {
	return &Engine{store: store}
}

// Apply commits transformed shape values back into the store. Values whose
// id is no longer present are skipped.
func (e *Engine) Apply(shapes ...shape.Shape) {
	for _, s := range shapes {
		if !e.store.Has(s.ID) {
			continue
		}
		_ = e.store.Update(s)
	}
}

// MirrorHorizontal reflects the shape across its own right edge: position
// shifts by the width and the horizontal scale is negated. Unlike flip,
// the bounding box moves.
func (e *Engine) MirrorHorizontal(id string) (shape.Shape, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return shape.Shape{}, false
	}
	s.X += s.Width
	s.ScaleX = -s.ScaleX
	return s, true
}

// MirrorVertical reflects the shape across its own bottom edge.
func (e *Engine) MirrorVertical(id string) (shape.Shape, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return shape.Shape{}, false
	}
	s.Y += s.Height
	s.ScaleY = -s.ScaleY
	return s, true
}

// FlipHorizontal inverts the horizontal scale in place; the bounding box
// does not move.
func (e *Engine) FlipHorizontal(id string) (shape.Shape, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return shape.Shape{}, false
	}
	s.ScaleX = -s.ScaleX
	return s, true
}

// FlipVertical inverts the vertical scale in place.
func (e *Engine) FlipVertical(id string) (shape.Shape, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return shape.Shape{}, false
	}
	s.ScaleY = -s.ScaleY
	return s, true
}

// Duplicate produces count copies of the shape, the i-th copy offset by
// (offsetX*i, offsetY*i), each with a fresh id. The copies are not
// committed to the store.
func (e *Engine) Duplicate(id string, count int, offsetX, offsetY float64) []shape.Shape {
	s, ok := e.store.Get(id)
	if !ok || count <= 0 {
		return nil
	}
	out := make([]shape.Shape, 0, count)
	for i := 1; i <= count; i++ {
		c := s.Clone()
		c.ID = uuid.NewString()
		c.X += offsetX * float64(i)
		c.Y += offsetY * float64(i)
		out = append(out, c)
	}
	return out
}

// DuplicateMany duplicates each source id independently, not as a group.
func (e *Engine) DuplicateMany(ids []string, count int, offsetX, offsetY float64) []shape.Shape {
	var out []shape.Shape
	for _, id := range ids {
		out = append(out, e.Duplicate(id, count, offsetX, offsetY)...)
	}
	return out
}

// BringToFront assigns a z-index strictly above the store's current max.
func (e *Engine) BringToFront(id string) (shape.Shape, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return shape.Shape{}, false
	}
	s.ZIndex = e.store.MaxZ() + 1
	return s, true
}

// SendToBack assigns a z-index strictly below the store's current min.
func (e *Engine) SendToBack(id string) (shape.Shape, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return shape.Shape{}, false
	}
	s.ZIndex = e.store.MinZ() - 1
	return s, true
}

// BringForward swaps the shape's z-index with the next distinct z-index
// above it. Already on top is a no-op returning the unchanged shape.
func (e *Engine) BringForward(id string) (shape.Shape, bool) {
	return e.stepZ(id, true)
}

// SendBackward swaps with the next distinct z-index below.
func (e *Engine) SendBackward(id string) (shape.Shape, bool) {
	return e.stepZ(id, false)
}

func (e *Engine) stepZ(id string, up bool) (shape.Shape, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return shape.Shape{}, false
	}
	zs := distinctZ(e.store.List())
	i := sort.SearchInts(zs, s.ZIndex)
	if up {
		if i+1 >= len(zs) {
			return s, true // already frontmost
		}
		s.ZIndex = zs[i+1]
	} else {
		if i == 0 {
			return s, true // already backmost
		}
		s.ZIndex = zs[i-1]
	}
	return s, true
}

func distinctZ(shapes []shape.Shape) []int {
	seen := make(map[int]struct{}, len(shapes))
	var zs []int
	for _, s := range shapes {
		if _, ok := seen[s.ZIndex]; !ok {
			seen[s.ZIndex] = struct{}{}
			zs = append(zs, s.ZIndex)
		}
	}
	sort.Ints(zs)
	return zs
}

// Rotate adds degrees to the shape's rotation, normalized into [0, 360).
func (e *Engine) Rotate(id string, degrees float64) (shape.Shape, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return shape.Shape{}, false
	}
	s.Rotation = math.Mod(s.Rotation+degrees, 360)
	if s.Rotation < 0 {
		s.Rotation += 360
	}
	return s, true
}

// ResetRotation sets the rotation back to zero.
func (e *Engine) ResetRotation(id string) (shape.Shape, bool) {
	s, ok := e.store.Get(id)
	if !ok {
		return shape.Shape{}, false
	}
	s.Rotation = 0
	return s, true
}

// Delete removes the given shapes from the store and returns how many were
// actually present. Missing ids are skipped, not errors.
func (e *Engine) Delete(ids ...string) int {
	removed := 0
	for _, id := range ids {
		if e.store.Remove(id) {
			removed++
		}
	}
	return removed
}

// Copy captures value copies of the given shapes into the clipboard.
// Missing ids are skipped.
func (e *Engine) Copy(ids ...string) int {
	var copied []shape.Shape
	for _, id := range ids {
		if s, ok := e.store.Get(id); ok {
			copied = append(copied, s)
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clipboard = copied
	return len(copied)
}

// Paste returns clones of the clipboard contents with fresh ids, offset by
// PasteOffset. The clones are not committed; repeated pastes yield
// independent clones.
func (e *Engine) Paste() []shape.Shape {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]shape.Shape, 0, len(e.clipboard))
	for _, s := range e.clipboard {
		c := s.Clone()
		c.ID = uuid.NewString()
		c.X += PasteOffset
		c.Y += PasteOffset
		out = append(out, c)
	}
	return out
}
