package shape

import (
	"fmt"
	"sort"
	"sync"
)

// Store is the ordered shape collection for one open document. The order
// of the backing slice is insertion order; paint and hit-test order comes
// from each shape's ZIndex.
type Store struct {
	mu       sync.RWMutex
	shapes   []Shape
	index    map[string]int // id -> position in shapes
	onRemove []func(id string)
	onChange []func()
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// OnRemove registers a hook called after a shape leaves the store.
// Selection pruning and collaboration lock cleanup hang off this.
func (st *Store) OnRemove(fn func(id string)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.onRemove = append(st.onRemove, fn)
}

// OnChange registers a hook called after any mutation. The autosave
// coordinator marks the document dirty from here.
func (st *Store) OnChange(fn func()) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.onChange = append(st.onChange, fn)
}

func (st *Store) notifyChange() {
	st.mu.RLock()
	hooks := make([]func(), len(st.onChange))
	copy(hooks, st.onChange)
	st.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

// Add validates and inserts a shape. Duplicate ids are rejected.
func (st *Store) Add(s Shape) error {
	if err := s.Validate(); err != nil {
		return err
	}
	st.mu.Lock()
	if _, exists := st.index[s.ID]; exists {
		st.mu.Unlock()
		return fmt.Errorf("shape %s already in store", s.ID)
	}
	st.index[s.ID] = len(st.shapes)
	st.shapes = append(st.shapes, s)
	st.mu.Unlock()
	st.notifyChange()
	return nil
}

// Get returns a copy of the shape with the given id.
func (st *Store) Get(id string) (Shape, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	i, ok := st.index[id]
	if !ok {
		return Shape{}, false
	}
	return st.shapes[i].Clone(), true
}

// Has reports whether the id is present.
func (st *Store) Has(id string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.index[id]
	return ok
}

// Update replaces the stored shape that has s.ID. Unknown ids are an error;
// the transform engines always read before they write.
func (st *Store) Update(s Shape) error {
	if err := s.Validate(); err != nil {
		return err
	}
	st.mu.Lock()
	i, ok := st.index[s.ID]
	if !ok {
		st.mu.Unlock()
		return fmt.Errorf("shape %s not in store", s.ID)
	}
	st.shapes[i] = s
	st.mu.Unlock()
	st.notifyChange()
	return nil
}

// Remove deletes a shape and fires the removal hooks. Returns false when
// the id was not present, which callers treat as a no-op.
func (st *Store) Remove(id string) bool {
	st.mu.Lock()
	i, ok := st.index[id]
	if !ok {
		st.mu.Unlock()
		return false
	}
	st.shapes = append(st.shapes[:i], st.shapes[i+1:]...)
	delete(st.index, id)
	for j := i; j < len(st.shapes); j++ {
		st.index[st.shapes[j].ID] = j
	}
	hooks := make([]func(string), len(st.onRemove))
	copy(hooks, st.onRemove)
	st.mu.Unlock()

	for _, fn := range hooks {
		fn(id)
	}
	st.notifyChange()
	return true
}

// List returns a copy of all shapes in insertion order.
func (st *Store) List() []Shape {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]Shape, 0, len(st.shapes))
	for _, s := range st.shapes {
		out = append(out, s.Clone())
	}
	return out
}

// ByZ returns a copy of all shapes sorted ascending by z-index, ties broken
// by insertion order so the sort is stable across calls.
func (st *Store) ByZ() []Shape {
	out := st.List()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// IDs returns the ids of all shapes currently present.
func (st *Store) IDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]string, 0, len(st.shapes))
	for _, s := range st.shapes {
		out = append(out, s.ID)
	}
	return out
}

// Len returns the shape count.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.shapes)
}

// MaxZ returns the highest z-index in the store, or 0 when empty.
func (st *Store) MaxZ() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	max := 0
	for i, s := range st.shapes {
		if i == 0 || s.ZIndex > max {
			max = s.ZIndex
		}
	}
	return max
}

// MinZ returns the lowest z-index in the store, or 0 when empty.
func (st *Store) MinZ() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	min := 0
	for i, s := range st.shapes {
		if i == 0 || s.ZIndex < min {
			min = s.ZIndex
		}
	}
	return min
}

// ReplaceAll swaps in a whole new shape list, e.g. after loading a document
// or restoring a backup. Invalid shapes reject the whole batch.
func (st *Store) ReplaceAll(shapes []Shape) error {
	index := make(map[string]int, len(shapes))
	for i, s := range shapes {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := index[s.ID]; dup {
			return fmt.Errorf("duplicate shape id %s", s.ID)
		}
		index[s.ID] = i
	}
	st.mu.Lock()
	st.shapes = make([]Shape, len(shapes))
	for i, s := range shapes {
		st.shapes[i] = s.Clone()
	}
	st.index = index
	st.mu.Unlock()
	st.notifyChange()
	return nil
}
