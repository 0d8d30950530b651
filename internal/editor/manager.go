package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"doccanvas/internal/autosave"
	"doccanvas/internal/shape"
	"doccanvas/internal/storage"
)

// ManagerOptions configures the per-document editors a Manager opens.
type ManagerOptions struct {
	// BackupPath is the base path for local backups; each document gets
	// its own file derived from it.
	BackupPath string
	// SnapTolerance fills in canvas settings that do not carry their own.
	SnapTolerance float64
	// Autosave is passed to every coordinator. OnRecover is owned by the
	// manager and must be left nil.
	Autosave autosave.Options
}

// Manager owns one live editor and autosave coordinator per open
// document. Edits applied through it persist through the template store:
// the store mutation marks the coordinator dirty, the debounce writes the
// local backup, and the periodic save calls storage.Store.Save with the
// version the document was opened at.
type Manager struct {
	store *storage.Store
	opts  ManagerOptions

	mu   sync.Mutex
	open map[string]*openDoc
}

type openDoc struct {
	editor *Editor
	coord  *autosave.Coordinator

	mu      sync.Mutex
	version int64
}

// NewManager creates a manager persisting through the given store.
func NewManager(store *storage.Store, opts ManagerOptions) *Manager {
	return &Manager{
		store: store,
		opts:  opts,
		open:  make(map[string]*openDoc),
	}
}

// Open loads the document from the store and starts its autosave
// coordinator. A backup fresher than the configured window wins over the
// stored copy and is queued for persistence. Opening an already open
// document is a no-op.
func (m *Manager) Open(ctx context.Context, docID string) error {
	m.mu.Lock()
	_, exists := m.open[docID]
	m.mu.Unlock()
	if exists {
		return nil
	}

	tpl, err := m.store.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("open document %s: %w", docID, err)
	}
	doc := tpl.Document
	doc.Name = tpl.Name
	if doc.Canvas.SnapTolerance <= 0 {
		doc.Canvas.SnapTolerance = m.opts.SnapTolerance
	}

	od := &openDoc{version: tpl.Version}
	persist := func(ctx context.Context, d shape.Document) error {
		od.mu.Lock()
		v := od.version
		od.mu.Unlock()
		newVersion, err := m.store.Save(ctx, docID, v, d)
		if err != nil {
			return err
		}
		od.mu.Lock()
		od.version = newVersion
		od.mu.Unlock()
		return nil
	}

	opts := m.opts.Autosave
	var recovered *shape.Document
	opts.OnRecover = func(b autosave.Backup) {
		d := b.Data.Clone()
		recovered = &d
	}
	coord := autosave.New(persist, autosave.NewFileBackupStore(backupPathFor(m.opts.BackupPath, docID)), opts)
	if recovered != nil {
		doc = *recovered
	}

	ed, err := New(doc, coord)
	if err != nil {
		coord.Stop()
		return fmt.Errorf("open document %s: %w", docID, err)
	}
	if recovered != nil {
		// The backup is newer than the stored copy; queue it for the
		// next save cycle.
		coord.MarkDirty(ed.Document())
		log.Printf("[editor] recovered document %s from backup", docID)
	}
	od.editor = ed
	od.coord = coord

	m.mu.Lock()
	if _, raced := m.open[docID]; raced {
		m.mu.Unlock()
		coord.Stop()
		return nil
	}
	m.open[docID] = od
	m.mu.Unlock()
	log.Printf("[editor] opened document %s at version %d", docID, tpl.Version)
	return nil
}

// Apply commits a reported collaboration change to the document's shape
// store, which marks it dirty for autosave. Add and update carry the
// shape as payload; delete identifies it through the field id.
func (m *Manager) Apply(docID, action, fieldID string, payload json.RawMessage) error {
	od := m.get(docID)
	if od == nil {
		return fmt.Errorf("document %s is not open", docID)
	}

	switch action {
	case "add", "update":
		var s shape.Shape
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("decode %s payload: %w", action, err)
		}
		if action == "add" {
			return od.editor.Store.Add(s)
		}
		return od.editor.Store.Update(s)
	case "delete":
		od.editor.Store.Remove(shapeIDFromField(fieldID))
		return nil
	default:
		return fmt.Errorf("unknown change action %q", action)
	}
}

// Editor returns the live editor for an open document.
func (m *Manager) Editor(docID string) (*Editor, bool) {
	od := m.get(docID)
	if od == nil {
		return nil, false
	}
	return od.editor, true
}

// Coordinator returns the autosave coordinator for an open document.
func (m *Manager) Coordinator(docID string) (*autosave.Coordinator, bool) {
	od := m.get(docID)
	if od == nil {
		return nil, false
	}
	return od.coord, true
}

// Close saves any pending edits, stops the coordinator and forgets the
// document. Closing an unknown document is a no-op.
func (m *Manager) Close(docID string) {
	m.mu.Lock()
	od, ok := m.open[docID]
	if ok {
		delete(m.open, docID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if od.coord.HasUnsavedChanges() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := od.coord.Save(ctx); err != nil {
			log.Printf("[editor] final save of %s failed: %v", docID, err)
		}
		cancel()
	}
	od.coord.Stop()
	log.Printf("[editor] closed document %s", docID)
}

// CloseAll closes every open document, saving pending edits.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.open))
	for id := range m.open {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.Close(id)
	}
}

func (m *Manager) get(docID string) *openDoc {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open[docID]
}

func backupPathFor(base, docID string) string {
	return fmt.Sprintf("%s.%s", base, docID)
}

// shapeIDFromField extracts the shape id from a lock field id of the form
// shape.<id> or shape.<id>.<attr>.
func shapeIDFromField(fieldID string) string {
	id := strings.TrimPrefix(fieldID, "shape.")
	if i := strings.IndexByte(id, '.'); i >= 0 {
		id = id[:i]
	}
	return id
}
