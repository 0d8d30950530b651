package editor

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccanvas/internal/autosave"
	"doccanvas/internal/shape"
	"doccanvas/internal/storage"
)

func testManager(t *testing.T) (*Manager, *storage.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "canvas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	id, err := store.Create(context.Background(), "letterhead", testDoc())
	require.NoError(t, err)

	m := NewManager(store, ManagerOptions{
		BackupPath:    filepath.Join(dir, "backup.json"),
		SnapTolerance: 7,
		Autosave:      autosave.Options{SaveInterval: time.Hour, Debounce: time.Hour},
	})
	t.Cleanup(m.CloseAll)
	return m, store, id
}

func shapeJSON(t *testing.T, s shape.Shape) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return data
}

func TestManager_OpenLoadsFromStore(t *testing.T) {
	m, _, id := testManager(t)
	require.NoError(t, m.Open(context.Background(), id))

	ed, ok := m.Editor(id)
	require.True(t, ok)
	assert.Equal(t, 3, ed.Store.Len())

	coord, ok := m.Coordinator(id)
	require.True(t, ok)
	assert.False(t, coord.HasUnsavedChanges(), "opening is not an edit")

	// Reopening the same document is a no-op.
	require.NoError(t, m.Open(context.Background(), id))
	again, _ := m.Editor(id)
	assert.Same(t, ed, again)
}

func TestManager_OpenUnknownDocumentFails(t *testing.T) {
	m, _, _ := testManager(t)
	err := m.Open(context.Background(), "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestManager_AppliedChangePersistsThroughStore(t *testing.T) {
	m, store, id := testManager(t)
	require.NoError(t, m.Open(context.Background(), id))

	added := rect("d", 10, 10, 30, 30, 4)
	require.NoError(t, m.Apply(id, "add", "shape.d", shapeJSON(t, added)))

	coord, _ := m.Coordinator(id)
	assert.True(t, coord.HasUnsavedChanges())
	require.NoError(t, coord.Save(context.Background()))

	tpl, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tpl.Version)
	assert.Len(t, tpl.Document.Shapes, 4)

	// A second save cycle carries the bumped version forward.
	require.NoError(t, m.Apply(id, "delete", "shape.d.x", nil))
	require.NoError(t, coord.Save(context.Background()))
	tpl, err = store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), tpl.Version)
	assert.Len(t, tpl.Document.Shapes, 3)
}

func TestManager_ApplyOnUnopenedDocumentFails(t *testing.T) {
	m, _, id := testManager(t)
	err := m.Apply(id, "add", "shape.d", shapeJSON(t, rect("d", 0, 0, 10, 10, 1)))
	require.Error(t, err)
}

func TestManager_ApplyRejectsUnknownAction(t *testing.T) {
	m, _, id := testManager(t)
	require.NoError(t, m.Open(context.Background(), id))
	require.Error(t, m.Apply(id, "explode", "shape.a", nil))
}

func TestManager_SnapToleranceFillsCanvasDefault(t *testing.T) {
	m, store, _ := testManager(t)
	doc := testDoc()
	doc.Canvas.SnapTolerance = 0
	id, err := store.Create(context.Background(), "blank-tolerance", doc)
	require.NoError(t, err)

	require.NoError(t, m.Open(context.Background(), id))
	ed, _ := m.Editor(id)
	assert.Equal(t, 7.0, ed.Canvas().SnapTolerance)
}

func TestManager_CloseSavesPendingEdits(t *testing.T) {
	m, store, id := testManager(t)
	require.NoError(t, m.Open(context.Background(), id))
	require.NoError(t, m.Apply(id, "update", "shape.a",
		shapeJSON(t, rect("a", 99, 0, 20, 10, 1))))

	m.Close(id)

	tpl, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tpl.Version)
	assert.Equal(t, 99.0, tpl.Document.Shapes[0].X)

	_, ok := m.Editor(id)
	assert.False(t, ok)
}

func TestManager_OpenPrefersFreshBackup(t *testing.T) {
	m, store, id := testManager(t)

	tpl, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	newer := tpl.Document.Clone()
	newer.Shapes = append(newer.Shapes, rect("crash-edit", 5, 5, 10, 10, 9))

	fb := autosave.NewFileBackupStore(backupPathFor(m.opts.BackupPath, id))
	require.NoError(t, fb.Write(autosave.Backup{Timestamp: time.Now(), Data: newer}))

	require.NoError(t, m.Open(context.Background(), id))
	ed, _ := m.Editor(id)
	assert.Equal(t, 4, ed.Store.Len(), "backup shapes win over the stored copy")

	coord, _ := m.Coordinator(id)
	assert.True(t, coord.HasUnsavedChanges(), "recovered edits queue for the next save")
}
