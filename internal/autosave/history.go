package autosave

import (
	"time"

	"github.com/google/uuid"

	"doccanvas/internal/shape"
)

// Entry is one immutable save-history snapshot.
type Entry struct {
	ID        string
	Timestamp time.Time
	Document  shape.Document
	Size      int // serialized byte size
}

// historyRing is a fixed-capacity list of save snapshots; the oldest entry
// is evicted on overflow. Callers hold the coordinator mutex.
type historyRing struct {
	entries []Entry
	limit   int
}

func newHistoryRing(limit int) *historyRing {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &historyRing{limit: limit}
}

func (h *historyRing) push(doc shape.Document) Entry {
	data, _ := doc.Marshal()
	e := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Document:  doc.Clone(),
		Size:      len(data),
	}
	h.entries = append(h.entries, e)
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
	return e
}

func (h *historyRing) get(id string) (Entry, bool) {
	for _, e := range h.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (h *historyRing) list() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}
