// Package autosave watches document edits and persists them: a debounced
// local backup, a periodic remote save, a bounded save history, and crash
// recovery from the most recent backup.
package autosave

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"doccanvas/internal/shape"
)

// Defaults for the coordinator timers and buffers.
const (
	DefaultDebounce     = 1 * time.Second
	DefaultSaveInterval = 30 * time.Second
	DefaultHistoryLimit = 10
	DefaultBackupMaxAge = 24 * time.Hour
)

// State is the coordinator's lifecycle state.
type State string

const (
	StateIdle   State = "idle"
	StateDirty  State = "dirty"
	StateSaving State = "saving"
	StateError  State = "error"
)

// ErrSaveInFlight is returned when Save is called while another save is
// still pending. At most one persistence operation runs at a time.
var ErrSaveInFlight = errors.New("save already in flight")

// ErrNothingToSave is returned when Save is called with no captured
// document.
var ErrNothingToSave = errors.New("nothing to save")

// PersistFunc is the externally supplied remote persistence call.
type PersistFunc func(ctx context.Context, doc shape.Document) error

// StateEvent is published on every state transition, in order.
type StateEvent struct {
	State State
	Err   string
	Time  time.Time
}

// Options configures a Coordinator. Zero fields take the defaults above.
type Options struct {
	Debounce     time.Duration
	SaveInterval time.Duration
	HistoryLimit int
	BackupMaxAge time.Duration
	// OnRecover is called from New when a fresh-enough backup exists.
	OnRecover func(Backup)
}

// Coordinator drives the Idle -> Dirty -> Saving -> (Idle | Error) state
// machine for one open document.
type Coordinator struct {
	persist PersistFunc
	backups BackupStore
	opts    Options

	mu           sync.Mutex
	state        State
	pending      *shape.Document // latest snapshot since last successful save
	gen          uint64          // bumped on every MarkDirty
	lastSaved    time.Time
	lastErr      string
	history      *historyRing
	debounce     *time.Timer
	events       chan StateEvent
	eventsClosed bool

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a coordinator and immediately attempts recovery: a backup
// younger than BackupMaxAge is handed to OnRecover, an older one is
// silently discarded.
func New(persist PersistFunc, backups BackupStore, opts Options) *Coordinator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SaveInterval <= 0 {
		opts.SaveInterval = DefaultSaveInterval
	}
	if opts.BackupMaxAge <= 0 {
		opts.BackupMaxAge = DefaultBackupMaxAge
	}
	c := &Coordinator{
		persist: persist,
		backups: backups,
		opts:    opts,
		state:   StateIdle,
		history: newHistoryRing(opts.HistoryLimit),
		events:  make(chan StateEvent, 32),
		stop:    make(chan struct{}),
	}
	c.recover()
	go c.periodicLoop()
	return c
}

func (c *Coordinator) recover() {
	b, ok, err := c.backups.Read()
	if err != nil {
		log.Printf("[autosave] backup read failed: %v", err)
		return
	}
	if !ok {
		return
	}
	if time.Since(b.Timestamp) > c.opts.BackupMaxAge {
		// Stale backup: never surfaced, just dropped.
		_ = c.backups.Clear()
		return
	}
	if c.opts.OnRecover != nil {
		c.opts.OnRecover(b)
	}
}

// MarkDirty captures the latest document snapshot, transitions to Dirty
// and arms the debounce timer that writes the local backup.
func (c *Coordinator) MarkDirty(doc shape.Document) {
	snap := doc.Clone()
	c.mu.Lock()
	c.pending = &snap
	c.gen++
	if c.state != StateSaving {
		c.setStateLocked(StateDirty, "")
	}
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.opts.Debounce, c.writeBackup)
	c.mu.Unlock()
}

func (c *Coordinator) writeBackup() {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	b := Backup{Timestamp: time.Now(), Data: c.pending.Clone()}
	c.mu.Unlock()

	if err := c.backups.Write(b); err != nil {
		log.Printf("[autosave] backup write failed: %v", err)
	}
}

// Save persists the captured snapshot. A concurrent call while a save is
// in flight fails with ErrSaveInFlight and does not disturb the running
// save. Failures leave the coordinator in Error but retryable; the next
// periodic tick tries again.
func (c *Coordinator) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateSaving {
		c.mu.Unlock()
		return ErrSaveInFlight
	}
	if c.pending == nil {
		c.mu.Unlock()
		return ErrNothingToSave
	}
	doc := c.pending.Clone()
	gen := c.gen
	c.setStateLocked(StateSaving, "")
	c.mu.Unlock()

	// The local backup is written regardless of how the remote save goes;
	// recovery must work even when persistence is down.
	if err := c.backups.Write(Backup{Timestamp: time.Now(), Data: doc.Clone()}); err != nil {
		log.Printf("[autosave] backup write failed: %v", err)
	}

	err := c.persist(ctx, doc)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.setStateLocked(StateError, err.Error())
		return err
	}
	c.history.push(doc)
	c.lastSaved = time.Now()
	if c.gen == gen {
		// No edits arrived while the save was in flight.
		c.pending = nil
		c.setStateLocked(StateIdle, "")
	} else {
		c.setStateLocked(StateDirty, "")
	}
	return nil
}

func (c *Coordinator) periodicLoop() {
	ticker := time.NewTicker(c.opts.SaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			dirty := c.pending != nil && c.state != StateSaving
			c.mu.Unlock()
			if dirty {
				if err := c.Save(context.Background()); err != nil &&
					!errors.Is(err, ErrSaveInFlight) {
					log.Printf("[autosave] periodic save failed: %v", err)
				}
			}
		case <-c.stop:
			return
		}
	}
}

// Stop cancels the debounce and periodic timers and closes the event
// stream. The coordinator is not reusable afterwards.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
		c.mu.Lock()
		if c.debounce != nil {
			c.debounce.Stop()
		}
		close(c.events)
		c.eventsClosed = true
		c.mu.Unlock()
	})
}

// Events returns the ordered state-transition stream. Events are dropped
// when the subscriber falls more than the buffer behind. After Stop the
// channel is closed, so late subscribers see end-of-stream instead of
// blocking.
func (c *Coordinator) Events() <-chan StateEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

func (c *Coordinator) setStateLocked(s State, errMsg string) {
	c.state = s
	c.lastErr = errMsg
	if c.eventsClosed {
		return
	}
	select {
	case c.events <- StateEvent{State: s, Err: errMsg, Time: time.Now()}:
	default:
	}
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// HasUnsavedChanges reports whether edits are waiting to be persisted.
func (c *Coordinator) HasUnsavedChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// LastSaved returns the time of the last successful save, zero if none.
func (c *Coordinator) LastSaved() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaved
}

// LastError returns the recorded message of the most recent failed save.
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// History lists the in-memory save snapshots, oldest first.
func (c *Coordinator) History() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.list()
}

// RestoreFromHistory returns a deep clone of a bounded in-memory snapshot.
// No remote round-trip is involved.
func (c *Coordinator) RestoreFromHistory(id string) (shape.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.history.get(id)
	if !ok {
		return shape.Document{}, false
	}
	return e.Document.Clone(), true
}
