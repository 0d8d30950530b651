// Package collab is the server-side collaboration layer: a per-document
// session registry tracking presence, advisory field locks and a bounded
// change log, fanning events out to every connected client of the same
// document.
package collab

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultChangeLogLimit caps how many recent change records a session
// keeps for replay to joiners.
const DefaultChangeLogLimit = 100

// userPalette is the fixed set of presence colors; a user's color is the
// FNV hash of their id into this palette, so it is stable across rejoins.
var userPalette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#008080", "#9a6324",
}

// ColorFor deterministically assigns a presence color to a user id.
func ColorFor(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return userPalette[h.Sum32()%uint32(len(userPalette))]
}

// LockError reports a failed lock acquisition and who holds the field.
type LockError struct {
	FieldID string
	Owner   string
}

func (e *LockError) Error() string {
	return fmt.Sprintf("field %s locked by %s", e.FieldID, e.Owner)
}

// Client is one connected collaborator. The websocket hub implements it;
// tests substitute their own.
type Client interface {
	UserID() string
	Send(Event)
}

// Session is the per-document aggregate: active users, field locks and the
// change log. All mutation is serialized by the session's own mutex;
// different sessions never contend.
type Session struct {
	DocumentID string

	mu      sync.Mutex
	clients map[string]Client
	users   map[string]*UserInfo
	locks   map[string]string // fieldID -> owning userID
	changes []ChangeRecord
	limit   int
}

func newSession(documentID string, changeLimit int) *Session {
	if changeLimit <= 0 {
		changeLimit = DefaultChangeLogLimit
	}
	return &Session{
		DocumentID: documentID,
		clients:    make(map[string]Client),
		users:      make(map[string]*UserInfo),
		locks:      make(map[string]string),
		limit:      changeLimit,
	}
}

// join registers the client, sends it the full presence list, lock map and
// recent activity, then announces it to the existing members.
func (s *Session) join(c Client, name string) {
	s.mu.Lock()
	u := &UserInfo{
		ID:       c.UserID(),
		Name:     name,
		Color:    ColorFor(c.UserID()),
		LastSeen: time.Now(),
	}
	s.clients[u.ID] = c
	s.users[u.ID] = u

	users := s.usersLocked()
	locks := s.locksLocked()
	changes := make([]ChangeRecord, len(s.changes))
	copy(changes, s.changes)
	joined := *u
	s.mu.Unlock()

	c.Send(Event{Type: EvtUsersUpdate, Users: users})
	c.Send(Event{Type: EvtLockMap, Locks: locks})
	if len(changes) > 0 {
		c.Send(Event{Type: EvtRecentActivity, Changes: changes})
	}
	s.broadcast(Event{Type: EvtUserJoined, User: &joined}, u.ID)
	log.Printf("[collab] %s joined document %s", u.ID, s.DocumentID)
}

// UpdateCursor stores the user's cursor and rebroadcasts it to the other
// members. Cursor positions are never persisted.
func (s *Session) UpdateCursor(userID string, cur Cursor) {
	s.mu.Lock()
	u, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return
	}
	u.Cursor = cur
	u.LastSeen = time.Now()
	info := *u
	s.mu.Unlock()

	s.broadcast(Event{Type: EvtUsersUpdate, Users: []UserInfo{info}}, userID)
}

// AcquireLock grants the field to the user if nobody holds it. On
// contention it returns a LockError naming the current owner and notifies
// only the requester; there is no queueing.
func (s *Session) AcquireLock(userID, fieldID string) error {
	s.mu.Lock()
	if _, ok := s.users[userID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("user %s not in session", userID)
	}
	if owner, held := s.locks[fieldID]; held && owner != userID {
		requester := s.clients[userID]
		s.mu.Unlock()
		if requester != nil {
			requester.Send(Event{Type: EvtFieldLockFail, FieldID: fieldID, LockedBy: owner})
		}
		return &LockError{FieldID: fieldID, Owner: owner}
	}
	s.locks[fieldID] = userID
	s.mu.Unlock()

	s.broadcast(Event{Type: EvtFieldLocked, FieldID: fieldID, UserID: userID}, "")
	return nil
}

// ReleaseLock releases the field if the caller owns it.
func (s *Session) ReleaseLock(userID, fieldID string) bool {
	s.mu.Lock()
	owner, held := s.locks[fieldID]
	if !held || owner != userID {
		s.mu.Unlock()
		return false
	}
	delete(s.locks, fieldID)
	s.mu.Unlock()

	s.broadcast(Event{Type: EvtFieldUnlocked, FieldID: fieldID}, "")
	return true
}

// ReleaseFieldsForShape drops every lock on fields of a deleted shape
// (convention "shape.<id>" or "shape.<id>.<attr>"), broadcasting each
// release individually.
func (s *Session) ReleaseFieldsForShape(shapeID string) {
	prefix := "shape." + shapeID
	s.mu.Lock()
	var released []string
	for fieldID := range s.locks {
		if fieldID == prefix || strings.HasPrefix(fieldID, prefix+".") {
			released = append(released, fieldID)
		}
	}
	for _, fieldID := range released {
		delete(s.locks, fieldID)
	}
	s.mu.Unlock()

	for _, fieldID := range released {
		s.broadcast(Event{Type: EvtFieldUnlocked, FieldID: fieldID}, "")
	}
}

// ReportChange appends a change record to the bounded log and relays it to
// every other member. A delete action additionally prunes locks held on
// the deleted shape's fields.
func (s *Session) ReportChange(userID, action, fieldID string, payload json.RawMessage) ChangeRecord {
	rec := ChangeRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Timestamp: time.Now(),
		FieldID:   fieldID,
		Action:    action,
		Payload:   payload,
	}
	s.mu.Lock()
	s.changes = append(s.changes, rec)
	if len(s.changes) > s.limit {
		s.changes = s.changes[len(s.changes)-s.limit:]
	}
	s.mu.Unlock()

	s.broadcast(Event{Type: EvtReportChange, Change: &rec}, userID)

	if action == "delete" && strings.HasPrefix(fieldID, "shape.") {
		s.ReleaseFieldsForShape(strings.TrimPrefix(fieldID, "shape."))
	}
	return rec
}

// leave removes the user, releases every lock they hold (each broadcast)
// and announces the departure. Returns the remaining member count and
// whether the user was a member at all.
func (s *Session) leave(userID string) (int, bool) {
	s.mu.Lock()
	if _, ok := s.users[userID]; !ok {
		n := len(s.users)
		s.mu.Unlock()
		return n, false
	}
	delete(s.users, userID)
	delete(s.clients, userID)
	var released []string
	for fieldID, owner := range s.locks {
		if owner == userID {
			released = append(released, fieldID)
		}
	}
	for _, fieldID := range released {
		delete(s.locks, fieldID)
	}
	remaining := len(s.users)
	s.mu.Unlock()

	for _, fieldID := range released {
		s.broadcast(Event{Type: EvtFieldUnlocked, FieldID: fieldID}, "")
	}
	s.broadcast(Event{Type: EvtUserLeft, UserID: userID}, "")
	log.Printf("[collab] %s left document %s (%d remaining)", userID, s.DocumentID, remaining)
	return remaining, true
}

// broadcast fans an event out to every member except the excluded user id.
// An empty exclude sends to everyone.
func (s *Session) broadcast(ev Event, exclude string) {
	s.mu.Lock()
	targets := make([]Client, 0, len(s.clients))
	for id, c := range s.clients {
		if id == exclude {
			continue
		}
		targets = append(targets, c)
	}
	s.mu.Unlock()
	for _, c := range targets {
		c.Send(ev)
	}
}

// Users returns a snapshot of the presence list.
func (s *Session) Users() []UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersLocked()
}

// Locks returns a snapshot of the lock map.
func (s *Session) Locks() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locksLocked()
}

// Changes returns a snapshot of the change log, oldest first.
func (s *Session) Changes() []ChangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChangeRecord, len(s.changes))
	copy(out, s.changes)
	return out
}

func (s *Session) usersLocked() []UserInfo {
	out := make([]UserInfo, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out
}

func (s *Session) locksLocked() map[string]string {
	out := make(map[string]string, len(s.locks))
	for k, v := range s.locks {
		out[k] = v
	}
	return out
}
