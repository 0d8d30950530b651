package collab

import (
	"log"
	"sync"
)

// Registry owns one Session per open document. Sessions are created on
// first join and destroyed when the last member leaves; nothing outside
// the registry deletes sessions.
type Registry struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	members     map[string]int // joins minus leaves, owned by mu
	changeLimit int
}

// NewRegistry creates an empty registry. changeLimit <= 0 takes the
// default change-log cap.
func NewRegistry(changeLimit int) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		members:     make(map[string]int),
		changeLimit: changeLimit,
	}
}

// Join connects a client to the document's session, creating the session
// if it does not exist yet, and returns it.
func (r *Registry) Join(documentID string, c Client, name string) *Session {
	r.mu.Lock()
	s, ok := r.sessions[documentID]
	if !ok {
		s = newSession(documentID, r.changeLimit)
		r.sessions[documentID] = s
		log.Printf("[collab] session created for document %s", documentID)
	}
	// Counted before the lock drops, so a racing last-member Leave cannot
	// destroy the session out from under this joiner.
	r.members[documentID]++
	r.mu.Unlock()

	s.join(c, name)
	return s
}

// Leave disconnects the user from the document's session and returns the
// remaining member count. The session is destroyed once every counted
// join has left. Leaving with an unknown user id changes nothing.
func (r *Registry) Leave(documentID, userID string) int {
	r.mu.Lock()
	s, ok := r.sessions[documentID]
	r.mu.Unlock()
	if !ok {
		return 0
	}

	remaining, wasMember := s.leave(userID)
	if !wasMember {
		return remaining
	}

	r.mu.Lock()
	r.members[documentID]--
	if r.members[documentID] <= 0 && r.sessions[documentID] == s {
		delete(r.sessions, documentID)
		delete(r.members, documentID)
		log.Printf("[collab] session destroyed for document %s", documentID)
	}
	r.mu.Unlock()
	return remaining
}

// Get returns the session for a document, or nil when none is open.
func (r *Registry) Get(documentID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[documentID]
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
