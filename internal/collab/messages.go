package collab

import (
	"encoding/json"
	"time"
)

// Client -> server message types.
const (
	MsgJoin         = "join"
	MsgCursorMove   = "cursor-move"
	MsgLockField    = "lock-field"
	MsgUnlockField  = "unlock-field"
	MsgReportChange = "report-change"
)

// Server -> client event types.
const (
	EvtUserJoined     = "user-joined"
	EvtUserLeft       = "user-left"
	EvtUsersUpdate    = "users-update"
	EvtLockMap        = "lock-map"
	EvtFieldLocked    = "field-locked"
	EvtFieldUnlocked  = "field-unlocked"
	EvtFieldLockFail  = "field-lock-failed"
	EvtReportChange   = "report-change"
	EvtRecentActivity = "recent-activity"
)

// Cursor is a user's last-known pointer position on the canvas.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Message is the client -> server envelope. One wide struct with optional
// fields keyed off Type, same shape as the wire format the clients speak.
type Message struct {
	Type    string          `json:"type"`
	Cursor  *Cursor         `json:"cursor,omitempty"`
	FieldID string          `json:"fieldId,omitempty"`
	Action  string          `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UserInfo is the presence record shared with clients.
type UserInfo struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Cursor   Cursor    `json:"cursor"`
	LastSeen time.Time `json:"lastSeen"`
}

// ChangeRecord is one entry of a session's bounded change log. The log is
// relayed to members and replayed to joiners as recent activity; it is not
// authoritative persisted state.
type ChangeRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Timestamp time.Time       `json:"timestamp"`
	FieldID   string          `json:"fieldId"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Event is the server -> client envelope.
type Event struct {
	Type     string            `json:"type"`
	User     *UserInfo         `json:"user,omitempty"`
	Users    []UserInfo        `json:"users,omitempty"`
	FieldID  string            `json:"fieldId,omitempty"`
	UserID   string            `json:"userId,omitempty"`
	LockedBy string            `json:"lockedBy,omitempty"`
	Locks    map[string]string `json:"locks,omitempty"`
	Change   *ChangeRecord     `json:"change,omitempty"`
	Changes  []ChangeRecord    `json:"changes,omitempty"`
}
