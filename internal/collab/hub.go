package collab

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Hub accepts websocket connections and bridges them onto the session
// registry. One goroutine reads each connection, one writes it.
//
// The optional hooks let the server follow the document lifecycle: Joined
// fires after a member is registered, Left after one leaves (with the
// remaining count), Changed after a reported change was relayed.
type Hub struct {
	Registry *Registry
	upgrader websocket.Upgrader

	Joined  func(documentID string)
	Left    func(documentID string, remaining int)
	Changed func(documentID, userID, action, fieldID string, payload json.RawMessage)
}

// NewHub creates a hub over the given registry.
func NewHub(reg *Registry) *Hub {
	return &Hub{
		Registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The identity provider in front of this server is trusted to
			// vet origins; the core does not re-check them.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades GET /ws?doc=<id>&user=<id>&name=<display> into a
// collaboration channel.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("doc")
	userID := r.URL.Query().Get("user")
	name := r.URL.Query().Get("name")
	if docID == "" || userID == "" {
		http.Error(w, "doc and user are required", http.StatusBadRequest)
		return
	}
	if name == "" {
		name = userID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[collab] upgrade failed: %v", err)
		return
	}

	c := &wsClient{
		userID: userID,
		conn:   conn,
		send:   make(chan Event, sendBufferSize),
	}
	session := h.Registry.Join(docID, c, name)
	if h.Joined != nil {
		h.Joined(docID)
	}

	go c.writePump()
	go h.readPump(c, session, docID)
}

// wsClient is one websocket-connected collaborator.
type wsClient struct {
	userID string
	conn   *websocket.Conn

	mu     sync.Mutex
	send   chan Event
	closed bool
}

func (c *wsClient) UserID() string { return c.userID }

// Send queues an event for the write pump. A client that cannot keep up
// loses events rather than stalling the whole session; a broadcast racing
// the disconnect is silently dropped.
func (c *wsClient) Send(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- ev:
	default:
		log.Printf("[collab] dropping event for slow client %s", c.userID)
	}
}

func (c *wsClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump decodes messages from the wire and dispatches them onto the
// session until the connection dies, then cleans up.
func (h *Hub) readPump(c *wsClient, s *Session, docID string) {
	defer func() {
		remaining := h.Registry.Leave(docID, c.userID)
		if h.Left != nil {
			h.Left(docID, remaining)
		}
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[collab] %s read error: %v", c.userID, err)
			}
			return
		}

		switch msg.Type {
		case MsgCursorMove:
			if msg.Cursor != nil {
				s.UpdateCursor(c.userID, *msg.Cursor)
			}
		case MsgLockField:
			// A failed acquire already notified the requester.
			_ = s.AcquireLock(c.userID, msg.FieldID)
		case MsgUnlockField:
			s.ReleaseLock(c.userID, msg.FieldID)
		case MsgReportChange:
			s.ReportChange(c.userID, msg.Action, msg.FieldID, msg.Payload)
			if h.Changed != nil {
				h.Changed(docID, c.userID, msg.Action, msg.FieldID, msg.Payload)
			}
		default:
			log.Printf("[collab] %s sent unknown message type %q", c.userID, msg.Type)
		}
	}
}

// writePump serializes queued events onto the connection and keeps the
// connection alive with pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
