package ws

import (
	"log"
	"sync"
)

// Conn is the subset of *websocket.Conn the hub needs. Kept as an
// interface so tests can register fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Event is the envelope written to every live connection.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub is the process-local connection registry: user id -> live
// connections. It carries no business data and is rebuilt from scratch
// on restart by clients reconnecting.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*registration      // by connection id
	users map[int64]map[string]struct{} // user id -> connection ids
}

type registration struct {
	userID int64
	conn   Conn

	// gorilla allows one concurrent writer per connection; every write
	// goes through this mutex.
	writeMu sync.Mutex
}

func (r *registration) write(ev Event) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteJSON(ev)
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*registration),
		users: make(map[int64]map[string]struct{}),
	}
}

// Register adds a connection for the given user. Re-registering the same
// connection id before disconnect is idempotent.
func (h *Hub) Register(userID int64, connID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[connID]; ok {
		return
	}
	h.conns[connID] = &registration{userID: userID, conn: conn}
	if h.users[userID] == nil {
		h.users[userID] = make(map[string]struct{})
	}
	h.users[userID][connID] = struct{}{}
}

// Unregister removes a connection from all mappings. Unknown ids are a no-op.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reg, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)
	if ids, ok := h.users[reg.userID]; ok {
		delete(ids, connID)
		if len(ids) == 0 {
			delete(h.users, reg.userID)
		}
	}
}

// Broadcast fans the event out to every live connection of the user. When
// the user has none the event is silently dropped; the durable rows are
// the source of truth, not delivery.
func (h *Hub) Broadcast(userID int64, event string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids, ok := h.users[userID]
	if !ok {
		return
	}
	for connID := range ids {
		reg := h.conns[connID]
		if reg == nil {
			continue
		}
		if err := reg.write(Event{Type: event, Data: payload}); err != nil {
			log.Printf("ws: write to user %d conn %s: %v", userID, connID, err)
			reg.conn.Close()
			// stale entries are pruned on Unregister when the read loop exits
		}
	}
}

// ConnectionCount reports how many live connections a user currently holds.
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
