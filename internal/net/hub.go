package net

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"markpad/internal/state"
)

// Hub is the receiving side of collaborator sync. It accepts websocket
// connections on /sync, keeps the latest annotation sequence per session,
// and relays each update to every other listener, so one instance can act
// as the collaborator for editors on the LAN.
type Hub struct {
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	conns  map[*websocket.Conn]*sync.Mutex
	latest map[string][]state.Annotation
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// Editors on the LAN are not browsers; no origin to check.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns:  make(map[*websocket.Conn]*sync.Mutex),
		latest: make(map[string][]state.Annotation),
	}
}

// Sessions returns the session IDs with a stored annotation sequence.
func (h *Hub) Sessions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.latest))
	for id := range h.latest {
		out = append(out, id)
	}
	return out
}

// Annotations returns the latest stored sequence for a session.
func (h *Hub) Annotations(session string) []state.Annotation {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]state.Annotation(nil), h.latest[session]...)
}

// ListenAndServe blocks serving the sync endpoint on the given port.
func (h *Hub) ListenAndServe(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", h.handleSync)
	log.Printf("[hub] listening on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

func (h *Hub) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[hub] upgrade failed: %v", err)
		return
	}
	h.add(conn)
	defer h.remove(conn)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("[hub] %s disconnected: %v", conn.RemoteAddr(), err)
			return
		}
		switch msg.Type {
		case "annotations":
			h.mu.Lock()
			h.latest[msg.Session] = append([]state.Annotation(nil), msg.Annotations...)
			h.mu.Unlock()
			log.Printf("[hub] session %s: %d annotations", msg.Session, len(msg.Annotations))
			h.broadcast(msg, conn)
		default:
			log.Printf("[hub] ignoring message type %q from %s", msg.Type, conn.RemoteAddr())
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = &sync.Mutex{}
	log.Printf("[hub] added connection %s", conn.RemoteAddr())
}

func (h *Hub) remove(conn *websocket.Conn) {
	conn.Close()
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	log.Printf("[hub] removed connection %s", conn.RemoteAddr())
}

// broadcast relays a message to every connection except the sender.
// Relays run from each sender's reader goroutine, and a websocket
// connection allows only one writer at a time, so writes serialize under
// the per-connection mutex.
func (h *Hub) broadcast(msg Message, exclude *websocket.Conn) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, wmu := range h.conns {
		if conn == exclude {
			continue
		}
		wmu.Lock()
		err := conn.WriteJSON(msg)
		wmu.Unlock()
		if err != nil {
			log.Printf("[hub] relay to %s failed: %v", conn.RemoteAddr(), err)
		}
	}
}
