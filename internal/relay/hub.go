// Package relay pushes hit notifications to connected scoreboard viewers
// over WebSockets and accepts hits injected from the page.
package relay

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Wire tokens.
const (
	// HitToken is broadcast to every viewer when a hit is dispatched.
	HitToken = "HIT"
	// InjectToken, sent by a viewer, queues a hit without the sensor.
	InjectToken = "hit"
)

const sendQueue = 8

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The page is served from the device itself; there is no origin to trust.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks viewers and fans out tokens to them.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	onInject   func()

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a hub. onInject is called once for every inbound
// InjectToken message; it runs on the viewer's read goroutine.
func NewHub(onInject func()) *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendQueue),
		done:       make(chan struct{}),
		onInject:   onInject,
		clients:    make(map[*client]struct{}),
	}
}

// Run services registrations and broadcasts until ctx is cancelled, then
// disconnects every viewer.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("relay: viewer %s connected (%d viewers)", c.id, n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("relay: viewer %s disconnected (%d viewers)", c.id, n)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Viewer is not keeping up; it misses this token.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues token for every connected viewer. It never blocks and
// reports no delivery outcome.
func (h *Hub) Broadcast(token string) {
	select {
	case h.broadcast <- []byte(token):
	default:
		log.Printf("relay: broadcast queue full, dropping %q", token)
	}
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves one viewer until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("relay: upgrade error: %v", err)
		return
	}

	c := newClient(conn)
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	c.readPump(h)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
