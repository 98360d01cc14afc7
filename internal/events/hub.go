// Package events is the local event bus: it fans strike results,
// notifications, and stats rollups out to WebSocket-connected dashboard
// clients. Adapted from internal/websocket/hub.go+client.go — same
// register/unregister/broadcast channel shape, same sync.Pool buffer
// reuse, same slow-client eviction, generalized from CEX pair/balance
// updates to this domain's opportunity/strike/notification vocabulary.
package events

import (
	"bytes"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub manages all active WebSocket connections and fans out broadcast
// messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	mu         sync.RWMutex

	dropped int64

	log *zap.Logger
}

// NewHub constructs a Hub. Run it in its own goroutine via go hub.Run().
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		log:        log,
	}
}

// Run is the Hub's main loop: register/unregister clients and fan out
// broadcasts. Copies the client list under a short RLock before sending,
// so a slow client never blocks register/unregister.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					toRemove = append(toRemove, client)
					atomic.AddInt64(&h.dropped, 1)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				if h.log != nil {
					h.log.Warn("evicted slow clients", zap.Int("count", len(toRemove)))
				}
			}
		}
	}
}

// Stop terminates Run.
func (h *Hub) Stop() {
	close(h.stop)
}

// BroadcastRaw sends an already-serialized payload to all clients.
func (h *Hub) BroadcastRaw(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		atomic.AddInt64(&h.dropped, 1)
	}
}

// Broadcast marshals message and sends it to all clients.
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		if h.log != nil {
			h.log.Error("broadcast marshal failed", zap.Error(err))
		}
		jsonBufferPool.Put(buf)
		return
	}

	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.BroadcastRaw(msgCopy)
}

// ClientCount returns the current number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages returns the cumulative count of messages dropped
// because a client's send buffer was full.
func (h *Hub) DroppedMessages() int64 {
	return atomic.LoadInt64(&h.dropped)
}
