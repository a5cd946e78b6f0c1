// Package hub fans broadcast messages out to every connected client.
package hub

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// Client is one registered connection. Transports drain Outbound and write
// each frame to the wire.
type Client struct {
	id   string
	send chan []byte
	conn io.Closer

	closeOnce sync.Once
}

func NewClient(id string, buffer int, conn io.Closer) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{id: id, send: make(chan []byte, buffer), conn: conn}
}

func (c *Client) ID() string { return c.id }

// Outbound is closed once the client leaves the hub.
func (c *Client) Outbound() <-chan []byte { return c.send }

// Close closes the connection, which ends the transport's read loop.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Hub tracks connected clients. It never calls back into its owner, so it is
// safe to broadcast while holding other locks.
type Hub struct {
	mu      deadlock.Mutex
	clients map[string]*Client
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

// Unregister removes the client and closes its outbound channel. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		h.dropLocked(c)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast encodes msg once and queues it for every client. A client whose
// queue is full is dropped and its connection closed; the rest still get the message.
func (h *Hub) Broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("encode broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("participant", c.id).Msg("send queue full, dropping client")
			h.dropLocked(c)
		}
	}
}

func (h *Hub) dropLocked(c *Client) {
	delete(h.clients, c.id)
	close(c.send)
	c.Close()
}
