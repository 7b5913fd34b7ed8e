package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/event"
)

const DefaultClientBuffer = 64

// Client is one connected observer. Frames queued for it are read from Send.
type Client struct {
	ID   string
	send chan []byte

	// guarded by Hub.mu
	rooms  map[string]bool
	closed bool
}

func newClient(buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:    uuid.NewString(),
		send:  make(chan []byte, buffer),
		rooms: make(map[string]bool),
	}
}

// Send is closed when the client is dropped from the hub.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Hub keeps room membership for the clients connected to this instance and
// delivers room events to them without blocking the publisher.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]bool
	clients map[*Client]bool
	buffer  int
	logger  apt.Logger
}

func NewHub(buffer int, logger apt.Logger) *Hub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		rooms:   make(map[string]map[*Client]bool),
		clients: make(map[*Client]bool),
		buffer:  buffer,
		logger:  logger,
	}
}

// Connect registers a new client with no room memberships.
func (h *Hub) Connect() *Client {
	c := newClient(h.buffer)
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.closed {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
	c.rooms[room] = true
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Drop removes the client from every room and closes its queue.
func (h *Hub) Drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *Client) {
	if c.closed {
		return
	}
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
	c.closed = true
	close(c.send)
}

// Close drops every connected client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
	h.logger.Info("realtime hub closed")
}

// Publish delivers msg to every client in room. A client whose queue is full
// misses the event.
func (h *Hub) Publish(ctx context.Context, room string, msg []byte) error {
	frame, err := json.Marshal(event.Envelope{Room: room, Data: json.RawMessage(msg)})
	if err != nil {
		return fmt.Errorf("cannot encode frame for room %s: %w", room, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		if !c.enqueue(frame) {
			h.logger.Debug("client queue full, dropping event", "client_id", c.ID, "room", room)
		}
	}
	return nil
}

// Deliver queues a frame for a single client. Dropped clients report false.
func (h *Hub) Deliver(c *Client, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.closed {
		return false
	}
	return c.enqueue(frame)
}

func (c *Client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Members reports how many clients are in room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Connections reports how many clients are connected.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
