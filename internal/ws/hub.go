// Package ws pushes live chat and notification events to connected
// customer and technician dashboards.
package ws

import (
	"context"
	"sync"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/logger"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

// ActorKey identifies a connection owner: "customer:<id>" or
// "technician:<id>". One actor may hold several connections (tabs).
func ActorKey(role model.SenderRole, id string) string {
	return string(role) + ":" + id
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	total    int
	maxConns int

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(maxConns int) *Hub {
	if maxConns <= 0 {
		maxConns = 10000
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		maxConns:   maxConns,
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) shutdown() {
	// Collect all clients under the lock; no I/O while holding the mutex.
	h.mu.Lock()
	allClients := make([]*Client, 0, h.total)
	for _, clients := range h.clients {
		for c := range clients {
			allClients = append(allClients, c)
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.total = 0
	h.mu.Unlock()

	for _, c := range allClients {
		c.Close()
	}
	for _, c := range allClients {
		c.Wait()
	}
}

func (h *Hub) addClient(c *Client) {
	// The unregister for a fast-failing connection can be drained before
	// its register. Never admit a client that is already closed; it would
	// stay in the map and count against maxConns forever.
	select {
	case <-c.done:
		return
	default:
	}
	h.mu.Lock()
	if h.total >= h.maxConns {
		h.mu.Unlock()
		logger.Errorf("ws connection limit reached (%d), rejecting actor=%s", h.maxConns, c.actor)
		c.Close()
		return
	}
	if _, ok := h.clients[c.actor]; !ok {
		h.clients[c.actor] = make(map[*Client]struct{})
	}
	h.clients[c.actor][c] = struct{}{}
	h.total++
	h.mu.Unlock()
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	clients, ok := h.clients[c.actor]
	if !ok {
		h.mu.Unlock()
		// Unregister arrived ahead of register; closing here makes the
		// later addClient drop the client instead of admitting it.
		c.Close()
		return
	}
	if _, exists := clients[c]; !exists {
		h.mu.Unlock()
		c.Close()
		return
	}
	delete(clients, c)
	h.total--
	if len(clients) == 0 {
		delete(h.clients, c.actor)
	}
	h.mu.Unlock()

	c.Close()
}

// SendToActor delivers a message to every connection of one actor.
// Slow consumers with a full send buffer are skipped, never blocked on.
func (h *Hub) SendToActor(role model.SenderRole, id string, msg OutgoingMessage) {
	key := ActorKey(role, id)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[key]))
	for c := range h.clients[key] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.sendToClient(c, msg)
	}
}

// BroadcastToTechnicians fans a message out to the given technician ids.
func (h *Hub) BroadcastToTechnicians(ids []string, msg OutgoingMessage) {
	for _, id := range ids {
		h.SendToActor(model.RoleTechnician, id, msg)
	}
}

func (h *Hub) sendToClient(c *Client, msg OutgoingMessage) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		logger.Errorf("ws send buffer full, dropping event actor=%s type=%s", c.actor, msg.Type)
	}
}
