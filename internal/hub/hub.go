// Package hub tracks connected viewers and fans broadcast frames out to
// them. It is transport-agnostic: sessions register a client with a send
// channel and drain it however they like.
package hub

import (
	"expvar"
	"log"
	"sync"
)

var broadcastsTotal = expvar.NewInt("broadcasts_total")

type Client struct {
	ID       string
	Send     chan []byte
	Category string // empty receives every category
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) UpdateSubscription(client *Client, category string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Category = category
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers payload to every client whose subscription matches
// category (empty category matches everyone). Delivery is at-most-once:
// a client whose send buffer is full misses the frame.
func (h *Hub) Broadcast(payload []byte, category string) {
	broadcastsTotal.Add(1)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.Category != "" && category != "" && client.Category != category {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("drop message for client %s", client.ID)
		}
	}
}
