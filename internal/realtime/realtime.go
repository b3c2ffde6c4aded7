// Package realtime exposes the ticket queue over sockjs sessions.
//
// Committed events reach every connected viewer through the hub; replies
// that only concern the requesting session (initial state, empty queue,
// operation errors) are sent on the session directly.
package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/MacroHEX/auditoria-informatica/internal/hub"
	"github.com/MacroHEX/auditoria-informatica/internal/models"
	"github.com/MacroHEX/auditoria-informatica/internal/queue"
)

// Envelope is the frame format shared by broadcasts and direct replies.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Broadcaster adapts the hub to the queue service's publisher contract.
type Broadcaster struct {
	hub *hub.Hub
}

func NewBroadcaster(h *hub.Hub) *Broadcaster {
	return &Broadcaster{hub: h}
}

func (b *Broadcaster) Publish(event string, payload interface{}) {
	env := Envelope{Type: event, Payload: payload, CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("marshal broadcast event=%s error=%v", event, err)
		return
	}
	b.hub.Broadcast(data, categoryOf(payload))
}

func categoryOf(payload interface{}) string {
	switch p := payload.(type) {
	case models.Ticket:
		return p.Category
	case queue.CalledTicket:
		return p.Ticket.Category
	}
	return ""
}
