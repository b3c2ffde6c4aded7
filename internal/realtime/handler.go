package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"

	"github.com/MacroHEX/auditoria-informatica/internal/hub"
	"github.com/MacroHEX/auditoria-informatica/internal/queue"
)

const requestTimeout = 5 * time.Second

// Reply-only events owned by this surface. Committed events reuse the
// queue package's names so both channels speak the same vocabulary.
const (
	eventInitialState     = "initial_state"
	eventNoTicketsWaiting = "no_tickets_waiting"
	eventOperationError   = "operation_error"
)

type clientMessage struct {
	Action              string `json:"action"`
	Category            string `json:"category,omitempty"`
	CustomerName        string `json:"customer_name,omitempty"`
	IdentificationKind  string `json:"identification_kind,omitempty"`
	IdentificationValue string `json:"identification_value,omitempty"`
	TicketID            string `json:"ticket_id,omitempty"`
	CashierID           string `json:"cashier_id,omitempty"`
}

// sender is the slice of sockjs.Session the reply path needs.
type sender interface {
	Send(msg string) error
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type initialState struct {
	Tickets interface{} `json:"tickets"`
	Status  interface{} `json:"status"`
}

// Handler serves sockjs sessions against the ticket queue.
type Handler struct {
	queue queue.TicketQueue
	hub   *hub.Hub
}

func NewHandler(q queue.TicketQueue, h *hub.Hub) *Handler {
	return &Handler{queue: q, hub: h}
}

// SockJS returns the http.Handler to mount under prefix.
func (h *Handler) SockJS(prefix string) http.Handler {
	return sockjs.NewHandler(prefix, sockjs.DefaultOptions, h.handleSession)
}

func (h *Handler) handleSession(session sockjs.Session) {
	client := &hub.Client{ID: uuid.NewString(), Send: make(chan []byte, 16)}
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	go func() {
		for msg := range client.Send {
			_ = session.Send(string(msg))
		}
	}()

	for {
		raw, err := session.Recv()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			h.reply(session, eventOperationError, errorPayload{
				Code:    "invalid_message",
				Message: "message must be a JSON object with an action",
			})
			continue
		}
		h.dispatch(session, client, msg)
	}
}

func (h *Handler) dispatch(session sender, client *hub.Client, msg clientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch msg.Action {
	case "get_initial_state":
		tickets, err := h.queue.ListTickets(ctx)
		if err != nil {
			h.replyError(session, err)
			return
		}
		status, err := h.queue.SystemStatus(ctx)
		if err != nil {
			h.replyError(session, err)
			return
		}
		h.reply(session, eventInitialState, initialState{Tickets: tickets, Status: status})

	case "generate_ticket":
		ticket, err := h.queue.GenerateTicket(ctx, queue.GenerateTicketRequest{
			Category:            msg.Category,
			CustomerName:        msg.CustomerName,
			IdentificationKind:  msg.IdentificationKind,
			IdentificationValue: msg.IdentificationValue,
		})
		if err != nil {
			h.replyError(session, err)
			return
		}
		h.reply(session, queue.EventTicketCreated, ticket)

	case "call_next":
		ticket, call, ok, err := h.queue.CallNext(ctx, msg.CashierID)
		if err != nil {
			h.replyError(session, err)
			return
		}
		if !ok {
			h.reply(session, eventNoTicketsWaiting, nil)
			return
		}
		h.reply(session, queue.EventTicketCalled, queue.CalledTicket{
			Ticket:    ticket,
			Call:      call,
			CashierID: call.CashierID,
		})

	case "complete_ticket":
		ticket, ok, err := h.queue.CompleteTicket(ctx, msg.TicketID, msg.CashierID)
		if err != nil {
			h.replyError(session, err)
			return
		}
		if !ok {
			h.reply(session, eventOperationError, errorPayload{
				Code:    "call_not_found",
				Message: "no open call for that ticket and cashier",
			})
			return
		}
		h.reply(session, queue.EventTicketCompleted, ticket)

	case "subscribe":
		h.hub.UpdateSubscription(client, msg.Category)

	case "unsubscribe":
		h.hub.UpdateSubscription(client, "")

	default:
		h.reply(session, eventOperationError, errorPayload{
			Code:    "unknown_action",
			Message: "unknown action " + msg.Action,
		})
	}
}

func (h *Handler) reply(session sender, event string, payload interface{}) {
	env := Envelope{Type: event, Payload: payload, CreatedAt: time.Now().UTC()}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("marshal reply event=%s error=%v", event, err)
		return
	}
	if err := session.Send(string(data)); err != nil {
		log.Printf("send reply event=%s error=%v", event, err)
	}
}

func (h *Handler) replyError(session sender, err error) {
	var verr *queue.ValidationError
	if errors.As(err, &verr) {
		h.reply(session, eventOperationError, errorPayload{
			Code:    "invalid_request",
			Message: verr.Message,
			Field:   verr.Field,
		})
		return
	}
	h.reply(session, eventOperationError, errorPayload{
		Code:    "internal_error",
		Message: "operation failed",
	})
}
