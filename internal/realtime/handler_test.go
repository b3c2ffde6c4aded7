package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/MacroHEX/auditoria-informatica/internal/hub"
	"github.com/MacroHEX/auditoria-informatica/internal/models"
	"github.com/MacroHEX/auditoria-informatica/internal/queue"
)

type fakeQueue struct {
	generate    func(ctx context.Context, req queue.GenerateTicketRequest) (models.Ticket, error)
	callNext    func(ctx context.Context, cashierID string) (models.Ticket, models.CallRecord, bool, error)
	complete    func(ctx context.Context, ticketID, cashierID string) (models.Ticket, bool, error)
	cancel      func(ctx context.Context, ticketID string) (models.Ticket, bool, error)
	list        func(ctx context.Context) ([]models.Ticket, error)
	recentCalls func(ctx context.Context, limit int) ([]models.CallRecord, error)
	status      func(ctx context.Context) (models.StatusSnapshot, error)
}

func (f *fakeQueue) GenerateTicket(ctx context.Context, req queue.GenerateTicketRequest) (models.Ticket, error) {
	return f.generate(ctx, req)
}

func (f *fakeQueue) CallNext(ctx context.Context, cashierID string) (models.Ticket, models.CallRecord, bool, error) {
	return f.callNext(ctx, cashierID)
}

func (f *fakeQueue) CompleteTicket(ctx context.Context, ticketID, cashierID string) (models.Ticket, bool, error) {
	return f.complete(ctx, ticketID, cashierID)
}

func (f *fakeQueue) CancelTicket(ctx context.Context, ticketID string) (models.Ticket, bool, error) {
	return f.cancel(ctx, ticketID)
}

func (f *fakeQueue) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	return f.list(ctx)
}

func (f *fakeQueue) ListRecentCalls(ctx context.Context, limit int) ([]models.CallRecord, error) {
	return f.recentCalls(ctx, limit)
}

func (f *fakeQueue) SystemStatus(ctx context.Context) (models.StatusSnapshot, error) {
	return f.status(ctx)
}

type fakeSender struct {
	frames []string
}

func (f *fakeSender) Send(msg string) error {
	f.frames = append(f.frames, msg)
	return nil
}

func (f *fakeSender) lastEnvelope(t *testing.T) (string, json.RawMessage) {
	t.Helper()
	if len(f.frames) == 0 {
		t.Fatal("expected a reply frame")
	}
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal([]byte(f.frames[len(f.frames)-1]), &env); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return env.Type, env.Payload
}

func newTestHandler(q queue.TicketQueue) (*Handler, *hub.Client) {
	h := NewHandler(q, hub.New())
	return h, &hub.Client{ID: "session", Send: make(chan []byte, 4)}
}

func TestGetInitialState(t *testing.T) {
	q := &fakeQueue{
		list: func(ctx context.Context) ([]models.Ticket, error) {
			return []models.Ticket{{Number: "V02"}, {Number: "V01"}}, nil
		},
		status: func(ctx context.Context) (models.StatusSnapshot, error) {
			return models.StatusSnapshot{TotalTickets: 2, TicketsWaiting: 2}, nil
		},
	}
	h, client := newTestHandler(q)
	session := &fakeSender{}

	h.dispatch(session, client, clientMessage{Action: "get_initial_state"})

	typ, payload := session.lastEnvelope(t)
	if typ != "initial_state" {
		t.Fatalf("expected initial_state, got %s", typ)
	}
	var state struct {
		Tickets []models.Ticket       `json:"tickets"`
		Status  models.StatusSnapshot `json:"status"`
	}
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(state.Tickets) != 2 || state.Tickets[0].Number != "V02" {
		t.Fatalf("unexpected tickets %+v", state.Tickets)
	}
	if state.Status.TotalTickets != 2 {
		t.Fatalf("unexpected status %+v", state.Status)
	}
}

func TestGenerateTicketReply(t *testing.T) {
	q := &fakeQueue{
		generate: func(ctx context.Context, req queue.GenerateTicketRequest) (models.Ticket, error) {
			if req.Category != "caja" {
				t.Fatalf("unexpected category %s", req.Category)
			}
			return models.Ticket{Number: "C01", Category: "caja", Status: models.StatusWaiting}, nil
		},
	}
	h, client := newTestHandler(q)
	session := &fakeSender{}

	h.dispatch(session, client, clientMessage{
		Action:              "generate_ticket",
		Category:            "caja",
		CustomerName:        "Maria Lopez",
		IdentificationKind:  "national_id",
		IdentificationValue: "4123456",
	})

	typ, payload := session.lastEnvelope(t)
	if typ != queue.EventTicketCreated {
		t.Fatalf("expected %s, got %s", queue.EventTicketCreated, typ)
	}
	var ticket models.Ticket
	if err := json.Unmarshal(payload, &ticket); err != nil {
		t.Fatalf("unmarshal ticket: %v", err)
	}
	if ticket.Number != "C01" {
		t.Fatalf("unexpected ticket %+v", ticket)
	}
}

func TestGenerateTicketValidationError(t *testing.T) {
	q := &fakeQueue{
		generate: func(ctx context.Context, req queue.GenerateTicketRequest) (models.Ticket, error) {
			return models.Ticket{}, &queue.ValidationError{Field: "customer_name", Message: "is required"}
		},
	}
	h, client := newTestHandler(q)
	session := &fakeSender{}

	h.dispatch(session, client, clientMessage{Action: "generate_ticket", Category: "caja"})

	typ, payload := session.lastEnvelope(t)
	if typ != "operation_error" {
		t.Fatalf("expected operation_error, got %s", typ)
	}
	var perr errorPayload
	if err := json.Unmarshal(payload, &perr); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if perr.Code != "invalid_request" || perr.Field != "customer_name" {
		t.Fatalf("unexpected error payload %+v", perr)
	}
}

func TestCallNextEmptyQueueReply(t *testing.T) {
	q := &fakeQueue{
		callNext: func(ctx context.Context, cashierID string) (models.Ticket, models.CallRecord, bool, error) {
			return models.Ticket{}, models.CallRecord{}, false, nil
		},
	}
	h, client := newTestHandler(q)
	session := &fakeSender{}

	h.dispatch(session, client, clientMessage{Action: "call_next", CashierID: "cashier-1"})

	typ, _ := session.lastEnvelope(t)
	if typ != "no_tickets_waiting" {
		t.Fatalf("expected no_tickets_waiting, got %s", typ)
	}
}

func TestCallNextReply(t *testing.T) {
	q := &fakeQueue{
		callNext: func(ctx context.Context, cashierID string) (models.Ticket, models.CallRecord, bool, error) {
			ticket := models.Ticket{Number: "A04", Category: "asesoria", Status: models.StatusCalled}
			call := models.CallRecord{CashierID: cashierID}
			return ticket, call, true, nil
		},
	}
	h, client := newTestHandler(q)
	session := &fakeSender{}

	h.dispatch(session, client, clientMessage{Action: "call_next", CashierID: "cashier-7"})

	typ, payload := session.lastEnvelope(t)
	if typ != queue.EventTicketCalled {
		t.Fatalf("expected %s, got %s", queue.EventTicketCalled, typ)
	}
	var called queue.CalledTicket
	if err := json.Unmarshal(payload, &called); err != nil {
		t.Fatalf("unmarshal called payload: %v", err)
	}
	if called.Ticket.Number != "A04" || called.CashierID != "cashier-7" {
		t.Fatalf("unexpected called payload %+v", called)
	}
}

func TestCompleteTicketNoMatchReply(t *testing.T) {
	q := &fakeQueue{
		complete: func(ctx context.Context, ticketID, cashierID string) (models.Ticket, bool, error) {
			return models.Ticket{}, false, nil
		},
	}
	h, client := newTestHandler(q)
	session := &fakeSender{}

	h.dispatch(session, client, clientMessage{Action: "complete_ticket", TicketID: "t1", CashierID: "cashier-1"})

	typ, payload := session.lastEnvelope(t)
	if typ != "operation_error" {
		t.Fatalf("expected operation_error, got %s", typ)
	}
	var perr errorPayload
	if err := json.Unmarshal(payload, &perr); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if perr.Code != "call_not_found" {
		t.Fatalf("unexpected code %s", perr.Code)
	}
}

func TestUnknownAction(t *testing.T) {
	h, client := newTestHandler(&fakeQueue{})
	session := &fakeSender{}

	h.dispatch(session, client, clientMessage{Action: "reboot"})

	typ, payload := session.lastEnvelope(t)
	if typ != "operation_error" {
		t.Fatalf("expected operation_error, got %s", typ)
	}
	var perr errorPayload
	if err := json.Unmarshal(payload, &perr); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if perr.Code != "unknown_action" {
		t.Fatalf("unexpected code %s", perr.Code)
	}
}

func TestSubscribeFiltersBroadcasts(t *testing.T) {
	h := hub.New()
	broadcaster := NewBroadcaster(h)
	handler := NewHandler(&fakeQueue{}, h)

	client := &hub.Client{ID: "display", Send: make(chan []byte, 4)}
	h.Register(client)
	handler.dispatch(&fakeSender{}, client, clientMessage{Action: "subscribe", Category: "caja"})

	broadcaster.Publish(queue.EventTicketCreated, models.Ticket{Number: "V01", Category: "ventanilla"})
	select {
	case frame := <-client.Send:
		t.Fatalf("display subscribed to caja should not get ventanilla frame %s", frame)
	default:
	}

	broadcaster.Publish(queue.EventTicketCreated, models.Ticket{Number: "C01", Category: "caja"})
	select {
	case frame := <-client.Send:
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		if env.Type != queue.EventTicketCreated {
			t.Fatalf("unexpected type %s", env.Type)
		}
		if env.CreatedAt.IsZero() || env.CreatedAt.After(time.Now().Add(time.Second)) {
			t.Fatalf("unexpected created_at %v", env.CreatedAt)
		}
	default:
		t.Fatal("display should receive caja frame")
	}
}

func TestBroadcasterCalledTicketCategory(t *testing.T) {
	h := hub.New()
	broadcaster := NewBroadcaster(h)

	client := &hub.Client{ID: "display", Send: make(chan []byte, 4), Category: "asesoria"}
	h.Register(client)

	broadcaster.Publish(queue.EventTicketCalled, queue.CalledTicket{
		Ticket:    models.Ticket{Number: "A02", Category: "asesoria"},
		CashierID: "cashier-3",
	})

	select {
	case <-client.Send:
	default:
		t.Fatal("asesoria display should receive asesoria call")
	}
}
