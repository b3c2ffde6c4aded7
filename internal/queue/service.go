// Package queue orchestrates the ticket lifecycle: generate, call,
// complete, cancel. It validates input, delegates atomicity to the
// store, and publishes committed state changes to a fan-out sink.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/MacroHEX/auditoria-informatica/internal/models"
	"github.com/MacroHEX/auditoria-informatica/internal/store"
)

// Publisher receives committed state changes for broadcast to connected
// viewers. Delivery is best-effort; the queue never blocks on it.
type Publisher interface {
	Publish(event string, payload interface{})
}

const (
	EventTicketCreated   = "ticket_created"
	EventTicketCalled    = "ticket_called"
	EventTicketCompleted = "ticket_completed"
	EventTicketCancelled = "ticket_cancelled"
)

// ErrOperationFailed hides store failures from callers. The underlying
// cause is logged, never returned.
var ErrOperationFailed = errors.New("operation failed")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CalledTicket is the fan-out payload for a claimed ticket.
type CalledTicket struct {
	Ticket    models.Ticket     `json:"ticket"`
	Call      models.CallRecord `json:"call"`
	CashierID string            `json:"cashier_id"`
}

type Service struct {
	store     store.TicketStore
	publisher Publisher
}

// NewService wires the queue onto a shared store and fan-out sink. The
// service holds no state of its own; both collaborators are injected.
func NewService(st store.TicketStore, publisher Publisher) *Service {
	return &Service{store: st, publisher: publisher}
}

type GenerateTicketRequest struct {
	Category            string
	CustomerName        string
	IdentificationKind  string
	IdentificationValue string
}

func (s *Service) GenerateTicket(ctx context.Context, req GenerateTicketRequest) (models.Ticket, error) {
	req.Category = strings.TrimSpace(req.Category)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.IdentificationKind = strings.TrimSpace(req.IdentificationKind)
	req.IdentificationValue = strings.TrimSpace(req.IdentificationValue)

	if !models.ValidCategory(req.Category) {
		return models.Ticket{}, &ValidationError{Field: "category", Message: "must be one of ventanilla, caja, asesoria"}
	}
	if req.CustomerName == "" {
		return models.Ticket{}, &ValidationError{Field: "customer_name", Message: "is required"}
	}
	if !models.ValidIdentificationKind(req.IdentificationKind) {
		return models.Ticket{}, &ValidationError{Field: "identification_kind", Message: "must be one of national_id, passport, foreign_id, phone"}
	}
	if req.IdentificationValue == "" {
		if req.IdentificationKind == models.IdentificationPhone {
			return models.Ticket{}, &ValidationError{Field: "identification_value", Message: "phone number is required"}
		}
		return models.Ticket{}, &ValidationError{Field: "identification_value", Message: "document number is required"}
	}

	ticket, err := s.store.GenerateTicket(ctx, store.GenerateTicketInput{
		Category:            req.Category,
		CustomerName:        req.CustomerName,
		IdentificationKind:  req.IdentificationKind,
		IdentificationValue: req.IdentificationValue,
	})
	if err != nil {
		log.Printf("generate ticket category=%s error=%v", req.Category, err)
		return models.Ticket{}, fmt.Errorf("generate ticket: %w", ErrOperationFailed)
	}

	log.Printf("ticket generated number=%s category=%s", ticket.Number, ticket.Category)
	s.publisher.Publish(EventTicketCreated, ticket)
	return ticket, nil
}

// CallNext claims the oldest waiting ticket for cashierID. An empty
// queue is a normal outcome, reported as ok=false with a nil error.
func (s *Service) CallNext(ctx context.Context, cashierID string) (models.Ticket, models.CallRecord, bool, error) {
	cashierID = strings.TrimSpace(cashierID)
	if cashierID == "" {
		return models.Ticket{}, models.CallRecord{}, false, &ValidationError{Field: "cashier_id", Message: "is required"}
	}

	ticket, record, err := s.store.CallNext(ctx, store.CallNextInput{CashierID: cashierID})
	if err != nil {
		if errors.Is(err, store.ErrNoTicketWaiting) {
			return models.Ticket{}, models.CallRecord{}, false, nil
		}
		log.Printf("call next cashier=%s error=%v", cashierID, err)
		return models.Ticket{}, models.CallRecord{}, false, fmt.Errorf("call next: %w", ErrOperationFailed)
	}

	log.Printf("ticket called number=%s cashier=%s", ticket.Number, cashierID)
	s.publisher.Publish(EventTicketCalled, CalledTicket{
		Ticket:    ticket,
		Call:      record,
		CashierID: cashierID,
	})
	return ticket, record, true, nil
}

// CompleteTicket closes the active call on ticketID, provided cashierID
// is the cashier that issued it. A missing match (wrong cashier, wrong
// ticket, already completed) is reported as ok=false, not an error.
func (s *Service) CompleteTicket(ctx context.Context, ticketID, cashierID string) (models.Ticket, bool, error) {
	ticketID = strings.TrimSpace(ticketID)
	cashierID = strings.TrimSpace(cashierID)
	if ticketID == "" {
		return models.Ticket{}, false, &ValidationError{Field: "ticket_id", Message: "is required"}
	}
	if cashierID == "" {
		return models.Ticket{}, false, &ValidationError{Field: "cashier_id", Message: "is required"}
	}

	ticket, err := s.store.CompleteTicket(ctx, store.CompleteTicketInput{
		TicketID:  ticketID,
		CashierID: cashierID,
	})
	if err != nil {
		if errors.Is(err, store.ErrCallNotFound) || errors.Is(err, store.ErrTicketNotFound) || errors.Is(err, store.ErrInvalidState) {
			return models.Ticket{}, false, nil
		}
		log.Printf("complete ticket id=%s cashier=%s error=%v", ticketID, cashierID, err)
		return models.Ticket{}, false, fmt.Errorf("complete ticket: %w", ErrOperationFailed)
	}

	log.Printf("ticket completed number=%s cashier=%s", ticket.Number, cashierID)
	s.publisher.Publish(EventTicketCompleted, ticket)
	return ticket, true, nil
}

func (s *Service) CancelTicket(ctx context.Context, ticketID string) (models.Ticket, bool, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return models.Ticket{}, false, &ValidationError{Field: "ticket_id", Message: "is required"}
	}

	ticket, err := s.store.CancelTicket(ctx, store.CancelTicketInput{TicketID: ticketID})
	if err != nil {
		if errors.Is(err, store.ErrTicketNotFound) || errors.Is(err, store.ErrInvalidState) {
			return models.Ticket{}, false, nil
		}
		log.Printf("cancel ticket id=%s error=%v", ticketID, err)
		return models.Ticket{}, false, fmt.Errorf("cancel ticket: %w", ErrOperationFailed)
	}

	log.Printf("ticket cancelled number=%s", ticket.Number)
	s.publisher.Publish(EventTicketCancelled, ticket)
	return ticket, true, nil
}

func (s *Service) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	tickets, err := s.store.ListTickets(ctx)
	if err != nil {
		log.Printf("list tickets error=%v", err)
		return nil, fmt.Errorf("list tickets: %w", ErrOperationFailed)
	}
	return tickets, nil
}

func (s *Service) ListRecentCalls(ctx context.Context, limit int) ([]models.CallRecord, error) {
	records, err := s.store.ListRecentCalls(ctx, limit)
	if err != nil {
		log.Printf("list recent calls error=%v", err)
		return nil, fmt.Errorf("list recent calls: %w", ErrOperationFailed)
	}
	return records, nil
}

func (s *Service) SystemStatus(ctx context.Context) (models.StatusSnapshot, error) {
	snapshot, err := s.store.SystemStatus(ctx)
	if err != nil {
		log.Printf("system status error=%v", err)
		return models.StatusSnapshot{}, fmt.Errorf("system status: %w", ErrOperationFailed)
	}
	return snapshot, nil
}
