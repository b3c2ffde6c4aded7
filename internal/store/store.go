package store

import (
	"context"
	"time"

	"github.com/MacroHEX/auditoria-informatica/internal/models"
)

type GenerateTicketInput struct {
	Category            string
	CustomerName        string
	IdentificationKind  string
	IdentificationValue string
	CreatedAt           time.Time
}

type CallNextInput struct {
	CashierID string
	CalledAt  time.Time
}

type CompleteTicketInput struct {
	TicketID   string
	CashierID  string
	OccurredAt time.Time
}

type CancelTicketInput struct {
	TicketID   string
	OccurredAt time.Time
}

// TicketStore owns tickets and call records. GenerateTicket and CallNext
// run their read-then-write sequences inside a single transaction so two
// concurrent callers can neither mint the same number nor claim the same
// ticket.
type TicketStore interface {
	GenerateTicket(ctx context.Context, input GenerateTicketInput) (models.Ticket, error)
	CallNext(ctx context.Context, input CallNextInput) (models.Ticket, models.CallRecord, error)
	CompleteTicket(ctx context.Context, input CompleteTicketInput) (models.Ticket, error)
	CancelTicket(ctx context.Context, input CancelTicketInput) (models.Ticket, error)
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	ListRecentCalls(ctx context.Context, limit int) ([]models.CallRecord, error)
	SystemStatus(ctx context.Context) (models.StatusSnapshot, error)
}
