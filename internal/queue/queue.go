package queue

import (
	"context"

	"github.com/MacroHEX/auditoria-informatica/internal/models"
)

// TicketQueue is the operation surface the REST and realtime adapters
// program against.
type TicketQueue interface {
	GenerateTicket(ctx context.Context, req GenerateTicketRequest) (models.Ticket, error)
	CallNext(ctx context.Context, cashierID string) (models.Ticket, models.CallRecord, bool, error)
	CompleteTicket(ctx context.Context, ticketID, cashierID string) (models.Ticket, bool, error)
	CancelTicket(ctx context.Context, ticketID string) (models.Ticket, bool, error)
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	ListRecentCalls(ctx context.Context, limit int) ([]models.CallRecord, error)
	SystemStatus(ctx context.Context) (models.StatusSnapshot, error)
}

var _ TicketQueue = (*Service)(nil)
