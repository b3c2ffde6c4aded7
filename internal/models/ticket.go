package models

import "time"

type Ticket struct {
	TicketID            string     `json:"ticket_id"`
	Number              string     `json:"number"`
	Category            string     `json:"category"`
	Status              string     `json:"status"`
	CustomerName        string     `json:"customer_name"`
	IdentificationKind  string     `json:"identification_kind"`
	IdentificationValue string     `json:"identification_value,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	CalledAt            *time.Time `json:"called_at,omitempty"`
}

// CallRecord registers one cashier claiming one ticket. A ticket may
// accumulate several records over its life, but only one of them may be
// uncompleted at a time.
type CallRecord struct {
	CallID    string    `json:"call_id"`
	TicketID  string    `json:"ticket_id"`
	CashierID string    `json:"cashier_id"`
	CalledAt  time.Time `json:"called_at"`
	Completed bool      `json:"completed"`
	Ticket    *Ticket   `json:"ticket,omitempty"`
}

type StatusSnapshot struct {
	TotalTickets     int          `json:"total_tickets"`
	TicketsWaiting   int          `json:"tickets_waiting"`
	TicketsCalled    int          `json:"tickets_called"`
	TicketsServed    int          `json:"tickets_served"`
	TicketsCancelled int          `json:"tickets_cancelled"`
	RecentCalls      []CallRecord `json:"recent_calls"`
	Timestamp        time.Time    `json:"timestamp"`
}

const (
	StatusWaiting   = "waiting"
	StatusCalled    = "called"
	StatusServed    = "served"
	StatusCancelled = "cancelled"
)

// Service lines. The wire values keep the branch's original Spanish
// labels because the ticket number prefixes (V, C, A) derive from them.
const (
	CategoryCounter  = "ventanilla"
	CategoryCashier  = "caja"
	CategoryAdvisory = "asesoria"
)

const (
	IdentificationNationalID = "national_id"
	IdentificationPassport   = "passport"
	IdentificationForeignID  = "foreign_id"
	IdentificationPhone      = "phone"
)

func ValidCategory(category string) bool {
	switch category {
	case CategoryCounter, CategoryCashier, CategoryAdvisory:
		return true
	}
	return false
}

func ValidIdentificationKind(kind string) bool {
	switch kind {
	case IdentificationNationalID, IdentificationPassport, IdentificationForeignID, IdentificationPhone:
		return true
	}
	return false
}
