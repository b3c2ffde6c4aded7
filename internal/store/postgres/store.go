package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/MacroHEX/auditoria-informatica/internal/models"
	"github.com/MacroHEX/auditoria-informatica/internal/numbering"
	"github.com/MacroHEX/auditoria-informatica/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgxpool.Pool the store needs. pgxmock satisfies it
// too, which keeps the store testable without a live database.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

const ticketColumns = `ticket_id, number, category, status, customer_name, identification_kind, identification_value, created_at, updated_at, called_at`

func (s *Store) GenerateTicket(ctx context.Context, input store.GenerateTicketInput) (models.Ticket, error) {
	if !models.ValidCategory(input.Category) {
		return models.Ticket{}, store.ErrInvalidCategory
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Ticket{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	seq, err := nextTicketSequence(ctx, tx, input.Category)
	if err != nil {
		return models.Ticket{}, err
	}
	number, err := numbering.Format(input.Category, seq)
	if err != nil {
		return models.Ticket{}, err
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var ticket models.Ticket
	row := tx.QueryRow(ctx, `
		INSERT INTO tickets (
			ticket_id, number, category, status, customer_name,
			identification_kind, identification_value, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
		RETURNING `+ticketColumns+`
	`, uuid.NewString(), number, input.Category, models.StatusWaiting, input.CustomerName,
		input.IdentificationKind, input.IdentificationValue, createdAt)
	if err = scanTicketRow(row, &ticket); err != nil {
		return models.Ticket{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

func (s *Store) CallNext(ctx context.Context, input store.CallNextInput) (models.Ticket, models.CallRecord, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Ticket{}, models.CallRecord{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	calledAt := input.CalledAt
	if calledAt.IsZero() {
		calledAt = time.Now().UTC()
	}

	var ticket models.Ticket
	row := tx.QueryRow(ctx, `
		WITH next_ticket AS (
			SELECT ticket_id
			FROM tickets
			WHERE status = 'waiting'
			ORDER BY created_at ASC, ticket_id ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE tickets
		SET status = 'called',
			called_at = $1,
			updated_at = $1
		FROM next_ticket
		WHERE tickets.ticket_id = next_ticket.ticket_id
		RETURNING tickets.ticket_id, tickets.number, tickets.category, tickets.status,
			tickets.customer_name, tickets.identification_kind, tickets.identification_value,
			tickets.created_at, tickets.updated_at, tickets.called_at
	`, calledAt)
	if err = scanTicketRow(row, &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
			if err = tx.Commit(ctx); err != nil {
				return models.Ticket{}, models.CallRecord{}, err
			}
			return models.Ticket{}, models.CallRecord{}, store.ErrNoTicketWaiting
		}
		return models.Ticket{}, models.CallRecord{}, err
	}

	record := models.CallRecord{
		CallID:    uuid.NewString(),
		TicketID:  ticket.TicketID,
		CashierID: input.CashierID,
		CalledAt:  calledAt,
		Completed: false,
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO call_records (call_id, ticket_id, cashier_id, called_at, completed)
		VALUES ($1, $2, $3, $4, FALSE)
	`, record.CallID, record.TicketID, record.CashierID, record.CalledAt); err != nil {
		return models.Ticket{}, models.CallRecord{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Ticket{}, models.CallRecord{}, err
	}
	return ticket, record, nil
}

func (s *Store) CompleteTicket(ctx context.Context, input store.CompleteTicketInput) (models.Ticket, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Ticket{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var callID string
	row := tx.QueryRow(ctx, `
		SELECT call_id
		FROM call_records
		WHERE ticket_id = $1 AND cashier_id = $2 AND completed = FALSE
		ORDER BY called_at DESC
		LIMIT 1
		FOR UPDATE
	`, input.TicketID, input.CashierID)
	if err = row.Scan(&callID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, store.ErrCallNotFound
		}
		return models.Ticket{}, err
	}

	var ticket models.Ticket
	row = tx.QueryRow(ctx, `
		UPDATE tickets
		SET status = 'served',
			updated_at = $2
		WHERE ticket_id = $1 AND status = 'called'
		RETURNING `+ticketColumns+`
	`, input.TicketID, occurredAt)
	if err = scanTicketRow(row, &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = resolveMissingTicket(ctx, tx, input.TicketID)
			return models.Ticket{}, err
		}
		return models.Ticket{}, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE call_records
		SET completed = TRUE
		WHERE call_id = $1
	`, callID); err != nil {
		return models.Ticket{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

func (s *Store) CancelTicket(ctx context.Context, input store.CancelTicketInput) (models.Ticket, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Ticket{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var ticket models.Ticket
	row := tx.QueryRow(ctx, `
		UPDATE tickets
		SET status = 'cancelled',
			updated_at = $2
		WHERE ticket_id = $1 AND status IN ('waiting', 'called')
		RETURNING `+ticketColumns+`
	`, input.TicketID, occurredAt)
	if err = scanTicketRow(row, &ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = resolveMissingTicket(ctx, tx, input.TicketID)
			return models.Ticket{}, err
		}
		return models.Ticket{}, err
	}

	// A call that was in progress is closed out with the ticket.
	if _, err = tx.Exec(ctx, `
		UPDATE call_records
		SET completed = TRUE
		WHERE ticket_id = $1 AND completed = FALSE
	`, input.TicketID); err != nil {
		return models.Ticket{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

func (s *Store) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		ORDER BY created_at DESC, ticket_id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []models.Ticket
	for rows.Next() {
		var ticket models.Ticket
		if err := scanTicketRow(rows, &ticket); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (s *Store) ListRecentCalls(ctx context.Context, limit int) ([]models.CallRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, `
		SELECT c.call_id, c.ticket_id, c.cashier_id, c.called_at, c.completed,
			t.ticket_id, t.number, t.category, t.status, t.customer_name,
			t.identification_kind, t.identification_value, t.created_at, t.updated_at, t.called_at
		FROM call_records c
		JOIN tickets t ON t.ticket_id = c.ticket_id
		WHERE c.completed = FALSE
		ORDER BY c.called_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.CallRecord
	for rows.Next() {
		var record models.CallRecord
		var ticket models.Ticket
		var calledAtNull sql.NullTime
		if err := rows.Scan(
			&record.CallID, &record.TicketID, &record.CashierID, &record.CalledAt, &record.Completed,
			&ticket.TicketID, &ticket.Number, &ticket.Category, &ticket.Status, &ticket.CustomerName,
			&ticket.IdentificationKind, &ticket.IdentificationValue, &ticket.CreatedAt, &ticket.UpdatedAt, &calledAtNull,
		); err != nil {
			return nil, err
		}
		if calledAtNull.Valid {
			value := calledAtNull.Time
			ticket.CalledAt = &value
		}
		record.Ticket = &ticket
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) SystemStatus(ctx context.Context) (models.StatusSnapshot, error) {
	snapshot := models.StatusSnapshot{Timestamp: time.Now().UTC()}
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'waiting'),
			COUNT(*) FILTER (WHERE status = 'called'),
			COUNT(*) FILTER (WHERE status = 'served'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM tickets
	`)
	if err := row.Scan(
		&snapshot.TotalTickets,
		&snapshot.TicketsWaiting,
		&snapshot.TicketsCalled,
		&snapshot.TicketsServed,
		&snapshot.TicketsCancelled,
	); err != nil {
		return models.StatusSnapshot{}, err
	}

	recent, err := s.ListRecentCalls(ctx, 5)
	if err != nil {
		return models.StatusSnapshot{}, err
	}
	snapshot.RecentCalls = recent
	return snapshot, nil
}

// nextTicketSequence bumps the per-category counter row and returns the
// new value. The counter row serializes concurrent generators, so the
// same number can never be minted twice within a category.
func nextTicketSequence(ctx context.Context, tx pgx.Tx, category string) (int64, error) {
	var next int64
	row := tx.QueryRow(ctx, `
		INSERT INTO ticket_sequences (category, next_number)
		VALUES ($1, 1)
		ON CONFLICT (category)
		DO UPDATE SET next_number = ticket_sequences.next_number + 1
		RETURNING next_number
	`, category)
	if err := row.Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func resolveMissingTicket(ctx context.Context, tx pgx.Tx, ticketID string) error {
	var status string
	row := tx.QueryRow(ctx, `
		SELECT status FROM tickets WHERE ticket_id = $1
	`, ticketID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrTicketNotFound
		}
		return err
	}
	return store.ErrInvalidState
}

func scanTicketRow(row pgx.Row, ticket *models.Ticket) error {
	var calledAtNull sql.NullTime
	if err := row.Scan(
		&ticket.TicketID, &ticket.Number, &ticket.Category, &ticket.Status,
		&ticket.CustomerName, &ticket.IdentificationKind, &ticket.IdentificationValue,
		&ticket.CreatedAt, &ticket.UpdatedAt, &calledAtNull,
	); err != nil {
		return err
	}
	if calledAtNull.Valid {
		value := calledAtNull.Time
		ticket.CalledAt = &value
	}
	return nil
}
