// Package httpapi is the REST surface of the ticket queue.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MacroHEX/auditoria-informatica/internal/models"
	"github.com/MacroHEX/auditoria-informatica/internal/queue"
)

type Handler struct {
	queue            queue.TicketQueue
	recentCallsLimit int
}

type Options struct {
	// RecentCallsLimit is the page size when the recent-calls request
	// carries no explicit limit.
	RecentCallsLimit int
}

type createTicketRequest struct {
	Category            string `json:"category"`
	CustomerName        string `json:"customer_name"`
	IdentificationKind  string `json:"identification_kind"`
	IdentificationValue string `json:"identification_value"`
}

type callNextRequest struct {
	CashierID string `json:"cashier_id"`
}

type ticketActionRequest struct {
	CashierID string `json:"cashier_id"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type calledResponse struct {
	Ticket models.Ticket     `json:"ticket"`
	Call   models.CallRecord `json:"call"`
}

type ticketListResponse struct {
	Tickets []models.Ticket `json:"tickets"`
}

type callListResponse struct {
	Calls []models.CallRecord `json:"calls"`
}

func NewHandler(q queue.TicketQueue, options Options) *Handler {
	return &Handler{queue: q, recentCallsLimit: options.RecentCallsLimit}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(api chi.Router) {
		api.Post("/tickets", h.handleCreateTicket)
		api.Get("/tickets", h.handleListTickets)
		api.Post("/tickets/call-next", h.handleCallNext)
		api.Post("/tickets/{ticketID}/complete", h.handleCompleteTicket)
		api.Post("/tickets/{ticketID}/cancel", h.handleCancelTicket)
		api.Get("/tickets/recent-calls", h.handleRecentCalls)
		api.Get("/system/status", h.handleSystemStatus)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ticket, err := h.queue.GenerateTicket(r.Context(), queue.GenerateTicketRequest{
		Category:            req.Category,
		CustomerName:        req.CustomerName,
		IdentificationKind:  req.IdentificationKind,
		IdentificationValue: req.IdentificationValue,
	})
	if err != nil {
		writeQueueError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

func (h *Handler) handleCallNext(w http.ResponseWriter, r *http.Request) {
	var req callNextRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ticket, call, ok, err := h.queue.CallNext(r.Context(), req.CashierID)
	if err != nil {
		writeQueueError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "queue_empty", "no tickets waiting")
		return
	}
	writeJSON(w, http.StatusOK, calledResponse{Ticket: ticket, Call: call})
}

func (h *Handler) handleCompleteTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := strings.TrimSpace(chi.URLParam(r, "ticketID"))

	var req ticketActionRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ticket, ok, err := h.queue.CompleteTicket(r.Context(), ticketID, req.CashierID)
	if err != nil {
		writeQueueError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "call_not_found", "no open call for that ticket and cashier")
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleCancelTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := strings.TrimSpace(chi.URLParam(r, "ticketID"))

	ticket, ok, err := h.queue.CancelTicket(r.Context(), ticketID)
	if err != nil {
		writeQueueError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "ticket_not_found", "no open ticket with that id")
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.queue.ListTickets(r.Context())
	if err != nil {
		writeQueueError(w, err)
		return
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}
	writeJSON(w, http.StatusOK, ticketListResponse{Tickets: tickets})
}

func (h *Handler) handleRecentCalls(w http.ResponseWriter, r *http.Request) {
	limit := h.recentCallsLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	calls, err := h.queue.ListRecentCalls(r.Context(), limit)
	if err != nil {
		writeQueueError(w, err)
		return
	}
	if calls == nil {
		calls = []models.CallRecord{}
	}
	writeJSON(w, http.StatusOK, callListResponse{Calls: calls})
}

func (h *Handler) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.queue.SystemStatus(r.Context())
	if err != nil {
		writeQueueError(w, err)
		return
	}
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now().UTC()
	}
	writeJSON(w, http.StatusOK, status)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func writeQueueError(w http.ResponseWriter, err error) {
	var verr *queue.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: responseError{
			Code:    "invalid_request",
			Message: verr.Message,
			Field:   verr.Field,
		}})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
