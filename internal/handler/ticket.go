package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sniper7707/Site3/internal/middleware"
	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
	"github.com/sniper7707/Site3/internal/service"
)

type ticketResponse struct {
	ID        int64  `json:"id"`
	Subject   string `json:"subject"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	Messages  int    `json:"messages"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toTicketResponse(t *model.Ticket) ticketResponse {
	return ticketResponse{
		ID:        t.ID,
		Subject:   t.Subject,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		Messages:  t.Messages,
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
}

type ticketMessageResponse struct {
	ID           int64  `json:"id"`
	Message      string `json:"message"`
	IsAdminReply bool   `json:"is_admin_reply"`
	CreatedAt    string `json:"created_at"`
}

func toTicketMessageResponse(m *model.TicketMessage) ticketMessageResponse {
	return ticketMessageResponse{
		ID:           m.ID,
		Message:      m.Message,
		IsAdminReply: m.IsAdminReply,
		CreatedAt:    formatTime(m.CreatedAt),
	}
}

type openTicketRequest struct {
	Subject  string `json:"subject"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// OpenTicket создаёт тикет поддержки с первым сообщением.
func (h *Handler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req openTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Subject == "" || req.Message == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	t, err := h.service.OpenTicket(r.Context(), userID, req.Subject, model.TicketPriority(req.Priority), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPriority) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("open ticket error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toTicketResponse(t))
}

// ListTickets возвращает страницу тикетов текущего пользователя.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	limit, offset := pageParams(r)
	f := repository.TicketFilter{
		UserID: userID,
		Status: model.TicketStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	tickets, total, err := h.service.ListTickets(r.Context(), f)
	if err != nil {
		h.logger.Error("list tickets error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]any, 0, len(tickets))
	for i := range tickets {
		items = append(items, toTicketResponse(&tickets[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

type ticketDetailResponse struct {
	Ticket   ticketResponse          `json:"ticket"`
	Messages []ticketMessageResponse `json:"messages"`
}

// GetTicket возвращает тикет текущего пользователя вместе с перепиской.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	ticketID, ok := pathID(r, "ticketID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	t, messages, err := h.service.GetTicket(r.Context(), ticketID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get ticket error", zap.Error(err), zap.Int64("ticketID", ticketID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := ticketDetailResponse{Ticket: toTicketResponse(t)}
	resp.Messages = make([]ticketMessageResponse, 0, len(messages))
	for i := range messages {
		resp.Messages = append(resp.Messages, toTicketMessageResponse(&messages[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type ticketStatsResponse struct {
	Total         int `json:"total_tickets"`
	Open          int `json:"open_tickets"`
	Answered      int `json:"answered_tickets"`
	AwaitingReply int `json:"awaiting_tickets"`
	Closed        int `json:"closed_tickets"`
}

// GetTicketStats возвращает статистику тикетов текущего пользователя.
func (h *Handler) GetTicketStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	stats, err := h.service.GetTicketStats(r.Context(), userID)
	if err != nil {
		h.logger.Error("ticket stats error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ticketStatsResponse{
		Total:         stats.Total,
		Open:          stats.Open,
		Answered:      stats.Answered,
		AwaitingReply: stats.AwaitingReply,
		Closed:        stats.Closed,
	})
}

type ticketReplyRequest struct {
	Message string `json:"message"`
}

// ReplyToTicket добавляет сообщение пользователя в тикет.
func (h *Handler) ReplyToTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	ticketID, ok := pathID(r, "ticketID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req ticketReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	m, err := h.service.ReplyToTicket(r.Context(), ticketID, userID, req.Message)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("reply ticket error", zap.Error(err), zap.Int64("ticketID", ticketID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toTicketMessageResponse(m))
}

// CloseTicket закрывает тикет текущего пользователя.
func (h *Handler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	ticketID, ok := pathID(r, "ticketID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.CloseTicket(r.Context(), ticketID, userID); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("close ticket error", zap.Error(err), zap.Int64("ticketID", ticketID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
