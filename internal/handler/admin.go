package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sniper7707/Site3/internal/middleware"
	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
	"github.com/sniper7707/Site3/internal/service"
)

// requireAdmin пропускает только администраторов: флаг из cookie
// перепроверяется по базе данных.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := middleware.GetSessionFromContext(r.Context())
		if !ok || !session.IsAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		u, err := h.service.GetUser(r.Context(), session.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			h.logger.Error("admin check error", zap.Error(err), zap.Int64("userID", session.UserID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if !u.IsAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type adminStatsResponse struct {
	TotalUsers      int     `json:"total_users"`
	TotalOrders     int     `json:"total_orders"`
	TotalServices   int     `json:"total_services"`
	PendingTickets  int     `json:"pending_tickets"`
	TotalRevenue    float64 `json:"total_revenue"`
	PendingPayments int     `json:"pending_payments"`
}

// AdminStats возвращает сводные показатели панели администратора.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetAdminStats(r.Context())
	if err != nil {
		h.logger.Error("admin stats error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, adminStatsResponse{
		TotalUsers:      stats.TotalUsers,
		TotalOrders:     stats.TotalOrders,
		TotalServices:   stats.TotalServices,
		PendingTickets:  stats.PendingTickets,
		TotalRevenue:    stats.TotalRevenue.InexactFloat64(),
		PendingPayments: stats.PendingPayments,
	})
}

// AdminListUsers возвращает страницу пользователей с поиском по логину и почте.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	users, total, err := h.service.ListUsers(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		h.logger.Error("admin list users error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]any, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

type adjustBalanceRequest struct {
	Amount float64 `json:"amount"`
	Action string  `json:"action"`
}

// AdminAdjustBalance изменяет баланс пользователя (пополнение или установка).
func (h *Handler) AdminAdjustBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req adjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	balance, err := h.service.AdminAdjustBalance(r.Context(), userID, decimal.NewFromFloat(req.Amount), req.Action)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrInvalidAction), errors.Is(err, repository.ErrNegativeBalance):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("adjust balance error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance.InexactFloat64()})
}

// AdminListOrders возвращает страницу заказов всех пользователей.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	f := repository.OrderFilter{
		Status: model.OrderStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	orders, total, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		h.logger.Error("admin list orders error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]any, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// AdminUpdateOrderStatus переводит заказ в новый статус. Перевод в REFUNDED
// возвращает стоимость заказа на баланс пользователя.
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "orderID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.AdminUpdateOrderStatus(r.Context(), orderID, model.OrderStatus(req.Status), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrInvalidStatus):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("update order status error", zap.Error(err), zap.Int64("orderID", orderID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// AdminListPayments возвращает страницу платежей всех пользователей.
func (h *Handler) AdminListPayments(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	f := repository.PaymentFilter{
		Status: model.PaymentStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	payments, total, err := h.service.ListPayments(r.Context(), f)
	if err != nil {
		h.logger.Error("admin list payments error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]any, 0, len(payments))
	for i := range payments {
		items = append(items, toPaymentResponse(&payments[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

type moderatePaymentRequest struct {
	Notes string `json:"notes"`
}

// AdminApprovePayment подтверждает платёж и зачисляет сумму на баланс.
func (h *Handler) AdminApprovePayment(w http.ResponseWriter, r *http.Request) {
	h.moderatePayment(w, r, h.service.ApprovePayment)
}

// AdminRejectPayment отклоняет платёж без зачисления средств.
func (h *Handler) AdminRejectPayment(w http.ResponseWriter, r *http.Request) {
	h.moderatePayment(w, r, h.service.RejectPayment)
}

func (h *Handler) moderatePayment(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error)) {
	paymentID, ok := pathID(r, "paymentID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req moderatePaymentRequest
	if r.Body != nil {
		// Тело запроса необязательно.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	p, err := op(r.Context(), paymentID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrPaymentNotPending):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		default:
			h.logger.Error("moderate payment error", zap.Error(err), zap.Int64("paymentID", paymentID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

// AdminListTickets возвращает страницу тикетов всех пользователей.
func (h *Handler) AdminListTickets(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	f := repository.TicketFilter{
		Status: model.TicketStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	tickets, total, err := h.service.ListTickets(r.Context(), f)
	if err != nil {
		h.logger.Error("admin list tickets error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]any, 0, len(tickets))
	for i := range tickets {
		items = append(items, toTicketResponse(&tickets[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

// AdminReplyToTicket добавляет ответ администратора в тикет.
func (h *Handler) AdminReplyToTicket(w http.ResponseWriter, r *http.Request) {
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

	m, err := h.service.AdminReplyToTicket(r.Context(), ticketID, req.Message)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("admin reply ticket error", zap.Error(err), zap.Int64("ticketID", ticketID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, toTicketMessageResponse(m))
}

// AdminCloseTicket закрывает тикет от имени администратора.
func (h *Handler) AdminCloseTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := pathID(r, "ticketID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.CloseTicket(r.Context(), ticketID, 0); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("admin close ticket error", zap.Error(err), zap.Int64("ticketID", ticketID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
