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

type orderResponse struct {
	ID          int64   `json:"id"`
	ServiceID   int64   `json:"service_id"`
	Quantity    int     `json:"quantity"`
	TargetURL   string  `json:"target_url"`
	Charge      float64 `json:"charge"`
	StartCount  int     `json:"start_count"`
	Remains     int     `json:"remains"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:          o.ID,
		ServiceID:   o.ServiceID,
		Quantity:    o.Quantity,
		TargetURL:   o.TargetURL,
		Charge:      o.Charge.InexactFloat64(),
		StartCount:  o.StartCount,
		Remains:     o.Remains,
		Status:      string(o.Status),
		CreatedAt:   formatTime(o.CreatedAt),
		CompletedAt: formatTimePtr(o.CompletedAt),
	}
}

type createOrderRequest struct {
	ServiceID int64  `json:"service_id"`
	Quantity  int    `json:"quantity"`
	TargetURL string `json:"target_url"`
}

// CreateOrder создаёт заказ и списывает его стоимость с баланса.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.ServiceID <= 0 || req.Quantity <= 0 || req.TargetURL == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), userID, req.ServiceID, req.Quantity, req.TargetURL)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientBalance):
			http.Error(w, http.StatusText(http.StatusPaymentRequired), http.StatusPaymentRequired)
		case errors.Is(err, repository.ErrServiceNotFound), errors.Is(err, service.ErrServiceUnavailable):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrQuantityOutOfRange), errors.Is(err, service.ErrInvalidTargetLink):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("create order error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// ListOrders возвращает страницу заказов текущего пользователя.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	limit, offset := pageParams(r)
	f := repository.OrderFilter{
		UserID: userID,
		Status: model.OrderStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	orders, total, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		h.logger.Error("list orders error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]any, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

// GetOrder возвращает заказ текущего пользователя.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orderID, ok := pathID(r, "orderID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.GetOrder(r.Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get order error", zap.Error(err), zap.Int64("orderID", orderID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type cancelOrderResponse struct {
	Refund float64 `json:"refund"`
}

// CancelOrder отменяет заказ в статусе PENDING и возвращает средства.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orderID, ok := pathID(r, "orderID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	refund, err := h.service.CancelOrder(r.Context(), orderID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrOrderNotPending):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		default:
			h.logger.Error("cancel order error", zap.Error(err), zap.Int64("orderID", orderID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, cancelOrderResponse{Refund: refund.InexactFloat64()})
}

type orderStatsResponse struct {
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	InProgress int     `json:"in_progress"`
	Completed  int     `json:"completed"`
	TotalSpent float64 `json:"total_spent"`
}

// GetOrderStats возвращает статистику заказов текущего пользователя.
func (h *Handler) GetOrderStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	stats, err := h.service.GetOrderStats(r.Context(), userID)
	if err != nil {
		h.logger.Error("order stats error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, orderStatsResponse{
		Total:      stats.Total,
		Pending:    stats.Pending,
		InProgress: stats.InProgress,
		Completed:  stats.Completed,
		TotalSpent: stats.TotalSpent.InexactFloat64(),
	})
}
