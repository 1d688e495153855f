// Package handler содержит HTTP-обработчики API SMM-панели.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sniper7707/Site3/internal/middleware"
	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
	"github.com/sniper7707/Site3/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, login, email, password string) (*model.User, error)
	AuthenticateUser(ctx context.Context, login, password string) (*model.User, error)
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, current, next string) error
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)

	ListServices(ctx context.Context, f repository.ServiceFilter) ([]model.Service, int, error)
	GetService(ctx context.Context, serviceID int64) (*model.Service, error)
	PopularServices(ctx context.Context) ([]model.Service, error)
	Platforms(ctx context.Context) ([]string, error)
	Categories(ctx context.Context, platform string) ([]string, error)
	PreviewPrice(ctx context.Context, serviceID int64, quantity int) (decimal.Decimal, *model.Service, error)

	CreateOrder(ctx context.Context, userID, serviceID int64, quantity int, targetURL string) (*model.Order, error)
	GetOrder(ctx context.Context, orderID, userID int64) (*model.Order, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]model.Order, int, error)
	CancelOrder(ctx context.Context, orderID, userID int64) (decimal.Decimal, error)
	AdminUpdateOrderStatus(ctx context.Context, orderID int64, newStatus model.OrderStatus, notes string) (*model.Order, error)
	GetOrderStats(ctx context.Context, userID int64) (*model.OrderStats, error)

	SubmitPayment(ctx context.Context, userID int64, amount decimal.Decimal, method model.PaymentMethod, transactionID, phone, notes string) (*model.Payment, error)
	GetPayment(ctx context.Context, paymentID, userID int64) (*model.Payment, error)
	ListPayments(ctx context.Context, f repository.PaymentFilter) ([]model.Payment, int, error)
	ApprovePayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error)
	RejectPayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error)
	GetPaymentStats(ctx context.Context, userID int64) (*model.PaymentStats, error)
	AdminAdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal, action string) (decimal.Decimal, error)

	ListUsers(ctx context.Context, search string, limit, offset int) ([]model.User, int, error)
	GetAdminStats(ctx context.Context) (*model.AdminStats, error)

	OpenTicket(ctx context.Context, userID int64, subject string, priority model.TicketPriority, message string) (*model.Ticket, error)
	ListTickets(ctx context.Context, f repository.TicketFilter) ([]model.Ticket, int, error)
	GetTicket(ctx context.Context, ticketID, userID int64) (*model.Ticket, []model.TicketMessage, error)
	GetTicketStats(ctx context.Context, userID int64) (*model.TicketStats, error)
	ReplyToTicket(ctx context.Context, ticketID, userID int64, message string) (*model.TicketMessage, error)
	AdminReplyToTicket(ctx context.Context, ticketID int64, message string) (*model.TicketMessage, error)
	CloseTicket(ctx context.Context, ticketID, userID int64) error
}

// Handler реализует HTTP-обработчики API SMM-панели.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// pageParams извлекает параметры постраничного вывода из строки запроса.
func pageParams(r *http.Request) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	return limit, (page - 1) * limit
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type userResponse struct {
	ID      int64   `json:"id"`
	Login   string  `json:"login"`
	Email   string  `json:"email"`
	Balance float64 `json:"balance"`
	IsAdmin bool    `json:"is_admin"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:      u.ID,
		Login:   u.Login,
		Email:   u.Email,
		Balance: u.Balance.InexactFloat64(),
		IsAdmin: u.IsAdmin,
	}
}

type registerRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.RegisterUser(r.Context(), req.Login, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		case errors.Is(err, service.ErrInvalidLogin),
			errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("register user error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.authMiddleware.SetAuthCookie(w, u.ID, u.IsAdmin)
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию пользователя и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, u.ID, u.IsAdmin)
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Logout сбрасывает cookie авторизации.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusOK)
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("get user error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword меняет пароль текущего пользователя.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		case errors.Is(err, service.ErrWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("change password error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

// GetBalance возвращает текущий баланс пользователя.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), userID)
	if err != nil {
		h.logger.Error("get balance error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance.InexactFloat64()})
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
