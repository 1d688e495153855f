package handler

import (
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

type paymentResponse struct {
	ID            int64   `json:"id"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id"`
	PhoneNumber   string  `json:"phone_number,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	AdminNotes    string  `json:"admin_notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ApprovedAt    *string `json:"approved_at,omitempty"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		Amount:        p.Amount.InexactFloat64(),
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		PhoneNumber:   p.PhoneNumber,
		Notes:         p.Notes,
		AdminNotes:    p.AdminNotes,
		CreatedAt:     formatTime(p.CreatedAt),
		ApprovedAt:    formatTimePtr(p.ApprovedAt),
	}
}

type submitPaymentRequest struct {
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	TransactionID string  `json:"transaction_id"`
	PhoneNumber   string  `json:"phone_number"`
	Notes         string  `json:"notes"`
}

// SubmitPayment регистрирует заявку на пополнение баланса.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req submitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Amount <= 0 || req.Method == "" || req.TransactionID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	p, err := h.service.SubmitPayment(r.Context(), userID, amount, model.PaymentMethod(req.Method), req.TransactionID, req.PhoneNumber, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateTransaction):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		case errors.Is(err, service.ErrAmountOutOfRange),
			errors.Is(err, service.ErrInvalidMethod),
			errors.Is(err, service.ErrPhoneRequired),
			errors.Is(err, service.ErrInvalidPhone):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("submit payment error", zap.Error(err), zap.Int64("userID", userID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

// ListPayments возвращает страницу платежей текущего пользователя.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	limit, offset := pageParams(r)
	f := repository.PaymentFilter{
		UserID: userID,
		Status: model.PaymentStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}

	payments, total, err := h.service.ListPayments(r.Context(), f)
	if err != nil {
		h.logger.Error("list payments error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	items := make([]any, 0, len(payments))
	for i := range payments {
		items = append(items, toPaymentResponse(&payments[i]))
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total})
}

// GetPayment возвращает платёж текущего пользователя.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	paymentID, ok := pathID(r, "paymentID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p, err := h.service.GetPayment(r.Context(), paymentID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get payment error", zap.Error(err), zap.Int64("paymentID", paymentID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

type paymentMethodResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Icon          string `json:"icon"`
	Instructions  string `json:"instructions"`
	RequiresPhone bool   `json:"requires_phone"`
}

// Статические реквизиты для приёма переводов по каждому способу оплаты.
var paymentMethodList = []paymentMethodResponse{
	{
		ID:            "vodafone_cash",
		Name:          string(model.MethodVodafoneCash),
		Icon:          "smartphone",
		Instructions:  "قم بالتحويل إلى رقم: 01012345678 ثم أرسل رقم العملية",
		RequiresPhone: model.MethodVodafoneCash.MobileWallet(),
	},
	{
		ID:            "orange_money",
		Name:          string(model.MethodOrangeMoney),
		Icon:          "smartphone",
		Instructions:  "قم بالتحويل إلى رقم: 01112345678 ثم أرسل رقم العملية",
		RequiresPhone: model.MethodOrangeMoney.MobileWallet(),
	},
	{
		ID:            "etisalat_cash",
		Name:          string(model.MethodEtisalatCash),
		Icon:          "smartphone",
		Instructions:  "قم بالتحويل إلى رقم: 01512345678 ثم أرسل رقم العملية",
		RequiresPhone: model.MethodEtisalatCash.MobileWallet(),
	},
	{
		ID:            "bank_transfer",
		Name:          string(model.MethodBankTransfer),
		Icon:          "building-bank",
		Instructions:  "قم بالتحويل إلى حساب: 1234567890 - البنك الأهلي المصري",
		RequiresPhone: model.MethodBankTransfer.MobileWallet(),
	},
	{
		ID:            "instapay",
		Name:          string(model.MethodInstaPay),
		Icon:          "credit-card",
		Instructions:  "قم بالتحويل عبر InstaPay إلى: sniper.server@instapay.com",
		RequiresPhone: model.MethodInstaPay.MobileWallet(),
	},
}

// PaymentMethods возвращает поддерживаемые способы оплаты с реквизитами
// перевода.
func (h *Handler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, paymentMethodList)
}

type paymentStatsResponse struct {
	TotalDeposits    float64 `json:"total_deposits"`
	PendingDeposits  float64 `json:"pending_deposits"`
	TotalPayments    int     `json:"total_payments"`
	ApprovedPayments int     `json:"approved_payments"`
}

// GetPaymentStats возвращает статистику пополнений текущего пользователя.
func (h *Handler) GetPaymentStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	stats, err := h.service.GetPaymentStats(r.Context(), userID)
	if err != nil {
		h.logger.Error("payment stats error", zap.Error(err), zap.Int64("userID", userID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, paymentStatsResponse{
		TotalDeposits:    stats.TotalDeposits.InexactFloat64(),
		PendingDeposits:  stats.PendingDeposits.InexactFloat64(),
		TotalPayments:    stats.TotalPayments,
		ApprovedPayments: stats.ApprovedPayments,
	})
}
