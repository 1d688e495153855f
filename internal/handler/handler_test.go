package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sniper7707/Site3/internal/middleware"
	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
	"github.com/sniper7707/Site3/internal/service"
)

type stubService struct {
	user    *model.User
	userErr error

	balanceResp decimal.Decimal
	balanceErr  error

	services    []model.Service
	servicesErr error

	catalogService *model.Service
	catalogErr     error

	previewPrice decimal.Decimal
	previewErr   error

	orderResp *model.Order
	orderErr  error

	orders    []model.Order
	ordersErr error

	cancelRefund decimal.Decimal
	cancelErr    error

	orderStats *model.OrderStats

	paymentResp *model.Payment
	paymentErr  error

	payments    []model.Payment
	paymentsErr error

	paymentStats *model.PaymentStats

	adjustedBalance decimal.Decimal
	adjustErr       error

	users    []model.User
	usersErr error

	adminStats *model.AdminStats

	ticket    *model.Ticket
	ticketErr error

	tickets    []model.Ticket
	ticketsErr error

	ticketMessage *model.TicketMessage
	messageErr    error

	ticketStats *model.TicketStats
}

func (s *stubService) RegisterUser(ctx context.Context, login, email, password string) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, login, password string) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	return s.userErr
}

func (s *stubService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.balanceResp, s.balanceErr
}

func (s *stubService) ListServices(ctx context.Context, f repository.ServiceFilter) ([]model.Service, int, error) {
	return s.services, len(s.services), s.servicesErr
}

func (s *stubService) GetService(ctx context.Context, serviceID int64) (*model.Service, error) {
	return s.catalogService, s.catalogErr
}

func (s *stubService) PopularServices(ctx context.Context) ([]model.Service, error) {
	return s.services, s.servicesErr
}

func (s *stubService) Platforms(ctx context.Context) ([]string, error) { return nil, nil }

func (s *stubService) Categories(ctx context.Context, platform string) ([]string, error) {
	return nil, nil
}

func (s *stubService) PreviewPrice(ctx context.Context, serviceID int64, quantity int) (decimal.Decimal, *model.Service, error) {
	return s.previewPrice, s.catalogService, s.previewErr
}

func (s *stubService) CreateOrder(ctx context.Context, userID, serviceID int64, quantity int, targetURL string) (*model.Order, error) {
	return s.orderResp, s.orderErr
}

func (s *stubService) GetOrder(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	return s.orderResp, s.orderErr
}

func (s *stubService) ListOrders(ctx context.Context, f repository.OrderFilter) ([]model.Order, int, error) {
	return s.orders, len(s.orders), s.ordersErr
}

func (s *stubService) CancelOrder(ctx context.Context, orderID, userID int64) (decimal.Decimal, error) {
	return s.cancelRefund, s.cancelErr
}

func (s *stubService) AdminUpdateOrderStatus(ctx context.Context, orderID int64, newStatus model.OrderStatus, notes string) (*model.Order, error) {
	return s.orderResp, s.orderErr
}

func (s *stubService) GetOrderStats(ctx context.Context, userID int64) (*model.OrderStats, error) {
	return s.orderStats, nil
}

func (s *stubService) SubmitPayment(ctx context.Context, userID int64, amount decimal.Decimal, method model.PaymentMethod, transactionID, phone, notes string) (*model.Payment, error) {
	return s.paymentResp, s.paymentErr
}

func (s *stubService) GetPayment(ctx context.Context, paymentID, userID int64) (*model.Payment, error) {
	return s.paymentResp, s.paymentErr
}

func (s *stubService) ListPayments(ctx context.Context, f repository.PaymentFilter) ([]model.Payment, int, error) {
	return s.payments, len(s.payments), s.paymentsErr
}

func (s *stubService) ApprovePayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error) {
	return s.paymentResp, s.paymentErr
}

func (s *stubService) RejectPayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error) {
	return s.paymentResp, s.paymentErr
}

func (s *stubService) GetPaymentStats(ctx context.Context, userID int64) (*model.PaymentStats, error) {
	return s.paymentStats, nil
}

func (s *stubService) AdminAdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal, action string) (decimal.Decimal, error) {
	return s.adjustedBalance, s.adjustErr
}

func (s *stubService) ListUsers(ctx context.Context, search string, limit, offset int) ([]model.User, int, error) {
	return s.users, len(s.users), s.usersErr
}

func (s *stubService) GetAdminStats(ctx context.Context) (*model.AdminStats, error) {
	return s.adminStats, nil
}

func (s *stubService) OpenTicket(ctx context.Context, userID int64, subject string, priority model.TicketPriority, message string) (*model.Ticket, error) {
	return s.ticket, s.ticketErr
}

func (s *stubService) ListTickets(ctx context.Context, f repository.TicketFilter) ([]model.Ticket, int, error) {
	return s.tickets, len(s.tickets), s.ticketsErr
}

func (s *stubService) GetTicket(ctx context.Context, ticketID, userID int64) (*model.Ticket, []model.TicketMessage, error) {
	return s.ticket, nil, s.ticketErr
}

func (s *stubService) ReplyToTicket(ctx context.Context, ticketID, userID int64, message string) (*model.TicketMessage, error) {
	return s.ticketMessage, s.messageErr
}

func (s *stubService) AdminReplyToTicket(ctx context.Context, ticketID int64, message string) (*model.TicketMessage, error) {
	return s.ticketMessage, s.messageErr
}

func (s *stubService) CloseTicket(ctx context.Context, ticketID, userID int64) error {
	return s.ticketErr
}

func (s *stubService) GetTicketStats(ctx context.Context, userID int64) (*model.TicketStats, error) {
	return s.ticketStats, nil
}

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")

	return NewHandler(svc, logger, auth)
}

func authCookie(t *testing.T, h *Handler, userID int64, isAdmin bool) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	h.authMiddleware.SetAuthCookie(rec, userID, isAdmin)
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no auth cookie set")
	}
	return cookies[0]
}

func TestRegister_Created(t *testing.T) {
	svc := &stubService{
		user: &model.User{ID: 42, Login: "user_01", Email: "user@example.com"},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(registerRequest{
		Login:    "user_01",
		Email:    "user@example.com",
		Password: "Password1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	if len(res.Cookies()) == 0 {
		t.Fatalf("expected auth cookie to be set")
	}
}

func TestRegister_Conflict(t *testing.T) {
	svc := &stubService{userErr: repository.ErrUserExists}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(registerRequest{
		Login:    "user_01",
		Email:    "user@example.com",
		Password: "Password1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestRegister_BadRequestOnWeakPassword(t *testing.T) {
	svc := &stubService{userErr: service.ErrWeakPassword}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(registerRequest{
		Login:    "user_01",
		Email:    "user@example.com",
		Password: "weak",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	svc := &stubService{userErr: service.ErrInvalidCredentials}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(loginRequest{Login: "user_01", Password: "Wrong1pass"})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}

func TestGetBalance_JSONResponse(t *testing.T) {
	svc := &stubService{balanceResp: decimal.RequireFromString("12.50")}
	h := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/balance", nil)
	req.AddCookie(authCookie(t, h, 1, false))

	rec := httptest.NewRecorder()
	handlerWithAuth := h.authMiddleware.Middleware(http.HandlerFunc(h.GetBalance))
	handlerWithAuth.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q, want application/json", ct)
	}

	var resp balanceResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Balance != 12.5 {
		t.Fatalf("balance = %v, want 12.5", resp.Balance)
	}
}

func TestCreateOrder_Created(t *testing.T) {
	svc := &stubService{
		orderResp: &model.Order{
			ID:        7,
			ServiceID: 1,
			Quantity:  500,
			Charge:    decimal.RequireFromString("5.00"),
			Status:    model.OrderStatusPending,
		},
	}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(createOrderRequest{
		ServiceID: 1,
		Quantity:  500,
		TargetURL: "https://instagram.com/someuser",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.AddCookie(authCookie(t, h, 1, false))

	rec := httptest.NewRecorder()
	handlerWithAuth := h.authMiddleware.Middleware(http.HandlerFunc(h.CreateOrder))
	handlerWithAuth.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
}

func TestCreateOrder_PaymentRequired(t *testing.T) {
	svc := &stubService{orderErr: repository.ErrInsufficientBalance}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(createOrderRequest{
		ServiceID: 1,
		Quantity:  500,
		TargetURL: "https://instagram.com/someuser",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.AddCookie(authCookie(t, h, 1, false))

	rec := httptest.NewRecorder()
	handlerWithAuth := h.authMiddleware.Middleware(http.HandlerFunc(h.CreateOrder))
	handlerWithAuth.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusPaymentRequired)
	}
}

func TestCancelOrder_Conflict(t *testing.T) {
	svc := &stubService{cancelErr: repository.ErrOrderNotPending}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/orders/7/cancel", nil)
	req.AddCookie(authCookie(t, h, 1, false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestSubmitPayment_Conflict(t *testing.T) {
	svc := &stubService{paymentErr: repository.ErrDuplicateTransaction}
	h := newTestHandler(t, svc)

	body, _ := json.Marshal(submitPaymentRequest{
		Amount:        100,
		Method:        "Bank Transfer",
		TransactionID: "TX-1",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/payments", bytes.NewReader(body))
	req.AddCookie(authCookie(t, h, 1, false))

	rec := httptest.NewRecorder()
	handlerWithAuth := h.authMiddleware.Middleware(http.HandlerFunc(h.SubmitPayment))
	handlerWithAuth.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestPopularServices_OK(t *testing.T) {
	svc := &stubService{
		services: []model.Service{
			{ID: 1, Name: "Instagram Followers", Platform: "instagram", PricePer1000: decimal.RequireFromString("10.00"), IsActive: true},
			{ID: 2, Name: "TikTok Likes", Platform: "tiktok", PricePer1000: decimal.RequireFromString("5.00"), IsActive: true},
		},
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/services/popular", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp listResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}
}

func TestGetTicketStats_OK(t *testing.T) {
	svc := &stubService{
		ticketStats: &model.TicketStats{Total: 4, Open: 1, Answered: 2, Closed: 1},
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/stats", nil)
	req.AddCookie(authCookie(t, h, 1, false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var resp ticketStatsResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 4 || resp.Open != 1 || resp.Answered != 2 || resp.Closed != 1 {
		t.Fatalf("unexpected stats: %+v", resp)
	}
}

func TestPaymentMethods_Payload(t *testing.T) {
	h := newTestHandler(t, &stubService{})
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/payments/methods", nil)
	req.AddCookie(authCookie(t, h, 1, false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var methods []paymentMethodResponse
	if err := json.NewDecoder(res.Body).Decode(&methods); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(methods) != 5 {
		t.Fatalf("methods = %d, want 5", len(methods))
	}

	wantPhone := map[string]bool{
		"vodafone_cash": true,
		"orange_money":  true,
		"etisalat_cash": true,
		"bank_transfer": false,
		"instapay":      false,
	}
	for _, m := range methods {
		want, ok := wantPhone[m.ID]
		if !ok {
			t.Fatalf("unexpected method id %q", m.ID)
		}
		if m.RequiresPhone != want {
			t.Fatalf("method %q requires_phone = %v, want %v", m.ID, m.RequiresPhone, want)
		}
		if m.Instructions == "" {
			t.Fatalf("method %q has empty instructions", m.ID)
		}
	}
}

func TestOrders_UnauthorizedWithoutCookie(t *testing.T) {
	h := newTestHandler(t, &stubService{})
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
}
