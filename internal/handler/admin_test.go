package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
)

func TestAdmin_ForbiddenForRegularUser(t *testing.T) {
	svc := &stubService{
		user: &model.User{ID: 1, Login: "user_01", IsAdmin: false},
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(authCookie(t, h, 1, false))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusForbidden)
	}
}

func TestAdmin_ForbiddenWhenFlagRevoked(t *testing.T) {
	// Cookie с флагом администратора, но в базе флаг уже снят.
	svc := &stubService{
		user: &model.User{ID: 1, Login: "user_01", IsAdmin: false},
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(authCookie(t, h, 1, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusForbidden)
	}
}

func TestAdminStats_OK(t *testing.T) {
	svc := &stubService{
		user: &model.User{ID: 1, Login: "admin", IsAdmin: true},
		adminStats: &model.AdminStats{
			TotalUsers:   10,
			TotalOrders:  25,
			TotalRevenue: decimal.RequireFromString("250.00"),
		},
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(authCookie(t, h, 1, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestAdminApprovePayment_Conflict(t *testing.T) {
	svc := &stubService{
		user:       &model.User{ID: 1, Login: "admin", IsAdmin: true},
		paymentErr: repository.ErrPaymentNotPending,
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	body, _ := json.Marshal(moderatePaymentRequest{Notes: "ok"})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/payments/3/approve", bytes.NewReader(body))
	req.AddCookie(authCookie(t, h, 1, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestAdminUpdateOrderStatus_OK(t *testing.T) {
	svc := &stubService{
		user: &model.User{ID: 1, Login: "admin", IsAdmin: true},
		orderResp: &model.Order{
			ID:     7,
			Charge: decimal.RequireFromString("5.00"),
			Status: model.OrderStatusCompleted,
		},
	}
	h := newTestHandler(t, svc)
	router := h.SetupRouter()

	body, _ := json.Marshal(updateOrderStatusRequest{Status: "COMPLETED"})
	req := httptest.NewRequest(http.MethodPut, "/api/admin/orders/7/status", bytes.NewReader(body))
	req.AddCookie(authCookie(t, h, 1, true))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	res := rec.Result()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}
