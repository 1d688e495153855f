package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
)

func TestSubmitPayment_Validation(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		method  model.PaymentMethod
		phone   string
		wantErr error
	}{
		{"below minimum", "9.99", model.MethodBankTransfer, "", ErrAmountOutOfRange},
		{"above maximum", "10000.01", model.MethodBankTransfer, "", ErrAmountOutOfRange},
		{"unknown method", "100.00", model.PaymentMethod("PayPal"), "", ErrInvalidMethod},
		{"wallet without phone", "100.00", model.MethodVodafoneCash, "", ErrPhoneRequired},
		{"wallet with bad phone", "100.00", model.MethodOrangeMoney, "0201234567", ErrInvalidPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{}
			svc := NewService(repo)

			amount := decimal.RequireFromString(tt.amount)
			_, err := svc.SubmitPayment(context.Background(), 1, amount, tt.method, "TX-1", tt.phone, "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SubmitPayment error = %v, want %v", err, tt.wantErr)
			}
			if repo.createPaymentCalled {
				t.Fatalf("repository CreatePayment must not be called when validation fails")
			}
		})
	}
}

func TestSubmitPayment_RoundsAmount(t *testing.T) {
	repo := &stubRepo{
		createPaymentResp: &model.Payment{ID: 3, Status: model.PaymentStatusPending},
	}
	svc := NewService(repo)

	amount := decimal.RequireFromString("50.005")
	p, err := svc.SubmitPayment(context.Background(), 1, amount, model.MethodBankTransfer, "TX-1", "", "")
	if err != nil {
		t.Fatalf("SubmitPayment returned error: %v", err)
	}

	want := decimal.RequireFromString("50.01")
	if !repo.createPaymentAmount.Equal(want) {
		t.Fatalf("amount passed to repository = %s, want %s", repo.createPaymentAmount, want)
	}
	if p.Status != model.PaymentStatusPending {
		t.Fatalf("payment status = %s, want %s", p.Status, model.PaymentStatusPending)
	}
}

func TestSubmitPayment_WalletWithValidPhone(t *testing.T) {
	repo := &stubRepo{
		createPaymentResp: &model.Payment{ID: 3, Status: model.PaymentStatusPending},
	}
	svc := NewService(repo)

	amount := decimal.RequireFromString("100.00")
	_, err := svc.SubmitPayment(context.Background(), 1, amount, model.MethodVodafoneCash, "TX-1", "01012345678", "sent from wallet")
	if err != nil {
		t.Fatalf("SubmitPayment returned error: %v", err)
	}
	if repo.createPaymentNotes != "sent from wallet" {
		t.Fatalf("notes = %q, want passthrough", repo.createPaymentNotes)
	}
	if !repo.createPaymentCalled {
		t.Fatalf("expected repository CreatePayment to be called")
	}
}

func TestSubmitPayment_DuplicateTransaction(t *testing.T) {
	repo := &stubRepo{createPaymentErr: repository.ErrDuplicateTransaction}
	svc := NewService(repo)

	amount := decimal.RequireFromString("100.00")
	_, err := svc.SubmitPayment(context.Background(), 1, amount, model.MethodBankTransfer, "TX-1", "", "")
	if !errors.Is(err, repository.ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}
}

func TestApprovePayment_NotPending(t *testing.T) {
	repo := &stubRepo{approveErr: repository.ErrPaymentNotPending}
	svc := NewService(repo)

	_, err := svc.ApprovePayment(context.Background(), 3, "")
	if !errors.Is(err, repository.ErrPaymentNotPending) {
		t.Fatalf("expected ErrPaymentNotPending, got %v", err)
	}
}

func TestAdminAdjustBalance(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		wantErr    error
		wantCalled string
	}{
		{"add", "add", nil, "add"},
		{"set", "set", nil, "set"},
		{"unknown action", "multiply", ErrInvalidAction, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{balanceResp: decimal.RequireFromString("25.00")}
			svc := NewService(repo)

			_, err := svc.AdminAdjustBalance(context.Background(), 1, decimal.RequireFromString("25.00"), tt.action)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AdminAdjustBalance error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AdminAdjustBalance returned error: %v", err)
			}
			if repo.balanceAction != tt.wantCalled {
				t.Fatalf("repository call = %q, want %q", repo.balanceAction, tt.wantCalled)
			}
		})
	}
}
