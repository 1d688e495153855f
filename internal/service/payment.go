package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
	"github.com/sniper7707/Site3/internal/validation"
)

// Пределы разового пополнения в фунтах.
var (
	minDeposit = decimal.NewFromInt(10)
	maxDeposit = decimal.NewFromInt(10000)
)

// SubmitPayment создаёт заявку на пополнение в статусе PENDING.
// Баланс пополняется только после подтверждения администратором.
func (s *Service) SubmitPayment(ctx context.Context, userID int64, amount decimal.Decimal, method model.PaymentMethod, transactionID, phone, notes string) (*model.Payment, error) {
	amount = amount.Round(2)
	if amount.LessThan(minDeposit) || amount.GreaterThan(maxDeposit) {
		return nil, ErrAmountOutOfRange
	}

	if !method.Valid() {
		return nil, ErrInvalidMethod
	}

	if method.MobileWallet() {
		if phone == "" {
			return nil, ErrPhoneRequired
		}
		if !validation.IsValidPhoneNumber(phone) {
			return nil, ErrInvalidPhone
		}
	}

	return s.repo.CreatePayment(ctx, userID, amount, method, transactionID, phone, notes)
}

// GetPayment возвращает платёж пользователя.
func (s *Service) GetPayment(ctx context.Context, paymentID, userID int64) (*model.Payment, error) {
	return s.repo.GetPaymentForUser(ctx, paymentID, userID)
}

// ListPayments возвращает страницу платежей.
func (s *Service) ListPayments(ctx context.Context, f repository.PaymentFilter) ([]model.Payment, int, error) {
	return s.repo.ListPayments(ctx, f)
}

// ApprovePayment подтверждает платёж и зачисляет сумму на баланс ровно
// один раз.
func (s *Service) ApprovePayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error) {
	return s.repo.ApprovePayment(ctx, paymentID, adminNotes)
}

// RejectPayment отклоняет платёж без изменения баланса.
func (s *Service) RejectPayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error) {
	return s.repo.RejectPayment(ctx, paymentID, adminNotes)
}

// GetPaymentStats возвращает статистику пополнений пользователя.
func (s *Service) GetPaymentStats(ctx context.Context, userID int64) (*model.PaymentStats, error) {
	return s.repo.GetPaymentStats(ctx, userID)
}

// AdminAdjustBalance корректирует баланс пользователя: action "add"
// прибавляет сумму (возможно отрицательную), action "set" устанавливает
// точное значение. Баланс не может стать отрицательным.
func (s *Service) AdminAdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal, action string) (decimal.Decimal, error) {
	switch action {
	case "add":
		return s.repo.AddToBalance(ctx, userID, amount)
	case "set":
		return s.repo.SetBalance(ctx, userID, amount)
	default:
		return decimal.Zero, ErrInvalidAction
	}
}
