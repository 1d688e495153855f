package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/pricing"
	"github.com/sniper7707/Site3/internal/repository"
	"github.com/sniper7707/Site3/internal/validation"
)

// CreateOrder создаёт заказ: проверяет услугу, количество и цель,
// вычисляет стоимость и списывает её с баланса. Стоимость заказа
// фиксируется здесь один раз; списание и создание заказа атомарны,
// при нехватке средств состояние не меняется.
func (s *Service) CreateOrder(ctx context.Context, userID, serviceID int64, quantity int, targetURL string) (*model.Order, error) {
	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrServiceUnavailable
	}

	if quantity < svc.MinQuantity || quantity > svc.MaxQuantity {
		return nil, ErrQuantityOutOfRange
	}

	if !validation.IsValidTargetLink(targetURL) {
		return nil, ErrInvalidTargetLink
	}

	charge := pricing.Charge(quantity, svc.PricePer1000)

	return s.repo.CreateOrder(ctx, userID, serviceID, quantity, targetURL, charge)
}

// GetOrder возвращает заказ пользователя.
func (s *Service) GetOrder(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	return s.repo.GetOrderForUser(ctx, orderID, userID)
}

// ListOrders возвращает страницу заказов.
func (s *Service) ListOrders(ctx context.Context, f repository.OrderFilter) ([]model.Order, int, error) {
	return s.repo.ListOrders(ctx, f)
}

// CancelOrder отменяет заказ пользователя в статусе PENDING и возвращает
// сумму возврата.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID int64) (decimal.Decimal, error) {
	return s.repo.CancelOrder(ctx, orderID, userID)
}

// AdminUpdateOrderStatus переводит заказ в указанный статус от имени
// администратора. Повторная установка того же статуса идемпотентна.
func (s *Service) AdminUpdateOrderStatus(ctx context.Context, orderID int64, newStatus model.OrderStatus, notes string) (*model.Order, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.UpdateOrderStatus(ctx, orderID, newStatus, notes)
}

// GetOrderStats возвращает статистику заказов пользователя.
func (s *Service) GetOrderStats(ctx context.Context, userID int64) (*model.OrderStats, error) {
	return s.repo.GetOrderStats(ctx, userID)
}
