package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/pricing"
	"github.com/sniper7707/Site3/internal/repository"
)

// ListServices возвращает страницу активных услуг каталога.
func (s *Service) ListServices(ctx context.Context, f repository.ServiceFilter) ([]model.Service, int, error) {
	return s.repo.ListServices(ctx, f)
}

// GetService возвращает активную услугу каталога. Неактивные услуги
// возвращают ErrServiceUnavailable.
func (s *Service) GetService(ctx context.Context, serviceID int64) (*model.Service, error) {
	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, ErrServiceUnavailable
	}
	return svc, nil
}

// Витрина показывает шесть самых заказываемых услуг.
const popularServicesLimit = 6

// PopularServices возвращает самые заказываемые активные услуги.
func (s *Service) PopularServices(ctx context.Context) ([]model.Service, error) {
	return s.repo.PopularServices(ctx, popularServicesLimit)
}

// Platforms возвращает платформы с активными услугами.
func (s *Service) Platforms(ctx context.Context) ([]string, error) {
	return s.repo.Platforms(ctx)
}

// Categories возвращает категории активных услуг.
func (s *Service) Categories(ctx context.Context, platform string) ([]string, error) {
	return s.repo.Categories(ctx, platform)
}

// PreviewPrice вычисляет стоимость заказа без его создания.
func (s *Service) PreviewPrice(ctx context.Context, serviceID int64, quantity int) (decimal.Decimal, *model.Service, error) {
	svc, err := s.GetService(ctx, serviceID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	if quantity < svc.MinQuantity || quantity > svc.MaxQuantity {
		return decimal.Zero, nil, ErrQuantityOutOfRange
	}

	return pricing.Charge(quantity, svc.PricePer1000), svc, nil
}
