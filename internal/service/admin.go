package service

import (
	"context"

	"github.com/sniper7707/Site3/internal/model"
)

// ListUsers возвращает страницу пользователей с поиском по логину и почте.
func (s *Service) ListUsers(ctx context.Context, search string, limit, offset int) ([]model.User, int, error) {
	return s.repo.ListUsers(ctx, search, limit, offset)
}

// GetAdminStats возвращает сводные показатели панели администратора.
func (s *Service) GetAdminStats(ctx context.Context) (*model.AdminStats, error) {
	return s.repo.GetAdminStats(ctx)
}
