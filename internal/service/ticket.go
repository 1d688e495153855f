package service

import (
	"context"

	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
)

// OpenTicket создаёт тикет поддержки с первым сообщением пользователя.
// Пустой приоритет трактуется как NORMAL.
func (s *Service) OpenTicket(ctx context.Context, userID int64, subject string, priority model.TicketPriority, message string) (*model.Ticket, error) {
	if priority == "" {
		priority = model.TicketPriorityNormal
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	return s.repo.CreateTicket(ctx, userID, subject, priority, message)
}

// ListTickets возвращает страницу тикетов.
func (s *Service) ListTickets(ctx context.Context, f repository.TicketFilter) ([]model.Ticket, int, error) {
	return s.repo.ListTickets(ctx, f)
}

// GetTicket возвращает тикет с сообщениями. При userID > 0 доступны
// только собственные тикеты.
func (s *Service) GetTicket(ctx context.Context, ticketID, userID int64) (*model.Ticket, []model.TicketMessage, error) {
	t, err := s.repo.GetTicket(ctx, ticketID, userID)
	if err != nil {
		return nil, nil, err
	}

	messages, err := s.repo.GetTicketMessages(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}

	return t, messages, nil
}

// GetTicketStats возвращает статистику тикетов пользователя.
func (s *Service) GetTicketStats(ctx context.Context, userID int64) (*model.TicketStats, error) {
	return s.repo.GetTicketStats(ctx, userID)
}

// ReplyToTicket добавляет ответ пользователя в его тикет.
func (s *Service) ReplyToTicket(ctx context.Context, ticketID, userID int64, message string) (*model.TicketMessage, error) {
	if _, err := s.repo.GetTicket(ctx, ticketID, userID); err != nil {
		return nil, err
	}
	return s.repo.AddTicketMessage(ctx, ticketID, &userID, message)
}

// AdminReplyToTicket добавляет ответ администратора в любой тикет.
func (s *Service) AdminReplyToTicket(ctx context.Context, ticketID int64, message string) (*model.TicketMessage, error) {
	return s.repo.AddTicketMessage(ctx, ticketID, nil, message)
}

// CloseTicket закрывает тикет. При userID > 0 закрыть можно только свой.
func (s *Service) CloseTicket(ctx context.Context, ticketID, userID int64) error {
	return s.repo.CloseTicket(ctx, ticketID, userID)
}
