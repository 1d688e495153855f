// Package service реализует бизнес-логику SMM-панели.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/sniper7707/Site3/internal/model"
	"github.com/sniper7707/Site3/internal/repository"
	"github.com/sniper7707/Site3/internal/validation"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidLogin возвращается при недопустимом имени пользователя.
	ErrInvalidLogin = errors.New("invalid login format")
	// ErrInvalidEmail возвращается при недопустимом адресе почты.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword возвращается, если пароль не проходит требования
	// сложности.
	ErrWeakPassword = errors.New("password is too weak")
	// ErrServiceUnavailable возвращается для неактивной услуги каталога.
	ErrServiceUnavailable = errors.New("service is not available")
	// ErrQuantityOutOfRange возвращается при количестве вне пределов услуги.
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	// ErrInvalidTargetLink возвращается при недопустимой цели заказа.
	ErrInvalidTargetLink = errors.New("invalid target link")
	// ErrAmountOutOfRange возвращается при сумме пополнения вне пределов.
	ErrAmountOutOfRange = errors.New("amount out of range")
	// ErrInvalidMethod возвращается при неизвестном способе оплаты.
	ErrInvalidMethod = errors.New("invalid payment method")
	// ErrPhoneRequired возвращается, если для мобильного кошелька не указан
	// номер телефона.
	ErrPhoneRequired = errors.New("phone number is required for mobile wallet payments")
	// ErrInvalidPhone возвращается при недопустимом номере телефона.
	ErrInvalidPhone = errors.New("invalid phone number format")
	// ErrInvalidStatus возвращается при неизвестном статусе заказа.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidPriority возвращается при неизвестном приоритете тикета.
	ErrInvalidPriority = errors.New("invalid ticket priority")
	// ErrInvalidAction возвращается при неизвестном действии корректировки
	// баланса.
	ErrInvalidAction = errors.New("invalid balance action")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, login, email string, passwordHash []byte) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash []byte) error
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	AddToBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
	SetBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
	ListUsers(ctx context.Context, search string, limit, offset int) ([]model.User, int, error)
	GetAdminStats(ctx context.Context) (*model.AdminStats, error)

	GetServiceByID(ctx context.Context, id int64) (*model.Service, error)
	ListServices(ctx context.Context, f repository.ServiceFilter) ([]model.Service, int, error)
	PopularServices(ctx context.Context, limit int) ([]model.Service, error)
	Platforms(ctx context.Context) ([]string, error)
	Categories(ctx context.Context, platform string) ([]string, error)

	CreateOrder(ctx context.Context, userID, serviceID int64, quantity int, targetURL string, charge decimal.Decimal) (*model.Order, error)
	GetOrderForUser(ctx context.Context, orderID, userID int64) (*model.Order, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]model.Order, int, error)
	CancelOrder(ctx context.Context, orderID, userID int64) (decimal.Decimal, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, newStatus model.OrderStatus, notes string) (*model.Order, error)
	GetOrderStats(ctx context.Context, userID int64) (*model.OrderStats, error)

	CreatePayment(ctx context.Context, userID int64, amount decimal.Decimal, method model.PaymentMethod, transactionID, phone, notes string) (*model.Payment, error)
	GetPaymentForUser(ctx context.Context, paymentID, userID int64) (*model.Payment, error)
	ListPayments(ctx context.Context, f repository.PaymentFilter) ([]model.Payment, int, error)
	ApprovePayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error)
	RejectPayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error)
	GetPaymentStats(ctx context.Context, userID int64) (*model.PaymentStats, error)

	CreateTicket(ctx context.Context, userID int64, subject string, priority model.TicketPriority, message string) (*model.Ticket, error)
	ListTickets(ctx context.Context, f repository.TicketFilter) ([]model.Ticket, int, error)
	GetTicket(ctx context.Context, ticketID, userID int64) (*model.Ticket, error)
	GetTicketMessages(ctx context.Context, ticketID int64) ([]model.TicketMessage, error)
	GetTicketStats(ctx context.Context, userID int64) (*model.TicketStats, error)
	AddTicketMessage(ctx context.Context, ticketID int64, userID *int64, message string) (*model.TicketMessage, error)
	CloseTicket(ctx context.Context, ticketID, userID int64) error
}

// Service содержит бизнес-логику SMM-панели.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя с нулевым балансом.
func (s *Service) RegisterUser(ctx context.Context, login, email, password string) (*model.User, error) {
	if !validation.IsValidLogin(login) {
		return nil, ErrInvalidLogin
	}
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(password) {
		return nil, ErrWeakPassword
	}

	hashed := hashPassword(login, password)
	id, err := s.repo.CreateUser(ctx, login, email, hashed)
	if err != nil {
		return nil, err
	}

	return s.repo.GetUserByID(ctx, id)
}

// AuthenticateUser проверяет логин (или почту) и пароль и возвращает
// пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (*model.User, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	hashed := hashPassword(u.Login, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// ChangePassword меняет пароль пользователя после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	hashed := hashPassword(u.Login, current)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return ErrInvalidCredentials
	}

	if !validation.IsValidPassword(next) {
		return ErrWeakPassword
	}

	return s.repo.UpdatePassword(ctx, userID, hashPassword(u.Login, next))
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.repo.GetBalance(ctx, userID)
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}
