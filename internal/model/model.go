// Package model содержит доменные сущности SMM-панели.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User представляет зарегистрированного пользователя панели.
type User struct {
	ID           int64
	Login        string
	Email        string
	PasswordHash []byte
	Balance      decimal.Decimal
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Service описывает услугу каталога (подписчики, лайки, просмотры и т.д.).
type Service struct {
	ID           int64
	Name         string
	Description  string
	Platform     string
	Category     string
	PricePer1000 decimal.Decimal
	MinQuantity  int
	MaxQuantity  int
	DeliveryTime string
	IsActive     bool
	CreatedAt    time.Time
}

// OrderStatus описывает статус выполнения заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// orderTransitions задаёт граф допустимых переходов статуса заказа.
// CANCELLED и REFUNDED — терминальные состояния.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted:  {OrderStatusRefunded},
}

// Valid проверяет, что значение статуса входит в закрытый набор.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// canTransitionTo проверяет допустимость перехода по графу статусов.
// Хранилище графом не пользуется: админ-операция обходит его по замыслу,
// а отмена пользователем жёстче графа (только из PENDING). Граф
// фиксирует доменную модель и проверяется тестами.
func (s OrderStatus) canTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// terminal сообщает, что из статуса нет переходов по графу
// (единственное исключение COMPLETED -> REFUNDED задано в графе явно).
func (s OrderStatus) terminal() bool {
	return len(orderTransitions[s]) == 0
}

// Order описывает заказ пользователя на услугу каталога.
// Charge фиксируется при создании и больше не пересчитывается.
type Order struct {
	ID          int64
	UserID      int64
	ServiceID   int64
	Quantity    int
	TargetURL   string
	Charge      decimal.Decimal
	StartCount  int
	Remains     int
	Status      OrderStatus
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// PaymentStatus описывает статус заявки на пополнение баланса.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

// Valid проверяет, что значение статуса входит в закрытый набор.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

// terminal сообщает, что статус платежа финальный.
func (s PaymentStatus) terminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusRejected
}

// PaymentMethod описывает способ пополнения баланса.
type PaymentMethod string

const (
	MethodVodafoneCash PaymentMethod = "Vodafone Cash"
	MethodOrangeMoney  PaymentMethod = "Orange Money"
	MethodEtisalatCash PaymentMethod = "Etisalat Cash"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
	MethodInstaPay     PaymentMethod = "InstaPay"
)

// PaymentMethods перечисляет допустимые способы оплаты.
var PaymentMethods = []PaymentMethod{
	MethodVodafoneCash,
	MethodOrangeMoney,
	MethodEtisalatCash,
	MethodBankTransfer,
	MethodInstaPay,
}

// Valid проверяет, что способ оплаты входит в закрытый набор.
func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// MobileWallet сообщает, требует ли способ оплаты номер мобильного кошелька.
func (m PaymentMethod) MobileWallet() bool {
	return m == MethodVodafoneCash || m == MethodOrangeMoney || m == MethodEtisalatCash
}

// Payment описывает заявку на пополнение баланса с подтверждением перевода.
// Зачисление на баланс происходит не более одного раза — при переходе
// PENDING -> APPROVED.
type Payment struct {
	ID            int64
	UserID        int64
	Amount        decimal.Decimal
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	PhoneNumber   string
	Notes         string
	AdminNotes    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ApprovedAt    *time.Time
}

// TicketStatus описывает статус тикета поддержки.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "OPEN"
	TicketStatusAnswered      TicketStatus = "ANSWERED"
	TicketStatusAwaitingReply TicketStatus = "AWAITING_REPLY"
	TicketStatusClosed        TicketStatus = "CLOSED"
)

// TicketPriority описывает приоритет тикета.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Valid проверяет, что приоритет входит в закрытый набор.
func (p TicketPriority) Valid() bool {
	return p == TicketPriorityLow || p == TicketPriorityNormal || p == TicketPriorityHigh
}

// Ticket описывает обращение пользователя в поддержку.
type Ticket struct {
	ID        int64
	UserID    int64
	Subject   string
	Status    TicketStatus
	Priority  TicketPriority
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
	Messages  int
}

// TicketMessage описывает сообщение в тикете. UserID равен nil для ответов
// администратора.
type TicketMessage struct {
	ID           int64
	TicketID     int64
	UserID       *int64
	Message      string
	IsAdminReply bool
	CreatedAt    time.Time
}

// TicketStats агрегирует статистику тикетов пользователя по статусам.
type TicketStats struct {
	Total         int
	Open          int
	Answered      int
	AwaitingReply int
	Closed        int
}

// OrderStats агрегирует статистику заказов пользователя.
type OrderStats struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	TotalSpent decimal.Decimal
}

// PaymentStats агрегирует статистику пополнений пользователя.
type PaymentStats struct {
	TotalDeposits    decimal.Decimal
	PendingDeposits  decimal.Decimal
	TotalPayments    int
	ApprovedPayments int
}

// AdminStats агрегирует показатели для панели администратора.
type AdminStats struct {
	TotalUsers      int
	TotalOrders     int
	TotalServices   int
	PendingTickets  int
	TotalRevenue    decimal.Decimal
	PendingPayments int
}
