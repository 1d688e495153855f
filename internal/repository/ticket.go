package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sniper7707/Site3/internal/model"
)

const ticketColumns = `t.id, t.user_id, t.subject, t.status, t.priority,
	t.created_at, t.updated_at, t.closed_at,
	(SELECT COUNT(*) FROM ticket_messages m WHERE m.ticket_id = t.id)`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	var status, priority string
	err := row.Scan(&t.ID, &t.UserID, &t.Subject, &status, &priority,
		&t.CreatedAt, &t.UpdatedAt, &t.ClosedAt, &t.Messages)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("scan ticket: %w", err)
	}
	t.Status = model.TicketStatus(status)
	t.Priority = model.TicketPriority(priority)
	return &t, nil
}

// CreateTicket создаёт тикет вместе с первым сообщением пользователя.
func (r *PostgresRepository) CreateTicket(ctx context.Context, userID int64, subject string, priority model.TicketPriority, message string) (*model.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var ticketID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO tickets (user_id, subject, status, priority)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		userID, subject, string(model.TicketStatusOpen), string(priority),
	).Scan(&ticketID)
	if err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ticket_messages (ticket_id, user_id, message) VALUES ($1, $2, $3)`,
		ticketID, userID, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ticket message: %w", err)
	}

	row := tx.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets t WHERE t.id = $1`,
		ticketID,
	)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return ticket, nil
}

// TicketFilter задаёт условия выборки тикетов. UserID = 0 означает выборку
// по всем пользователям (админ).
type TicketFilter struct {
	UserID int64
	Status model.TicketStatus
	Limit  int
	Offset int
}

// ListTickets возвращает страницу тикетов, новые первыми.
func (r *PostgresRepository) ListTickets(ctx context.Context, f TicketFilter) ([]model.Ticket, int, error) {
	status := "%"
	if f.Status != "" {
		status = string(f.Status)
	}

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE ($1 = 0 OR user_id = $1) AND status LIKE $2`,
		f.UserID, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+ticketColumns+`
		 FROM tickets t
		 WHERE ($1 = 0 OR t.user_id = $1) AND t.status LIKE $2
		 ORDER BY t.created_at DESC
		 LIMIT $3 OFFSET $4`,
		f.UserID, status, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return tickets, total, nil
}

// GetTicket возвращает тикет. При userID > 0 чужие тикеты неотличимы от
// несуществующих.
func (r *PostgresRepository) GetTicket(ctx context.Context, ticketID, userID int64) (*model.Ticket, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets t WHERE t.id = $1 AND ($2 = 0 OR t.user_id = $2)`,
		ticketID, userID,
	)
	return scanTicket(row)
}

// GetTicketMessages возвращает сообщения тикета в хронологическом порядке.
func (r *PostgresRepository) GetTicketMessages(ctx context.Context, ticketID int64) ([]model.TicketMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ticket_id, user_id, message, is_admin_reply, created_at
		 FROM ticket_messages
		 WHERE ticket_id = $1
		 ORDER BY created_at`,
		ticketID,
	)
	if err != nil {
		return nil, fmt.Errorf("select ticket messages: %w", err)
	}
	defer rows.Close()

	var messages []model.TicketMessage
	for rows.Next() {
		var m model.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.UserID, &m.Message, &m.IsAdminReply, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return messages, nil
}

// AddTicketMessage добавляет сообщение в тикет и переводит его статус:
// ответ администратора — ANSWERED, ответ пользователя — AWAITING_REPLY.
// userID равен nil для ответов администратора.
func (r *PostgresRepository) AddTicketMessage(ctx context.Context, ticketID int64, userID *int64, message string) (*model.TicketMessage, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	isAdmin := userID == nil
	newStatus := model.TicketStatusAwaitingReply
	if isAdmin {
		newStatus = model.TicketStatusAnswered
	}

	tag, err := tx.Exec(ctx,
		`UPDATE tickets SET status = $2, updated_at = now() WHERE id = $1`,
		ticketID, string(newStatus),
	)
	if err != nil {
		return nil, fmt.Errorf("update ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrTicketNotFound
	}

	var m model.TicketMessage
	err = tx.QueryRow(ctx,
		`INSERT INTO ticket_messages (ticket_id, user_id, message, is_admin_reply)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, ticket_id, user_id, message, is_admin_reply, created_at`,
		ticketID, userID, message, isAdmin,
	).Scan(&m.ID, &m.TicketID, &m.UserID, &m.Message, &m.IsAdminReply, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert ticket message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &m, nil
}

// GetTicketStats возвращает статистику тикетов пользователя по статусам.
func (r *PostgresRepository) GetTicketStats(ctx context.Context, userID int64) (*model.TicketStats, error) {
	var stats model.TicketStats
	err := r.pool.QueryRow(ctx,
		`SELECT
		    COUNT(*),
		    COUNT(*) FILTER (WHERE status = $2),
		    COUNT(*) FILTER (WHERE status = $3),
		    COUNT(*) FILTER (WHERE status = $4),
		    COUNT(*) FILTER (WHERE status = $5)
		 FROM tickets
		 WHERE user_id = $1`,
		userID,
		string(model.TicketStatusOpen),
		string(model.TicketStatusAnswered),
		string(model.TicketStatusAwaitingReply),
		string(model.TicketStatusClosed),
	).Scan(&stats.Total, &stats.Open, &stats.Answered, &stats.AwaitingReply, &stats.Closed)
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w", err)
	}
	return &stats, nil
}

// CloseTicket закрывает тикет. При userID > 0 закрыть можно только свой
// тикет.
func (r *PostgresRepository) CloseTicket(ctx context.Context, ticketID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tickets
		 SET status = $2, closed_at = now(), updated_at = now()
		 WHERE id = $1 AND ($3 = 0 OR user_id = $3)`,
		ticketID, string(model.TicketStatusClosed), userID,
	)
	if err != nil {
		return fmt.Errorf("close ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}
