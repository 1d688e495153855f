package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/sniper7707/Site3/internal/model"
)

// CreateUser создаёт нового пользователя с нулевым балансом.
func (r *PostgresRepository) CreateUser(ctx context.Context, login, email string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (login, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		login, email, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrUserExists, login)
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var balanceCents int64
	err := row.Scan(&u.ID, &u.Login, &u.Email, &u.PasswordHash, &balanceCents,
		&u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Balance = fromCents(balanceCents)
	return &u, nil
}

// GetUserByLogin возвращает пользователя по логину или адресу почты.
func (r *PostgresRepository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, login, email, password_hash, balance, is_admin, created_at, updated_at
		 FROM users
		 WHERE login = $1 OR email = $1`,
		login,
	)
	return scanUser(row)
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, login, email, password_hash, balance, is_admin, created_at, updated_at
		 FROM users
		 WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

// UpdatePassword сохраняет новый хеш пароля пользователя.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		userID, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetBalance возвращает текущий баланс пользователя.
func (r *PostgresRepository) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var balanceCents int64
	err := r.pool.QueryRow(ctx,
		`SELECT balance FROM users WHERE id = $1`,
		userID,
	).Scan(&balanceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return fromCents(balanceCents), nil
}

// AddToBalance зачисляет (или при отрицательной сумме списывает) средства
// пользователю под блокировкой строки. Баланс не может стать отрицательным.
func (r *PostgresRepository) AddToBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance int64
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		balance, err := lockUserBalance(ctx, tx, userID)
		if err != nil {
			return err
		}

		newBalance = balance + toCents(amount)
		if newBalance < 0 {
			return ErrNegativeBalance
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = $2, updated_at = now() WHERE id = $1`,
			userID, newBalance,
		)
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return fromCents(newBalance), nil
}

// SetBalance устанавливает баланс пользователя в точное значение.
func (r *PostgresRepository) SetBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	cents := toCents(amount)
	if cents < 0 {
		return decimal.Zero, ErrNegativeBalance
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET balance = $2, updated_at = now() WHERE id = $1`,
		userID, cents,
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("set balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return decimal.Zero, ErrUserNotFound
	}
	return fromCents(cents), nil
}

// ListUsers возвращает страницу пользователей с поиском по логину и почте.
func (r *PostgresRepository) ListUsers(ctx context.Context, search string, limit, offset int) ([]model.User, int, error) {
	pattern := "%" + search + "%"

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE login ILIKE $1 OR email ILIKE $1`,
		pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, login, email, password_hash, balance, is_admin, created_at, updated_at
		 FROM users
		 WHERE login ILIKE $1 OR email ILIKE $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		pattern, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return users, total, nil
}

// GetAdminStats собирает сводные показатели для панели администратора.
func (r *PostgresRepository) GetAdminStats(ctx context.Context) (*model.AdminStats, error) {
	var stats model.AdminStats
	var revenueCents int64

	err := r.pool.QueryRow(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM users),
		    (SELECT COUNT(*) FROM orders),
		    (SELECT COUNT(*) FROM services WHERE is_active),
		    (SELECT COUNT(*) FROM tickets WHERE status = $1),
		    (SELECT COALESCE(SUM(charge), 0) FROM orders WHERE status = $2),
		    (SELECT COUNT(*) FROM payments WHERE status = $3)`,
		string(model.TicketStatusOpen),
		string(model.OrderStatusCompleted),
		string(model.PaymentStatusPending),
	).Scan(&stats.TotalUsers, &stats.TotalOrders, &stats.TotalServices,
		&stats.PendingTickets, &revenueCents, &stats.PendingPayments)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}

	stats.TotalRevenue = fromCents(revenueCents)
	return &stats, nil
}
