package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sniper7707/Site3/internal/model"
)

const orderColumns = `id, user_id, service_id, quantity, target_url, charge,
	start_count, remains, status, notes, created_at, updated_at, completed_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	var chargeCents int64
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.ServiceID, &o.Quantity, &o.TargetURL,
		&chargeCents, &o.StartCount, &o.Remains, &status, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.Charge = fromCents(chargeCents)
	o.Status = model.OrderStatus(status)
	return &o, nil
}

// CreateOrder списывает стоимость заказа с баланса пользователя и создаёт
// заказ в одной транзакции. При нехватке средств заказ не создаётся и
// баланс не меняется.
func (r *PostgresRepository) CreateOrder(ctx context.Context, userID, serviceID int64, quantity int, targetURL string, charge decimal.Decimal) (*model.Order, error) {
	chargeCents := toCents(charge)

	var order *model.Order
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

		if balance < chargeCents {
			return ErrInsufficientBalance
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = balance - $2, updated_at = now() WHERE id = $1`,
			userID, chargeCents,
		)
		if err != nil {
			return fmt.Errorf("deduct balance: %w", err)
		}

		row := tx.QueryRow(ctx,
			`INSERT INTO orders (user_id, service_id, quantity, target_url, charge, remains, status)
			 VALUES ($1, $2, $3, $4, $5, $3, $6)
			 RETURNING `+orderColumns,
			userID, serviceID, quantity, targetURL, chargeCents,
			string(model.OrderStatusPending),
		)
		order, err = scanOrder(row)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderForUser возвращает заказ пользователя. Чужие заказы неотличимы
// от несуществующих.
func (r *PostgresRepository) GetOrderForUser(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`,
		orderID, userID,
	)
	return scanOrder(row)
}

// OrderFilter задаёт условия выборки заказов. UserID = 0 означает выборку
// по всем пользователям (админ).
type OrderFilter struct {
	UserID int64
	Status model.OrderStatus
	Limit  int
	Offset int
}

// ListOrders возвращает страницу заказов, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context, f OrderFilter) ([]model.Order, int, error) {
	status := "%"
	if f.Status != "" {
		status = string(f.Status)
	}

	const where = `($1 = 0 OR user_id = $1) AND status LIKE $2`

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE `+where,
		f.UserID, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE `+where+`
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		f.UserID, status, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return orders, total, nil
}

// CancelOrder отменяет заказ пользователя в статусе PENDING и возвращает
// списанную сумму на баланс. Возврат и смена статуса атомарны.
// Порядок блокировок фиксированный: сначала строка заказа, затем строка
// пользователя.
func (r *PostgresRepository) CancelOrder(ctx context.Context, orderID, userID int64) (decimal.Decimal, error) {
	var refundCents int64
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var status string
		err = tx.QueryRow(ctx,
			`SELECT charge, status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			orderID, userID,
		).Scan(&refundCents, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if model.OrderStatus(status) != model.OrderStatusPending {
			return ErrOrderNotPending
		}

		if _, err := lockUserBalance(ctx, tx, userID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = balance + $2, updated_at = now() WHERE id = $1`,
			userID, refundCents,
		)
		if err != nil {
			return fmt.Errorf("refund balance: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
			orderID, string(model.OrderStatusCancelled),
		)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return fromCents(refundCents), nil
}

// UpdateOrderStatus переводит заказ в указанный статус (админ-операция,
// граф переходов не ограничивает). Побочные эффекты защищены проверкой
// прежнего статуса: вход в REFUNDED зачисляет стоимость ровно один раз,
// вход в COMPLETED обнуляет remains и ставит completed_at. Повторная
// установка того же статуса ничего не зачисляет.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, orderID int64, newStatus model.OrderStatus, notes string) (*model.Order, error) {
	var order *model.Order
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var ownerID, chargeCents int64
		var oldStatus string
		err = tx.QueryRow(ctx,
			`SELECT user_id, charge, status FROM orders WHERE id = $1 FOR UPDATE`,
			orderID,
		).Scan(&ownerID, &chargeCents, &oldStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if newStatus == model.OrderStatusRefunded && model.OrderStatus(oldStatus) != model.OrderStatusRefunded {
			if _, err := lockUserBalance(ctx, tx, ownerID); err != nil {
				return err
			}
			_, err = tx.Exec(ctx,
				`UPDATE users SET balance = balance + $2, updated_at = now() WHERE id = $1`,
				ownerID, chargeCents,
			)
			if err != nil {
				return fmt.Errorf("refund balance: %w", err)
			}
		}

		var row pgx.Row
		if newStatus == model.OrderStatusCompleted {
			row = tx.QueryRow(ctx,
				`UPDATE orders
				 SET status = $2, notes = $3, remains = 0, completed_at = now(), updated_at = now()
				 WHERE id = $1
				 RETURNING `+orderColumns,
				orderID, string(newStatus), notes,
			)
		} else {
			row = tx.QueryRow(ctx,
				`UPDATE orders
				 SET status = $2, notes = $3, updated_at = now()
				 WHERE id = $1
				 RETURNING `+orderColumns,
				orderID, string(newStatus), notes,
			)
		}
		order, err = scanOrder(row)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderStats возвращает статистику заказов пользователя.
func (r *PostgresRepository) GetOrderStats(ctx context.Context, userID int64) (*model.OrderStats, error) {
	var stats model.OrderStats
	var spentCents int64

	err := r.pool.QueryRow(ctx,
		`SELECT
		    COUNT(*),
		    COUNT(*) FILTER (WHERE status = $2),
		    COUNT(*) FILTER (WHERE status = $3),
		    COUNT(*) FILTER (WHERE status = $4),
		    COALESCE(SUM(charge), 0)
		 FROM orders
		 WHERE user_id = $1`,
		userID,
		string(model.OrderStatusPending),
		string(model.OrderStatusInProgress),
		string(model.OrderStatusCompleted),
	).Scan(&stats.Total, &stats.Pending, &stats.InProgress, &stats.Completed, &spentCents)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}

	stats.TotalSpent = fromCents(spentCents)
	return &stats, nil
}
