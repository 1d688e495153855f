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

const paymentColumns = `id, user_id, amount, method, status, transaction_id,
	phone_number, notes, admin_notes, created_at, updated_at, approved_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	var amountCents int64
	var method, status string
	err := row.Scan(&p.ID, &p.UserID, &amountCents, &method, &status,
		&p.TransactionID, &p.PhoneNumber, &p.Notes, &p.AdminNotes,
		&p.CreatedAt, &p.UpdatedAt, &p.ApprovedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	p.Amount = fromCents(amountCents)
	p.Method = model.PaymentMethod(method)
	p.Status = model.PaymentStatus(status)
	return &p, nil
}

// CreatePayment создаёт заявку на пополнение в статусе PENDING.
// Баланс не меняется до подтверждения администратором.
func (r *PostgresRepository) CreatePayment(ctx context.Context, userID int64, amount decimal.Decimal, method model.PaymentMethod, transactionID, phone, notes string) (*model.Payment, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO payments (user_id, amount, method, status, transaction_id, phone_number, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+paymentColumns,
		userID, toCents(amount), string(method),
		string(model.PaymentStatusPending), transactionID, phone, notes,
	)

	p, err := scanPayment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, transactionID)
		}
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

// GetPaymentForUser возвращает платёж пользователя. Чужие платежи
// неотличимы от несуществующих.
func (r *PostgresRepository) GetPaymentForUser(ctx context.Context, paymentID, userID int64) (*model.Payment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 AND user_id = $2`,
		paymentID, userID,
	)
	return scanPayment(row)
}

// PaymentFilter задаёт условия выборки платежей. UserID = 0 означает
// выборку по всем пользователям (админ).
type PaymentFilter struct {
	UserID int64
	Status model.PaymentStatus
	Limit  int
	Offset int
}

// ListPayments возвращает страницу платежей, новые первыми.
func (r *PostgresRepository) ListPayments(ctx context.Context, f PaymentFilter) ([]model.Payment, int, error) {
	status := "%"
	if f.Status != "" {
		status = string(f.Status)
	}

	const where = `($1 = 0 OR user_id = $1) AND status LIKE $2`

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE `+where,
		f.UserID, status,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE `+where+`
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		f.UserID, status, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return payments, total, nil
}

// ApprovePayment подтверждает платёж в статусе PENDING и зачисляет сумму
// на баланс пользователя. Проверка статуса и зачисление выполняются в одной
// транзакции, поэтому повторное подтверждение невозможно.
func (r *PostgresRepository) ApprovePayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error) {
	var payment *model.Payment
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var ownerID, amountCents int64
		var status string
		err = tx.QueryRow(ctx,
			`SELECT user_id, amount, status FROM payments WHERE id = $1 FOR UPDATE`,
			paymentID,
		).Scan(&ownerID, &amountCents, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("lock payment: %w", err)
		}

		if model.PaymentStatus(status) != model.PaymentStatusPending {
			return ErrPaymentNotPending
		}

		if _, err := lockUserBalance(ctx, tx, ownerID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET balance = balance + $2, updated_at = now() WHERE id = $1`,
			ownerID, amountCents,
		)
		if err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}

		row := tx.QueryRow(ctx,
			`UPDATE payments
			 SET status = $2, admin_notes = $3, approved_at = now(), updated_at = now()
			 WHERE id = $1
			 RETURNING `+paymentColumns,
			paymentID, string(model.PaymentStatusApproved), adminNotes,
		)
		payment, err = scanPayment(row)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// RejectPayment отклоняет платёж в статусе PENDING. Баланс не меняется.
func (r *PostgresRepository) RejectPayment(ctx context.Context, paymentID int64, adminNotes string) (*model.Payment, error) {
	var payment *model.Payment
	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var status string
		err = tx.QueryRow(ctx,
			`SELECT status FROM payments WHERE id = $1 FOR UPDATE`,
			paymentID,
		).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("lock payment: %w", err)
		}

		if model.PaymentStatus(status) != model.PaymentStatusPending {
			return ErrPaymentNotPending
		}

		row := tx.QueryRow(ctx,
			`UPDATE payments
			 SET status = $2, admin_notes = $3, updated_at = now()
			 WHERE id = $1
			 RETURNING `+paymentColumns,
			paymentID, string(model.PaymentStatusRejected), adminNotes,
		)
		payment, err = scanPayment(row)
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPaymentStats возвращает статистику пополнений пользователя.
func (r *PostgresRepository) GetPaymentStats(ctx context.Context, userID int64) (*model.PaymentStats, error) {
	var stats model.PaymentStats
	var approvedCents, pendingCents int64

	err := r.pool.QueryRow(ctx,
		`SELECT
		    COALESCE(SUM(amount) FILTER (WHERE status = $2), 0),
		    COALESCE(SUM(amount) FILTER (WHERE status = $3), 0),
		    COUNT(*),
		    COUNT(*) FILTER (WHERE status = $2)
		 FROM payments
		 WHERE user_id = $1`,
		userID,
		string(model.PaymentStatusApproved),
		string(model.PaymentStatusPending),
	).Scan(&approvedCents, &pendingCents, &stats.TotalPayments, &stats.ApprovedPayments)
	if err != nil {
		return nil, fmt.Errorf("payment stats: %w", err)
	}

	stats.TotalDeposits = fromCents(approvedCents)
	stats.PendingDeposits = fromCents(pendingCents)
	return &stats, nil
}
