package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sniper7707/Site3/internal/model"
)

// ServiceFilter задаёт условия выборки услуг каталога.
type ServiceFilter struct {
	Platform string
	Category string
	Search   string
	Limit    int
	Offset   int
}

func scanService(row pgx.Row) (*model.Service, error) {
	var s model.Service
	var priceCents int64
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Platform, &s.Category,
		&priceCents, &s.MinQuantity, &s.MaxQuantity, &s.DeliveryTime,
		&s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("scan service: %w", err)
	}
	s.PricePer1000 = fromCents(priceCents)
	return &s, nil
}

// GetServiceByID возвращает услугу каталога по идентификатору.
func (r *PostgresRepository) GetServiceByID(ctx context.Context, id int64) (*model.Service, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, description, platform, category, price_per_1000,
		        min_quantity, max_quantity, delivery_time, is_active, created_at
		 FROM services
		 WHERE id = $1`,
		id,
	)
	return scanService(row)
}

// ListServices возвращает страницу активных услуг каталога.
func (r *PostgresRepository) ListServices(ctx context.Context, f ServiceFilter) ([]model.Service, int, error) {
	platform := "%"
	if f.Platform != "" {
		platform = f.Platform
	}
	category := "%"
	if f.Category != "" {
		category = f.Category
	}
	search := "%" + f.Search + "%"

	const where = `is_active
		 AND platform LIKE $1
		 AND category LIKE $2
		 AND (name ILIKE $3 OR description ILIKE $3)`

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM services WHERE `+where,
		platform, category, search,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count services: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, platform, category, price_per_1000,
		        min_quantity, max_quantity, delivery_time, is_active, created_at
		 FROM services
		 WHERE `+where+`
		 ORDER BY platform, category, id
		 LIMIT $4 OFFSET $5`,
		platform, category, search, f.Limit, f.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		services = append(services, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return services, total, nil
}

// PopularServices возвращает активные услуги с наибольшим числом заказов.
func (r *PostgresRepository) PopularServices(ctx context.Context, limit int) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.description, s.platform, s.category, s.price_per_1000,
		        s.min_quantity, s.max_quantity, s.delivery_time, s.is_active, s.created_at
		 FROM services s
		 WHERE s.is_active
		 ORDER BY (SELECT COUNT(*) FROM orders o WHERE o.service_id = s.id) DESC, s.id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select popular services: %w", err)
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return services, nil
}

// Platforms возвращает список платформ с активными услугами.
func (r *PostgresRepository) Platforms(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT platform FROM services WHERE is_active ORDER BY platform`,
	)
	if err != nil {
		return nil, fmt.Errorf("select platforms: %w", err)
	}
	defer rows.Close()

	var platforms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		platforms = append(platforms, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return platforms, nil
}

// Categories возвращает список категорий активных услуг, при необходимости
// в пределах одной платформы.
func (r *PostgresRepository) Categories(ctx context.Context, platform string) ([]string, error) {
	pattern := "%"
	if platform != "" {
		pattern = platform
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT category FROM services WHERE is_active AND platform LIKE $1 ORDER BY category`,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}
