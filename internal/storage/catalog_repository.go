package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/trinslooks/studio-api/internal/booking"
	"github.com/trinslooks/studio-api/internal/db"
	"github.com/trinslooks/studio-api/internal/model"
)

// CatalogRepository stores the bookable service catalog.
type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, duration, price
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Description, &s.Duration, &s.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Service{}, booking.ErrNotFound
	}
	return s, err
}

func (r *CatalogRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, duration, price
		FROM services
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Duration, &s.Price); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// UpsertService creates or replaces a catalog entry by id.
func (r *CatalogRepository) UpsertService(ctx context.Context, s model.Service) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, name, description, duration, price)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			description = EXCLUDED.description,
			duration = EXCLUDED.duration,
			price = EXCLUDED.price
	`, s.ID, s.Name, s.Description, s.Duration, s.Price)
	return err
}

func (r *CatalogRepository) DeleteService(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}
