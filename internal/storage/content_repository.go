package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/trinslooks/studio-api/internal/booking"
	"github.com/trinslooks/studio-api/internal/db"
	"github.com/trinslooks/studio-api/internal/model"
)

// ContentRepository stores the editable site copy and the portfolio gallery.
// Content values are opaque JSON keyed by section name; the API never
// interprets them beyond validating that they parse.
type ContentRepository struct {
	pool *db.Pool
}

func NewContentRepository(pool *db.Pool) *ContentRepository {
	return &ContentRepository{pool: pool}
}

func (r *ContentRepository) GetContent(ctx context.Context, key string) (model.ContentEntry, error) {
	var entry model.ContentEntry
	var value []byte
	err := r.pool.QueryRow(ctx, `
		SELECT key, value
		FROM site_content
		WHERE key = $1
	`, key).Scan(&entry.Key, &value)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ContentEntry{}, booking.ErrNotFound
	}
	if err != nil {
		return model.ContentEntry{}, err
	}
	entry.Value = json.RawMessage(value)
	return entry, nil
}

func (r *ContentRepository) ListContent(ctx context.Context) ([]model.ContentEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT key, value
		FROM site_content
		ORDER BY key ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.ContentEntry
	for rows.Next() {
		var entry model.ContentEntry
		var value []byte
		if err := rows.Scan(&entry.Key, &value); err != nil {
			return nil, err
		}
		entry.Value = json.RawMessage(value)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *ContentRepository) SetContent(ctx context.Context, entry model.ContentEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO site_content (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
			updated_at = now()
	`, entry.Key, []byte(entry.Value))
	return err
}

func (r *ContentRepository) ListCategories(ctx context.Context) ([]model.PortfolioCategory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, COALESCE(cover_image, '')
		FROM portfolio_categories
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.PortfolioCategory
	for rows.Next() {
		var c model.PortfolioCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CoverImage); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *ContentRepository) UpsertCategory(ctx context.Context, c model.PortfolioCategory) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO portfolio_categories (id, name, description, cover_image)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			description = EXCLUDED.description,
			cover_image = EXCLUDED.cover_image
	`, c.ID, c.Name, c.Description, c.CoverImage)
	return err
}

// DeleteCategory removes a category and its images in one transaction.
func (r *ContentRepository) DeleteCategory(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM portfolio_images WHERE category_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM portfolio_categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return tx.Commit(ctx)
}

// ListImages returns the gallery, optionally narrowed to one category.
func (r *ContentRepository) ListImages(ctx context.Context, categoryID string) ([]model.PortfolioImage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category_id, image_url,
			COALESCE(title, ''), COALESCE(description, ''),
			COALESCE(role, ''), COALESCE(year, '')
		FROM portfolio_images
		WHERE $1 = '' OR category_id = $1
		ORDER BY year DESC, title ASC
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []model.PortfolioImage
	for rows.Next() {
		var img model.PortfolioImage
		if err := rows.Scan(&img.ID, &img.CategoryID, &img.ImageURL,
			&img.Title, &img.Description, &img.Role, &img.Year); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *ContentRepository) UpsertImage(ctx context.Context, img model.PortfolioImage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO portfolio_images (id, category_id, image_url, title, description, role, year)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET category_id = EXCLUDED.category_id,
			image_url = EXCLUDED.image_url,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			role = EXCLUDED.role,
			year = EXCLUDED.year
	`, img.ID, img.CategoryID, img.ImageURL, img.Title, img.Description, img.Role, img.Year)
	return err
}

func (r *ContentRepository) DeleteImage(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM portfolio_images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}
	return nil
}
