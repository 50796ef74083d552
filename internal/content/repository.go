package content

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns the banners shown on the storefront, in display order.
func (r *Repository) ListActive(ctx context.Context) ([]domain.HeroBanner, error) {
	return r.list(ctx, `
		SELECT id, title, COALESCE(subtitle, ''), image_url, COALESCE(link_url, ''), sort_order, active, created_at, updated_at
		FROM hero_banners
		WHERE active
		ORDER BY sort_order
	`)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.HeroBanner, error) {
	return r.list(ctx, `
		SELECT id, title, COALESCE(subtitle, ''), image_url, COALESCE(link_url, ''), sort_order, active, created_at, updated_at
		FROM hero_banners
		ORDER BY sort_order
	`)
}

func (r *Repository) list(ctx context.Context, query string) ([]domain.HeroBanner, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	banners := []domain.HeroBanner{}
	for rows.Next() {
		var b domain.HeroBanner
		if err := rows.Scan(&b.ID, &b.Title, &b.Subtitle, &b.ImageURL, &b.LinkURL, &b.SortOrder, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		banners = append(banners, b)
	}

	return banners, rows.Err()
}

func (r *Repository) Create(ctx context.Context, b *domain.HeroBanner) error {
	b.ID = uuid.New().String()
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO hero_banners (id, title, subtitle, image_url, link_url, sort_order, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, b.ID, b.Title, b.Subtitle, b.ImageURL, b.LinkURL, b.SortOrder, b.Active, now)
	return err
}

func (r *Repository) Update(ctx context.Context, b *domain.HeroBanner) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE hero_banners
		SET title = $1, subtitle = $2, image_url = $3, link_url = $4, sort_order = $5, active = $6, updated_at = $7
		WHERE id = $8
	`, b.Title, b.Subtitle, b.ImageURL, b.LinkURL, b.SortOrder, b.Active, time.Now().UTC(), b.ID)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM hero_banners WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
