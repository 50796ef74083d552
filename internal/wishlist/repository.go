package wishlist

import (
	"context"
	"database/sql"
	"time"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, product_id, added_at
		FROM wishlist_items
		WHERE user_id = $1
		ORDER BY added_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.WishlistItem{}
	for rows.Next() {
		var item domain.WishlistItem
		if err := rows.Scan(&item.UserID, &item.ProductID, &item.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// Add is idempotent: re-adding an already wishlisted product is a no-op.
func (r *Repository) Add(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (user_id, product_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, userID, productID, time.Now().UTC())
	return err
}

func (r *Repository) Remove(ctx context.Context, userID, productID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM wishlist_items
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
