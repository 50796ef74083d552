package reviews

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

func (r *Repository) Create(ctx context.Context, review *domain.Review) error {
	review.ID = uuid.New().String()
	review.Status = domain.ReviewStatusPending
	review.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, product_id, user_id, author_name, rating, title, body, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, review.ID, review.ProductID, review.UserID, review.AuthorName, review.Rating, review.Title, review.Body, review.Status, review.CreatedAt)
	return err
}

// ListApproved returns the reviews shown on a product page.
func (r *Repository) ListApproved(ctx context.Context, productID string) ([]domain.Review, error) {
	return r.list(ctx, `
		SELECT id, product_id, user_id, author_name, rating, COALESCE(title, ''), body, status, created_at
		FROM reviews
		WHERE product_id = $1 AND status = $2
		ORDER BY created_at DESC
	`, productID, domain.ReviewStatusApproved)
}

// ListPending returns the moderation queue.
func (r *Repository) ListPending(ctx context.Context) ([]domain.Review, error) {
	return r.list(ctx, `
		SELECT id, product_id, user_id, author_name, rating, COALESCE(title, ''), body, status, created_at
		FROM reviews
		WHERE status = $1
		ORDER BY created_at
	`, domain.ReviewStatusPending)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.ProductID, &review.UserID, &review.AuthorName, &review.Rating, &review.Title, &review.Body, &review.Status, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}

// SetStatus moderates a review into approved or rejected.
func (r *Repository) SetStatus(ctx context.Context, id string, status domain.ReviewStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE reviews SET status = $1 WHERE id = $2
	`, status, id)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
