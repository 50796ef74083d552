package accounts

import (
	"context"
	"database/sql"
	"time"

	"github.com/hannalindberg/atelje-backend/internal/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	profile := &domain.Profile{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, phone, locale, is_admin, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, id).Scan(
		&profile.ID, &profile.Email, &profile.FirstName, &profile.LastName,
		&profile.Phone, &profile.Locale, &profile.IsAdmin, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return profile, nil
}

// IsAdmin is the single role check every admin route goes through.
func (r *ProfileRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRowContext(ctx, `
		SELECT is_admin FROM profiles WHERE id = $1
	`, userID).Scan(&isAdmin)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return isAdmin, nil
}

// Update writes the customer-editable profile fields. is_admin is not
// settable through this path.
func (r *ProfileRepository) Update(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET first_name = $1, last_name = $2, phone = $3, locale = $4, updated_at = $5
		WHERE id = $6
	`, profile.FirstName, profile.LastName, profile.Phone, profile.Locale, time.Now().UTC(), profile.ID)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, profile.ID)
}
