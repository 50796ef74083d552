package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hannalindberg/atelje-backend/internal/checkout"
	"github.com/hannalindberg/atelje-backend/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListPublished returns the storefront catalog with variants and images
// loaded in two batched queries.
func (r *Repository) ListPublished(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, `
		SELECT id, title, description, category, published, created_at, updated_at
		FROM products
		WHERE published
		ORDER BY created_at DESC
	`)
}

// ListAll returns every product, published or not, for the back office.
func (r *Repository) ListAll(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, `
		SELECT id, title, description, category, published, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`)
}

func (r *Repository) list(ctx context.Context, query string) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	productMap := make(map[string]*domain.Product)
	var productIDs []string

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Variants = []domain.Variant{}
		p.Images = []domain.ProductImage{}
		productMap[p.ID] = &p
		productIDs = append(productIDs, p.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(productIDs) == 0 {
		return []domain.Product{}, nil
	}

	variantRows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, price, stock, position
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY position
	`, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = variantRows.Close() }()

	for variantRows.Next() {
		var v domain.Variant
		if err := variantRows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.Stock, &v.Position); err != nil {
			return nil, err
		}
		productMap[v.ProductID].Variants = append(productMap[v.ProductID].Variants, v)
	}

	if err := variantRows.Err(); err != nil {
		return nil, err
	}

	imageRows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, url, COALESCE(alt, ''), position, is_primary
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY position
	`, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = imageRows.Close() }()

	for imageRows.Next() {
		var img domain.ProductImage
		if err := imageRows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Alt, &img.Position, &img.Primary); err != nil {
			return nil, err
		}
		productMap[img.ProductID].Images = append(productMap[img.ProductID].Images, img)
	}

	if err := imageRows.Err(); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(productIDs))
	for _, id := range productIDs {
		products = append(products, *productMap[id])
	}

	return products, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, category, published, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	variantRows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, price, stock, position
		FROM product_variants
		WHERE product_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = variantRows.Close() }()

	for variantRows.Next() {
		var v domain.Variant
		if err := variantRows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.Stock, &v.Position); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}
	if err := variantRows.Err(); err != nil {
		return nil, err
	}

	imageRows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, url, COALESCE(alt, ''), position, is_primary
		FROM product_images
		WHERE product_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = imageRows.Close() }()

	for imageRows.Next() {
		var img domain.ProductImage
		if err := imageRows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Alt, &img.Position, &img.Primary); err != nil {
			return nil, err
		}
		p.Images = append(p.Images, img)
	}
	if err := imageRows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

// ResolveVariants builds the checkout snapshot for the given variant ids.
// Variants of unpublished products are left out, so stale carts fail cart
// validation instead of buying hidden items.
func (r *Repository) ResolveVariants(ctx context.Context, variantIDs []string) (checkout.Snapshot, error) {
	snapshot := checkout.Snapshot{}
	if len(variantIDs) == 0 {
		return snapshot, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT v.id, v.product_id, p.title, v.name, v.price, v.stock,
			COALESCE((
				SELECT url FROM product_images
				WHERE product_id = p.id
				ORDER BY is_primary DESC, position
				LIMIT 1
			), '')
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = ANY($1) AND p.published
	`, pq.Array(variantIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		var rv checkout.ResolvedVariant
		if err := rows.Scan(&id, &rv.ProductID, &rv.ProductTitle, &rv.VariantName, &rv.Price, &rv.Stock, &rv.ImageURL); err != nil {
			return nil, err
		}
		snapshot[id] = rv
	}

	return snapshot, rows.Err()
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, title, description, category, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`, p.ID, p.Title, p.Description, p.Category, p.Published, now)
	return err
}

func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET title = $1, description = $2, category = $3, published = $4, updated_at = $5
		WHERE id = $6
	`, p.Title, p.Description, p.Category, p.Published, time.Now().UTC(), p.ID)
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

	return r.GetByID(ctx, p.ID)
}

// DeleteProduct removes a product and, via cascades, its variants and
// images. Historical order line items are snapshots and stay untouched.
func (r *Repository) DeleteProduct(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *Repository) CreateVariant(ctx context.Context, v *domain.Variant) error {
	v.ID = uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_variants (id, product_id, name, price, stock, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.ProductID, v.Name, v.Price, v.Stock, v.Position)
	return err
}

func (r *Repository) UpdateVariant(ctx context.Context, v *domain.Variant) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE product_variants
		SET name = $1, price = $2, stock = $3, position = $4
		WHERE id = $5
	`, v.Name, v.Price, v.Stock, v.Position, v.ID)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *Repository) DeleteVariant(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func (r *Repository) CreateImage(ctx context.Context, img *domain.ProductImage) error {
	img.ID = uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_images (id, product_id, url, alt, position, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, img.ID, img.ProductID, img.URL, img.Alt, img.Position, img.Primary)
	return err
}

func (r *Repository) DeleteImage(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_images WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
