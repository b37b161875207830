package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/salewatch/salewatch/internal/domain"
)

// productSelectColumns lists columns for SELECT queries on products.
const productSelectColumns = `id, name, brand_name, current_price, previous_price,
	discount_percent, currency, url, images, product_code, selling_fast, updated_at`

// ProductRepository handles database operations for product records.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID returns the stored record for an upstream product ID, or
// domain.ErrNotFound when no record exists.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productSelectColumns + ` FROM products WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	return p, nil
}

// Upsert stores a record, fully replacing any existing row with the same
// id. The ON CONFLICT clause makes the replace atomic, so concurrent
// writers for the same id cannot interleave partial rows.
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, brand_name, current_price, previous_price,
			discount_percent, currency, url, images, product_code, selling_fast, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			brand_name = EXCLUDED.brand_name,
			current_price = EXCLUDED.current_price,
			previous_price = EXCLUDED.previous_price,
			discount_percent = EXCLUDED.discount_percent,
			currency = EXCLUDED.currency,
			url = EXCLUDED.url,
			images = EXCLUDED.images,
			product_code = EXCLUDED.product_code,
			selling_fast = EXCLUDED.selling_fast,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.BrandName, p.CurrentPrice, p.PreviousPrice,
		p.DiscountPercent, p.Currency, p.URL, pq.Array(p.Images),
		p.ProductCode, p.SellingFast, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %d: %w", p.ID, err)
	}

	return nil
}

// DeleteStale removes every record whose updated_at is strictly older
// than the cutoff. Returns the number of deleted rows.
func (r *ProductRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM products WHERE updated_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale products: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted products: %w", err)
	}

	return deleted, nil
}

// List returns stored records ordered by most recently updated.
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	query := `SELECT ` + productSelectColumns + `
		FROM products ORDER BY updated_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan product: %w", scanErr)
		}
		products = append(products, p)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", rowsErr)
	}

	return products, nil
}

// Count returns the total number of stored records.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanProduct.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct scans one products row, decoding the images array.
func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product

	err := row.Scan(
		&p.ID, &p.Name, &p.BrandName, &p.CurrentPrice, &p.PreviousPrice,
		&p.DiscountPercent, &p.Currency, &p.URL, pq.Array(&p.Images),
		&p.ProductCode, &p.SellingFast, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
