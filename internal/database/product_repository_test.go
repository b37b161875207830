package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/salewatch/salewatch/internal/database"
	"github.com/salewatch/salewatch/internal/domain"
)

// productColumns lists the columns returned by products SELECT queries.
var productColumns = []string{
	"id", "name", "brand_name", "current_price", "previous_price",
	"discount_percent", "currency", "url", "images", "product_code",
	"selling_fast", "updated_at",
}

func newProductRepo(t *testing.T) (*database.ProductRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewProductRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func sampleProduct(updatedAt time.Time) *domain.Product {
	return &domain.Product{
		ID:              1001,
		Name:            "Classic Hoodie",
		BrandName:       "The North Face",
		CurrentPrice:    60,
		PreviousPrice:   100,
		DiscountPercent: 40,
		Currency:        "GBP",
		URL:             "the-north-face/classic-hoodie/prd/1001",
		Images:          []string{"images/primary.jpg", "images/side.jpg"},
		ProductCode:     125122786,
		SellingFast:     true,
		UpdatedAt:       updatedAt,
	}
}

func TestProductRepository_GetByID(t *testing.T) {
	repo, mock, cleanup := newProductRepo(t)
	defer cleanup()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(int64(1001)).
		WillReturnRows(
			sqlmock.NewRows(productColumns).AddRow(
				int64(1001), "Classic Hoodie", "The North Face", 60.0, 100.0,
				40, "GBP", "the-north-face/classic-hoodie/prd/1001",
				"{images/primary.jpg,images/side.jpg}",
				int64(125122786), true, now,
			),
		)

	p, err := repo.GetByID(context.Background(), 1001)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if p.ID != 1001 {
		t.Errorf("expected ID=1001, got %d", p.ID)
	}
	if p.Currency != "GBP" {
		t.Errorf("expected Currency=GBP, got %s", p.Currency)
	}
	if len(p.Images) != 2 || p.Images[0] != "images/primary.jpg" {
		t.Errorf("unexpected images: %v", p.Images)
	}

	expectationsMet(t, mock)
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := newProductRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, err := repo.GetByID(context.Background(), 42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected domain.ErrNotFound, got %v", err)
	}

	expectationsMet(t, mock)
}

func TestProductRepository_Upsert(t *testing.T) {
	repo, mock, cleanup := newProductRepo(t)
	defer cleanup()

	now := time.Now().UTC()
	p := sampleProduct(now)

	mock.ExpectExec("INSERT INTO products .+ ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs(
			p.ID, p.Name, p.BrandName, p.CurrentPrice, p.PreviousPrice,
			p.DiscountPercent, p.Currency, p.URL, pq.Array(p.Images),
			p.ProductCode, p.SellingFast, p.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), p); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestProductRepository_DeleteStale(t *testing.T) {
	repo, mock, cleanup := newProductRepo(t)
	defer cleanup()

	cutoff := time.Now().UTC().Add(-4 * 7 * 24 * time.Hour)

	mock.ExpectExec("DELETE FROM products WHERE updated_at <").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 17))

	deleted, err := repo.DeleteStale(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteStale() error = %v", err)
	}
	if deleted != 17 {
		t.Errorf("expected 17 deleted, got %d", deleted)
	}

	expectationsMet(t, mock)
}

func TestProductRepository_List(t *testing.T) {
	repo, mock, cleanup := newProductRepo(t)
	defer cleanup()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM products ORDER BY updated_at DESC").
		WithArgs(20, 0).
		WillReturnRows(
			sqlmock.NewRows(productColumns).
				AddRow(int64(1), "A", "Vans", 40.0, 80.0, 50, "GBP", "vans/a/prd/1",
					"{a.jpg}", int64(1), false, now).
				AddRow(int64(2), "B", "UGG", 90.0, 120.0, 25, "GBP", "ugg/b/prd/2",
					"{b.jpg}", int64(2), true, now),
		)

	products, err := repo.List(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[1].BrandName != "UGG" {
		t.Errorf("expected BrandName=UGG, got %s", products[1].BrandName)
	}

	expectationsMet(t, mock)
}

func TestProductRepository_Count(t *testing.T) {
	repo, mock, cleanup := newProductRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(321))

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 321 {
		t.Errorf("expected count=321, got %d", count)
	}

	expectationsMet(t, mock)
}
