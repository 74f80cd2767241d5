package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/pagination"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(conn)
}

func seedProduct(t *testing.T, repo *Repository, sellerID uuid.UUID, name string, createdAt time.Time, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		SellerID:  sellerID,
		Name:      name,
		Price:     decimal.RequireFromString("10.00"),
		Stock:     5,
		IsActive:  active,
		CreatedAt: createdAt,
	}
	created, err := repo.CreateProduct(context.Background(), product)
	if err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return created
}

func TestListActiveProductsExcludesInactive(t *testing.T) {
	repo := newTestRepo(t)
	seller := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	seedProduct(t, repo, seller, "bananas", base, true)
	seedProduct(t, repo, seller, "hidden", base.Add(time.Second), false)

	rows, err := repo.ListActiveProducts(context.Background(), ProductListFilters{}, nil, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "bananas" {
		t.Fatalf("expected only the active product, got %+v", rows)
	}
}

func TestCreateProductPersistsInactiveFlag(t *testing.T) {
	repo := newTestRepo(t)
	product := seedProduct(t, repo, uuid.New(), "paused", time.Now().UTC(), false)

	reloaded, err := repo.FindProductByID(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.IsActive {
		t.Fatal("expected inactive product to stay inactive after insert")
	}
}

func TestListActiveProductsCursorWindow(t *testing.T) {
	repo := newTestRepo(t)
	seller := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	seedProduct(t, repo, seller, "oldest", base, true)
	middle := seedProduct(t, repo, seller, "middle", base.Add(time.Second), true)
	seedProduct(t, repo, seller, "newest", base.Add(2*time.Second), true)

	cursor := &pagination.Cursor{CreatedAt: middle.CreatedAt, ID: middle.ID}
	rows, err := repo.ListActiveProducts(context.Background(), ProductListFilters{}, cursor, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "oldest" {
		t.Fatalf("expected rows strictly before the cursor, got %+v", rows)
	}
}

func TestListActiveProductsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seller := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	category, err := repo.CreateCategory(ctx, &models.Category{Name: "Fruits", Slug: "fruits"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	inCategory := seedProduct(t, repo, seller, "alphonso mango", base, true)
	inCategory.CategoryID = &category.ID
	if _, err := repo.UpdateProduct(ctx, inCategory); err != nil {
		t.Fatalf("assign category: %v", err)
	}
	featured := seedProduct(t, repo, seller, "star basket", base.Add(time.Second), true)
	featured.IsFeatured = true
	if _, err := repo.UpdateProduct(ctx, featured); err != nil {
		t.Fatalf("mark featured: %v", err)
	}

	rows, err := repo.ListActiveProducts(ctx, ProductListFilters{CategorySlug: "fruits"}, nil, 10)
	if err != nil {
		t.Fatalf("category filter: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "alphonso mango" {
		t.Fatalf("expected category match, got %+v", rows)
	}

	rows, err = repo.ListActiveProducts(ctx, ProductListFilters{FeaturedOnly: true}, nil, 10)
	if err != nil {
		t.Fatalf("featured filter: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "star basket" {
		t.Fatalf("expected featured match, got %+v", rows)
	}

	rows, err = repo.ListActiveProducts(ctx, ProductListFilters{Query: "MANGO"}, nil, 10)
	if err != nil {
		t.Fatalf("query filter: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "alphonso mango" {
		t.Fatalf("expected name match, got %+v", rows)
	}
}

func TestListBySellerIncludesInactive(t *testing.T) {
	repo := newTestRepo(t)
	seller := uuid.New()
	other := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	seedProduct(t, repo, seller, "mine active", base, true)
	seedProduct(t, repo, seller, "mine paused", base.Add(time.Second), false)
	seedProduct(t, repo, other, "not mine", base.Add(2*time.Second), true)

	rows, err := repo.ListBySeller(context.Background(), seller, nil, 10)
	if err != nil {
		t.Fatalf("list by seller: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both seller rows, got %+v", rows)
	}
	if rows[0].Name != "mine paused" || rows[1].Name != "mine active" {
		t.Fatalf("expected newest first, got %+v", rows)
	}
}

func TestDecrementStockGuard(t *testing.T) {
	repo := newTestRepo(t)
	seller := uuid.New()
	product := seedProduct(t, repo, seller, "limited", time.Now().UTC(), true)

	affected, err := repo.DecrementStockTx(repo.db, product.ID, 3)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected one row affected, got %d", affected)
	}

	affected, err = repo.DecrementStockTx(repo.db, product.ID, 3)
	if err != nil {
		t.Fatalf("second decrement: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected guard to block oversell, got %d", affected)
	}

	if err := repo.RestoreStockTx(repo.db, product.ID, 3); err != nil {
		t.Fatalf("restore: %v", err)
	}
	reloaded, err := repo.FindProductByID(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Stock != 5 {
		t.Fatalf("expected stock restored to 5, got %d", reloaded.Stock)
	}
}
