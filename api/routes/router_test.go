package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freshkart-labs/freshkart-backend/internal/cart"
	"github.com/freshkart-labs/freshkart-backend/internal/catalog"
	checkoutsvc "github.com/freshkart-labs/freshkart-backend/internal/checkout"
	"github.com/freshkart-labs/freshkart-backend/internal/notifications"
	"github.com/freshkart-labs/freshkart-backend/internal/orders"
	"github.com/freshkart-labs/freshkart-backend/internal/verification"
	"github.com/freshkart-labs/freshkart-backend/internal/wishlist"
	pkgAuth "github.com/freshkart-labs/freshkart-backend/pkg/auth"
	"github.com/freshkart-labs/freshkart-backend/pkg/auth/session"
	"github.com/freshkart-labs/freshkart-backend/pkg/config"
	dbpkg "github.com/freshkart-labs/freshkart-backend/pkg/db"
	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox"
)

type routerFixture struct {
	handler http.Handler
	conn    *gorm.DB
	cfg     *config.Config
}

type openSessionChecker struct{}

func (openSessionChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Category{}, &models.Product{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
		&models.WishlistItem{}, &models.Notification{},
		&models.VerificationResult{}, &models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client := dbpkg.NewFromConn(conn)
	catalogRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	outboxSvc, err := outbox.NewService(outbox.NewRepository(conn), nil)
	if err != nil {
		t.Fatalf("build outbox: %v", err)
	}

	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	cartSvc, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		t.Fatalf("build cart: %v", err)
	}
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		DB:     client,
		Repo:   ordersRepo,
		Stock:  catalogRepo,
		Outbox: outboxSvc,
	})
	if err != nil {
		t.Fatalf("build orders: %v", err)
	}
	checkoutSvc, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		DB:     client,
		Carts:  cartRepo,
		Orders: ordersRepo,
		Stock:  catalogRepo,
		Outbox: outboxSvc,
	})
	if err != nil {
		t.Fatalf("build checkout: %v", err)
	}
	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(conn), catalogRepo)
	if err != nil {
		t.Fatalf("build wishlist: %v", err)
	}
	notifySvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		t.Fatalf("build notifications: %v", err)
	}
	scorer, err := verification.NewScorer(verification.DefaultArtifact(), 5)
	if err != nil {
		t.Fatalf("build scorer: %v", err)
	}
	verifySvc, err := verification.NewService(verification.NewRepository(conn), ordersRepo, scorer)
	if err != nil {
		t.Fatalf("build verification: %v", err)
	}

	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}

	handler := NewRouter(RouterParams{
		Config:   cfg,
		Sessions: openSessionChecker{},
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
		Wishlist: wishlistSvc,
		Notify:   notifySvc,
		Verify:   verifySvc,
	})

	return &routerFixture{handler: handler, conn: conn, cfg: cfg}
}

func (f *routerFixture) seedProduct(t *testing.T, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		SellerID: uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString("4.99"),
		Stock:    10,
		IsActive: true,
	}
	if err := f.conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *routerFixture) token(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(f.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get("X-FreshKart-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-FreshKart-Env"))
	}
}

func TestStorefrontIsPublic(t *testing.T) {
	f := newRouterFixture(t)
	f.seedProduct(t, "Basmati Rice")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data struct {
			Products []json.RawMessage `json:"products"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(payload.Data.Products) != 1 {
		t.Fatalf("expected one product, got %d", len(payload.Data.Products))
	}
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/wishlist", "/api/v1/notifications"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, rec.Code)
		}
	}
}

func TestCartRoundTripThroughRouter(t *testing.T) {
	f := newRouterFixture(t)
	product := f.seedProduct(t, "Alphonso Mango")
	token := f.token(t, enums.UserRoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch cart: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	addBody := `{"product_id":"` + product.ID.String() + `","quantity":2}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(addBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("add item: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Data struct {
			Total string `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Data.Total != "9.98" {
		t.Fatalf("expected total 9.98, got %s", payload.Data.Total)
	}
}

func TestSellerRoutesEnforceRole(t *testing.T) {
	f := newRouterFixture(t)

	customer := f.token(t, enums.UserRoleCustomer)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/seller/products", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403 got %d", rec.Code)
	}

	seller := f.token(t, enums.UserRoleSeller)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/seller/products", nil)
	req.Header.Set("Authorization", "Bearer "+seller)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("seller: expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestInvalidProductIDReturnsValidationError(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
