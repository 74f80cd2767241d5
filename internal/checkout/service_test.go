package checkout

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freshkart-labs/freshkart-backend/internal/cart"
	"github.com/freshkart-labs/freshkart-backend/internal/catalog"
	"github.com/freshkart-labs/freshkart-backend/internal/orders"
	dbpkg "github.com/freshkart-labs/freshkart-backend/pkg/db"
	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	pkgerrors "github.com/freshkart-labs/freshkart-backend/pkg/errors"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox/payloads"
)

type checkoutFixture struct {
	svc     Service
	conn    *gorm.DB
	carts   cart.Service
	catalog *catalog.Repository
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
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
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	catalogRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		t.Fatalf("build cart service: %v", err)
	}
	outboxSvc, err := outbox.NewService(outbox.NewRepository(conn), nil)
	if err != nil {
		t.Fatalf("build outbox service: %v", err)
	}
	svc, err := NewService(ServiceParams{
		DB:     dbpkg.NewFromConn(conn),
		Carts:  cartRepo,
		Orders: orders.NewRepository(conn),
		Stock:  catalogRepo,
		Outbox: outboxSvc,
	})
	if err != nil {
		t.Fatalf("build checkout service: %v", err)
	}
	return &checkoutFixture{svc: svc, conn: conn, carts: cartSvc, catalog: catalogRepo}
}

func (f *checkoutFixture) seedProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	product, err := f.catalog.CreateProduct(context.Background(), &models.Product{
		SellerID: uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		ShippingAddress: "42 Market Road, Pune",
		Phone:           "9876543210",
		PaymentMethod:   "cod",
	}
}

func TestCheckoutSnapshotsCartIntoOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	apples := f.seedProduct(t, "Apples", "5.99", 10)
	oranges := f.seedProduct(t, "Oranges", "4.99", 10)

	if _, err := f.carts.AddItem(ctx, userID, cart.AddItemRequest{ProductID: apples.ID, Quantity: 2}); err != nil {
		t.Fatalf("add apples: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, userID, cart.AddItemRequest{ProductID: oranges.ID}); err != nil {
		t.Fatalf("add oranges: %v", err)
	}

	order, err := f.svc.Checkout(ctx, userID, validRequest())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected two order items, got %d", len(order.Items))
	}
	if want := decimal.RequireFromString("16.97"); !order.TotalAmount.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.TotalAmount)
	}

	cartView, err := f.carts.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(cartView.Items) != 0 {
		t.Fatalf("expected emptied cart, got %+v", cartView.Items)
	}

	reloaded, err := f.catalog.FindProductByID(ctx, apples.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 8 {
		t.Fatalf("expected stock 8 after checkout, got %d", reloaded.Stock)
	}
}

func TestCheckoutSnapshotIgnoresLaterPriceChanges(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	milk := f.seedProduct(t, "Milk", "2.50", 10)

	if _, err := f.carts.AddItem(ctx, userID, cart.AddItemRequest{ProductID: milk.ID, Quantity: 4}); err != nil {
		t.Fatalf("add: %v", err)
	}
	order, err := f.svc.Checkout(ctx, userID, validRequest())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	milk.Price = decimal.RequireFromString("9.00")
	if _, err := f.catalog.UpdateProduct(ctx, milk); err != nil {
		t.Fatalf("reprice: %v", err)
	}

	var reloaded models.Order
	if err := f.conn.Preload("Items").First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if want := decimal.RequireFromString("10.00"); !reloaded.TotalAmount.Equal(want) {
		t.Fatalf("expected frozen total %s, got %s", want, reloaded.TotalAmount)
	}
	if want := decimal.RequireFromString("2.50"); !reloaded.Items[0].UnitPrice.Equal(want) {
		t.Fatalf("expected frozen unit price %s, got %s", want, reloaded.Items[0].UnitPrice)
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := f.svc.Checkout(ctx, userID, validRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}

	var count int64
	if err := f.conn.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orders, got %d", count)
	}
}

func TestCheckoutFieldValidation(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	cases := []CheckoutRequest{
		{Phone: "9876543210", PaymentMethod: "cod"},
		{ShippingAddress: "42 Market Road", PaymentMethod: "cod"},
		{ShippingAddress: "42 Market Road", Phone: "9876543210", PaymentMethod: "barter"},
	}
	for i, req := range cases {
		_, err := f.svc.Checkout(ctx, userID, req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	scarce := f.seedProduct(t, "Saffron", "100.00", 1)

	if _, err := f.carts.AddItem(ctx, userID, cart.AddItemRequest{ProductID: scarce.ID, Quantity: 3}); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := f.svc.Checkout(ctx, userID, validRequest())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for oversell, got %v", err)
	}

	cartView, err := f.carts.GetCart(ctx, userID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(cartView.Items) != 1 || cartView.Items[0].Quantity != 3 {
		t.Fatalf("expected cart untouched after rollback, got %+v", cartView.Items)
	}

	reloaded, err := f.catalog.FindProductByID(ctx, scarce.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 1 {
		t.Fatalf("expected stock untouched, got %d", reloaded.Stock)
	}

	var count int64
	if err := f.conn.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orphan order, got %d", count)
	}
}

func TestCheckoutEmitsOrderCreatedEvent(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	product := f.seedProduct(t, "Tea", "3.00", 10)

	if _, err := f.carts.AddItem(ctx, userID, cart.AddItemRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	order, err := f.svc.Checkout(ctx, userID, validRequest())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	var row models.OutboxEvent
	if err := f.conn.First(&row).Error; err != nil {
		t.Fatalf("load outbox row: %v", err)
	}
	if row.EventType != enums.EventOrderCreated || row.AggregateID != order.ID {
		t.Fatalf("unexpected outbox row %+v", row)
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var data payloads.OrderCreatedEvent
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if data.ItemCount != 1 || !data.TotalAmount.Equal(decimal.RequireFromString("6.00")) {
		t.Fatalf("unexpected event payload %+v", data)
	}
	if data.PaymentMethod != enums.PaymentMethodCOD {
		t.Fatalf("expected cod payment method, got %s", data.PaymentMethod)
	}
}
