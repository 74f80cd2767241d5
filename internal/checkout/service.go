package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshkart-labs/freshkart-backend/internal/cart"
	"github.com/freshkart-labs/freshkart-backend/internal/orders"
	dbpkg "github.com/freshkart-labs/freshkart-backend/pkg/db"
	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	pkgerrors "github.com/freshkart-labs/freshkart-backend/pkg/errors"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox/payloads"
)

// CheckoutRequest carries the fields frozen onto the order.
type CheckoutRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	PaymentMethod   string `json:"payment_method" validate:"required"`
}

// Service converts a non-empty cart into a pending order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*orders.OrderDTO, error)
}

type stockDecrementer interface {
	DecrementStockTx(tx *gorm.DB, productID uuid.UUID, qty int) (int64, error)
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	DB     *dbpkg.Client
	Carts  *cart.Repository
	Orders *orders.Repository
	Stock  stockDecrementer
	Outbox *outbox.Service
}

type service struct {
	db        *dbpkg.Client
	carts     *cart.Repository
	orderRepo *orders.Repository
	stock     stockDecrementer
	outbox    *outbox.Service
}

// NewService constructs a checkout service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock decrementer required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		db:        params.DB,
		carts:     params.Carts,
		orderRepo: params.Orders,
		stock:     params.Stock,
		outbox:    params.Outbox,
	}, nil
}

// Checkout snapshots the cart into an order and empties the cart in one
// transaction. A failure anywhere rolls the whole sequence back, leaving the
// cart untouched and no orphan order.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*orders.OrderDTO, error) {
	address := strings.TrimSpace(req.ShippingAddress)
	phone := strings.TrimSpace(req.Phone)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(req.PaymentMethod))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	var orderID uuid.UUID
	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		cartRow, err := s.carts.WithTx(tx).FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return err
		}
		if len(cartRow.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		order := &models.Order{
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			ShippingAddress: address,
			Phone:           phone,
			PaymentMethod:   method,
			TotalAmount:     decimal.Zero,
			Items:           make([]models.OrderItem, 0, len(cartRow.Items)),
		}
		itemIDs := make([]uuid.UUID, 0, len(cartRow.Items))
		for _, item := range cartRow.Items {
			if item.Product == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart references a missing product")
			}
			itemIDs = append(itemIDs, item.ID)
			affected, err := s.stock.DecrementStockTx(tx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict,
					fmt.Sprintf("insufficient stock for %s", item.Product.Name))
			}

			unitPrice := item.Product.DiscountedPrice()
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   unitPrice,
			})
			order.TotalAmount = order.TotalAmount.Add(
				unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		created, err := s.orderRepo.CreateTx(tx, order)
		if err != nil {
			return err
		}
		orderID = created.ID

		// Consuming the exact snapshotted lines guards against a
		// concurrent checkout of the same cart: the loser's delete
		// comes up short and the whole transaction rolls back, so
		// only one order is ever created from one cart fill.
		consumed, err := s.carts.ConsumeItemsTx(tx, cartRow.ID, itemIDs)
		if err != nil {
			return err
		}
		if consumed != int64(len(itemIDs)) {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart was checked out concurrently")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer.String()},
			Data: payloads.OrderCreatedEvent{
				OrderID:       created.ID,
				UserID:        userID,
				TotalAmount:   created.TotalAmount,
				ItemCount:     len(created.Items),
				PaymentMethod: created.PaymentMethod,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checkout")
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load created order")
	}
	return orders.FromModel(order), nil
}
