package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/freshkart-labs/freshkart-backend/pkg/db"
	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	pkgerrors "github.com/freshkart-labs/freshkart-backend/pkg/errors"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox"
	"github.com/freshkart-labs/freshkart-backend/pkg/outbox/payloads"
	"github.com/freshkart-labs/freshkart-backend/pkg/pagination"
)

// Service drives the order lifecycle after checkout: history, cancellation
// and the forward fulfillment progression.
type Service interface {
	ListMine(ctx context.Context, input ListOrdersInput) (*OrderListResult, error)
	GetMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID, req CancelOrderRequest) (*OrderDTO, error)

	ListAll(ctx context.Context, input ListAllOrdersInput) (*OrderListResult, error)
	AdvanceStatus(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID, req AdvanceStatusRequest) (*OrderDTO, error)
}

type stockRestorer interface {
	RestoreStockTx(tx *gorm.DB, productID uuid.UUID, qty int) error
}

// ServiceParams bundles the dependencies for NewService.
type ServiceParams struct {
	DB     *dbpkg.Client
	Repo   *Repository
	Stock  stockRestorer
	Outbox *outbox.Service
}

type service struct {
	db     *dbpkg.Client
	repo   *Repository
	stock  stockRestorer
	outbox *outbox.Service
}

// NewService constructs an order service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock restorer required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		stock:  params.Stock,
		outbox: params.Outbox,
	}, nil
}

func (s *service) ListMine(ctx context.Context, input ListOrdersInput) (*OrderListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, input.UserID, cursor, pagination.LimitWithBuffer(input.Pagination.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return buildListResult(rows, input.Pagination.Limit), nil
}

func (s *service) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID, req CancelOrderRequest) (*OrderDTO, error) {
	order, err := s.loadOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanCancel() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
	}

	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.MarkCancelledTx(tx, order.ID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer cancellable")
		}
		for _, item := range order.Items {
			if err := s.stock.RestoreStockTx(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer.String()},
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				UserID:      order.UserID,
				CancelledAt: now,
				Reason:      req.Reason,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
	}

	return s.reload(ctx, order.ID)
}

func (s *service) ListAll(ctx context.Context, input ListAllOrdersInput) (*OrderListResult, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.LimitWithBuffer(input.Pagination.Limit)
	var rows []models.Order
	if input.SellerID != nil {
		rows, err = s.repo.ListBySeller(ctx, *input.SellerID, input.Status, cursor, limit)
	} else {
		rows, err = s.repo.ListAll(ctx, input.Status, cursor, limit)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list all orders")
	}
	return buildListResult(rows, input.Pagination.Limit), nil
}

func (s *service) AdvanceStatus(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID, req AdvanceStatusRequest) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	// Sellers may only touch orders carrying their own products. Foreign
	// orders read as not found so order IDs leak nothing.
	if actorRole != enums.UserRoleAdmin {
		owns, err := s.repo.HasSellerItem(ctx, order.ID, actorID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check order ownership")
		}
		if !owns {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
	}
	if !order.Status.CanAdvanceTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot advance order from %s to %s", order.Status, next))
	}

	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.AdvanceStatusTx(tx, order.ID, order.Status, next, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: actorRole.String()},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				UserID:    order.UserID,
				From:      order.Status,
				To:        next,
				ChangedAt: now,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advance order status")
	}

	return s.reload(ctx, order.ID)
}

// loadOwnedOrder hides other users' orders behind a not-found error.
func (s *service) loadOwnedOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) reload(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return FromModel(order), nil
}

func buildListResult(rows []models.Order, limit int) *OrderListResult {
	page, hasMore := pagination.TrimPage(rows, limit)
	result := &OrderListResult{
		Orders:  ordersFromModels(page),
		HasMore: hasMore,
	}
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result
}
