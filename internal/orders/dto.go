package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
	"github.com/freshkart-labs/freshkart-backend/pkg/pagination"
)

// OrderItemDTO is one frozen line of an order.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the transport shape for a customer order.
type OrderDTO struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	Status          enums.OrderStatus   `json:"status"`
	ShippingAddress string              `json:"shipping_address"`
	Phone           string              `json:"phone"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Items           []OrderItemDTO      `json:"items"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// ListOrdersInput pages through one user's order history, newest first.
type ListOrdersInput struct {
	UserID     uuid.UUID
	Pagination pagination.Params
}

// ListAllOrdersInput pages the fulfillment console, optionally by status.
// SellerID, when set, restricts the page to orders containing that
// seller's products; admins leave it nil for the global view.
type ListAllOrdersInput struct {
	Status     *enums.OrderStatus
	SellerID   *uuid.UUID
	Pagination pagination.Params
}

// OrderListResult is one page of orders plus the cursor for the next page.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
	HasMore    bool       `json:"has_more"`
}

// CancelOrderRequest carries the optional customer-supplied reason.
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// AdvanceStatusRequest names the next fulfillment step.
type AdvanceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		Phone:           order.Phone,
		PaymentMethod:   order.PaymentMethod,
		TotalAmount:     order.TotalAmount,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CancelledAt:     order.CancelledAt,
		DeliveredAt:     order.DeliveredAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		})
	}
	return dto
}

func ordersFromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
