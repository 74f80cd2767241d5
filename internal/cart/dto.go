package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshkart-labs/freshkart-backend/pkg/db/models"
)

// CartItemDTO is one line of the cart. UnitPrice is the product's current
// discounted price; LineTotal is UnitPrice times Quantity.
type CartItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	InStock     bool            `json:"in_stock"`
}

// CartDTO is the full cart view with a live total.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Items     []CartItemDTO   `json:"items"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,gte=1"`
}

// UpdateItemRequest mutates one cart line by action verb.
type UpdateItemRequest struct {
	Action string `json:"action" validate:"required"`
}

func itemFromModel(item *models.CartItem) CartItemDTO {
	dto := CartItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}
	if item.Product != nil {
		dto.ProductName = item.Product.Name
		dto.UnitPrice = item.Product.DiscountedPrice()
		dto.LineTotal = dto.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		dto.InStock = item.Product.Stock >= item.Quantity
	}
	return dto
}

// FromModel builds the cart view, recomputing the total from current prices.
func FromModel(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	dto := &CartDTO{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]CartItemDTO, 0, len(cart.Items)),
		Total:     decimal.Zero,
		UpdatedAt: cart.UpdatedAt,
	}
	for i := range cart.Items {
		line := itemFromModel(&cart.Items[i])
		dto.Items = append(dto.Items, line)
		dto.Total = dto.Total.Add(line.LineTotal)
	}
	return dto
}
