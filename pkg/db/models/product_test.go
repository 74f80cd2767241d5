package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductDiscountedPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		price    string
		discount int
		want     string
	}{
		{name: "no discount", price: "5.99", discount: 0, want: "5.99"},
		{name: "ten percent", price: "10.00", discount: 10, want: "9.00"},
		{name: "odd cents round", price: "4.99", discount: 15, want: "4.24"},
		{name: "full discount", price: "7.50", discount: 100, want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{Price: decimal.RequireFromString(tt.price), DiscountPercent: tt.discount}
			want := decimal.RequireFromString(tt.want)
			assert.True(t, p.DiscountedPrice().Equal(want), "got %s want %s", p.DiscountedPrice(), want)
		})
	}
}

func TestOrderItemSubtotal(t *testing.T) {
	t.Parallel()

	item := OrderItem{UnitPrice: decimal.RequireFromString("5.99"), Quantity: 2}
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("11.98")))
}
