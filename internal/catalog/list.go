package catalog

import (
	"github.com/google/uuid"

	"github.com/freshkart-labs/freshkart-backend/pkg/pagination"
)

// ProductListFilters describe the supported filter knobs for the browse endpoint.
type ProductListFilters struct {
	CategorySlug string `json:"category,omitempty"`
	Query        string `json:"q,omitempty"`
	Tag          string `json:"tag,omitempty"`
	FeaturedOnly bool   `json:"featured,omitempty"`
}

// ListProductsInput captures the inputs needed to paginate/filter the storefront.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}

// ListSellerProductsInput scopes a product listing to one seller's console.
type ListSellerProductsInput struct {
	SellerID   uuid.UUID
	Pagination pagination.Params
}

// ProductListResult is one page of products plus the cursor for the next page.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor *string      `json:"next_cursor,omitempty"`
	HasMore    bool         `json:"has_more"`
}
