package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus classifies a cart line against current inventory.
type StockStatus string

const (
	StockAvailable    StockStatus = "AVAILABLE"
	StockInsufficient StockStatus = "INSUFFICIENT"
	StockUnlimited    StockStatus = "UNLIMITED"
)

// MerchandiseItem is a per-event catalog entry. A nil Stock means unlimited
// inventory. Sizes is empty for items without size variants.
type MerchandiseItem struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     *int            `json:"stock,omitempty"`
	Active    bool            `json:"active"`
	Sizes     []string        `json:"sizes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// HasSizes reports whether a size must be selected for this item.
func (m *MerchandiseItem) HasSizes() bool {
	return len(m.Sizes) > 0
}

// ValidSize reports whether the given size is one of the item's variants.
func (m *MerchandiseItem) ValidSize(size string) bool {
	for _, s := range m.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// CartOrder is one pending cart line for a registration. It exists only until
// checkout is finalized.
type CartOrder struct {
	ID             string          `json:"id"`
	RegistrationID string          `json:"registration_id"`
	ItemID         string          `json:"item_id"`
	Size           string          `json:"size,omitempty"`
	Quantity       int             `json:"quantity"`
	LineTotal      decimal.Decimal `json:"line_total"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CartLine is a cart order joined with the current state of its backing item,
// re-checked against inventory at read time.
type CartLine struct {
	Order       CartOrder   `json:"order"`
	ItemName    string      `json:"item_name"`
	ItemActive  bool        `json:"item_active"`
	StockStatus StockStatus `json:"stock_status"`
}

// CartSummary aggregates a registration's cart lines.
type CartSummary struct {
	RegistrationID string          `json:"registration_id"`
	Lines          []CartLine      `json:"lines"`
	ItemCount      int             `json:"item_count"`
	Total          decimal.Decimal `json:"total"`
	HasIssues      bool            `json:"has_issues"`
}

// AddCartItemRequest is the payload for adding a merchandise line to a cart.
type AddCartItemRequest struct {
	ItemID   string `json:"item_id"`
	Size     string `json:"size,omitempty"`
	Quantity int    `json:"quantity"`
}

// CreateMerchandiseItemRequest is the payload for adding a catalog entry.
// A nil Stock means unlimited inventory.
type CreateMerchandiseItemRequest struct {
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Stock  *int            `json:"stock,omitempty"`
	Sizes  []string        `json:"sizes,omitempty"`
	Active bool            `json:"active"`
}
