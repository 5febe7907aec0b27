package sales

import (
	"time"

	"github.com/google/uuid"
)

// SellInput captures one buyer's attempt to purchase an item.
type SellInput struct {
	ItemID       uuid.UUID `json:"item_id"`
	BuyerID      uuid.UUID `json:"buyer_id"`
	PromoLabel   *string   `json:"promo_label,omitempty"`
	TransactedAt time.Time `json:"transacted_at"`
}

// PurchaseFilters narrows purchase listings.
type PurchaseFilters struct {
	BuyerID   *uuid.UUID
	SessionID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
}
