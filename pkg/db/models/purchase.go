package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is the immutable ledger row for one item's sale. Price and
// commission are snapshots of what was actually charged; later session edits
// never touch them.
type Purchase struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ItemID       uuid.UUID       `gorm:"column:item_id;type:uuid;not null;uniqueIndex"`
	BuyerID      uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null;index"`
	TransactedAt time.Time       `gorm:"column:transacted_at;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Commission   decimal.Decimal `gorm:"column:commission;type:numeric(12,2);not null"`
	PromoCode    *string         `gorm:"column:promo_code"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
