package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/replaygames/replay-backend/pkg/enums"
)

// Item is one consigned unit. Ownership (the deposit it belongs to) and the
// listed price are fixed at creation; only the status column moves, and only
// along the lifecycle edges.
type Item struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DepositID uuid.UUID        `gorm:"column:deposit_id;type:uuid;not null;index"`
	LicenseID uuid.UUID        `gorm:"column:license_id;type:uuid;not null"`
	Price     decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	Status    enums.ItemStatus `gorm:"column:status;type:item_status;not null;default:'on_sale';index"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
