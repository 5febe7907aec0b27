package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Deposit is a vendor's batch of items entered into one sale session.
// DepositFeeCharged is snapshotted from the session policy when the deposit
// is created and is never recomputed.
type Deposit struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID          uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index"`
	SessionID         uuid.UUID       `gorm:"column:session_id;type:uuid;not null;index"`
	DepositFeeCharged decimal.Decimal `gorm:"column:deposit_fee_charged;type:numeric(12,2);not null"`
	DepositedAt       time.Time       `gorm:"column:deposited_at;not null"`
	Items             []Item          `gorm:"foreignKey:DepositID;constraint:OnDelete:RESTRICT"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
