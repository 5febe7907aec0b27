package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorBalance is the running settlement row for one (vendor, session)
// pair. AmountDue is driven back to zero by an explicit payout; AmountGenerated
// only ever grows. Rows are created lazily by the first sale.
type VendorBalance struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_vendor_balances_vendor_session"`
	SessionID       uuid.UUID       `gorm:"column:session_id;type:uuid;not null;uniqueIndex:idx_vendor_balances_vendor_session"`
	AmountDue       decimal.Decimal `gorm:"column:amount_due;type:numeric(12,2);not null"`
	AmountGenerated decimal.Decimal `gorm:"column:amount_generated;type:numeric(12,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
