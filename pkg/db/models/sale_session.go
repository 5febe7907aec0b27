package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleSession holds the per-session sale window and fee policies. The
// commission and deposit-fee columns are frozen for settlement purposes the
// moment a purchase references the session: already-recorded purchases and
// deposit fee snapshots never change when a session row is edited.
type SaleSession struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string          `gorm:"column:name;not null"`
	StartAt             time.Time       `gorm:"column:start_at;not null"`
	EndAt               time.Time       `gorm:"column:end_at;not null"`
	CommissionValue     decimal.Decimal `gorm:"column:commission_value;type:numeric(12,2);not null"`
	CommissionIsPercent bool            `gorm:"column:commission_is_percent;not null;default:true"`
	DepositFeeValue     decimal.Decimal `gorm:"column:deposit_fee_value;type:numeric(12,2);not null"`
	DepositFeeIsPercent bool            `gorm:"column:deposit_fee_is_percent;not null;default:false"`
	Deposits            []Deposit       `gorm:"foreignKey:SessionID;constraint:OnDelete:RESTRICT"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IsOpen reports whether the sale window contains the given instant.
func (s SaleSession) IsOpen(at time.Time) bool {
	return !at.Before(s.StartAt) && at.Before(s.EndAt)
}

// HasEnded reports whether the sale window has closed.
func (s SaleSession) HasEnded(at time.Time) bool {
	return !at.Before(s.EndAt)
}
