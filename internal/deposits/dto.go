package deposits

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/replaygames/replay-backend/pkg/enums"
)

// DepositItemInput describes one unit the vendor hands over.
type DepositItemInput struct {
	LicenseID uuid.UUID       `json:"license_id"`
	Price     decimal.Decimal `json:"price"`
}

// CreateDepositInput captures a vendor's drop-off for one session.
type CreateDepositInput struct {
	VendorID    uuid.UUID          `json:"vendor_id"`
	SessionID   uuid.UUID          `json:"session_id"`
	DepositedAt time.Time          `json:"deposited_at"`
	Items       []DepositItemInput `json:"items"`
}

// ItemFilters narrows item listings.
type ItemFilters struct {
	Status    *enums.ItemStatus
	SessionID *uuid.UUID
	VendorID  *uuid.UUID
}
