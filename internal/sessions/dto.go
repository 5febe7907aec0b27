package sessions

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeePolicy is either a percentage of the priced amount or a flat charge.
type FeePolicy struct {
	Value     decimal.Decimal `json:"value"`
	IsPercent bool            `json:"is_percent"`
}

// CreateSessionInput captures the fields required to open a new sale window.
type CreateSessionInput struct {
	Name       string    `json:"name"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	Commission FeePolicy `json:"commission"`
	DepositFee FeePolicy `json:"deposit_fee"`
}

// UpdateSessionInput carries the optional fields an edit may change. Fee and
// window fields are rejected once the session has recorded purchases.
type UpdateSessionInput struct {
	Name       *string    `json:"name,omitempty"`
	StartAt    *time.Time `json:"start_at,omitempty"`
	EndAt      *time.Time `json:"end_at,omitempty"`
	Commission *FeePolicy `json:"commission,omitempty"`
	DepositFee *FeePolicy `json:"deposit_fee,omitempty"`
}

// CloseSessionResult reports the outcome of the end-of-session sweep.
type CloseSessionResult struct {
	SessionID    string `json:"session_id"`
	ItemsExpired int64  `json:"items_expired"`
}
