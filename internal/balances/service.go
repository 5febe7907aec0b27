package balances

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
)

// Service exposes vendor settlement reads and the payout operation.
type Service interface {
	AmountDue(ctx context.Context, vendorID, sessionID uuid.UUID) (decimal.Decimal, error)
	AmountGenerated(ctx context.Context, vendorID, sessionID uuid.UUID) (decimal.Decimal, error)
	Balance(ctx context.Context, vendorID, sessionID uuid.UUID) (*models.VendorBalance, error)
	SessionBalances(ctx context.Context, sessionID uuid.UUID) ([]models.VendorBalance, error)
	Settle(ctx context.Context, vendorID, sessionID uuid.UUID) error
	ApplySale(ctx context.Context, tx *gorm.DB, vendorID, sessionID uuid.UUID, vendorProceeds, commission decimal.Decimal) error
}

type service struct {
	repo Repository
}

// NewService wires a balances service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("balances repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) AmountDue(ctx context.Context, vendorID, sessionID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.find(ctx, vendorID, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.AmountDue, nil
}

func (s *service) AmountGenerated(ctx context.Context, vendorID, sessionID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.find(ctx, vendorID, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.AmountGenerated, nil
}

func (s *service) Balance(ctx context.Context, vendorID, sessionID uuid.UUID) (*models.VendorBalance, error) {
	return s.find(ctx, vendorID, sessionID)
}

func (s *service) SessionBalances(ctx context.Context, sessionID uuid.UUID) ([]models.VendorBalance, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return s.repo.ListBySession(ctx, sessionID)
}

// Settle pays out the vendor's outstanding amount for the session. A pair with
// no recorded sale has no ledger row, which is reported as NO_LEDGER_ENTRY
// rather than treated as a zero balance. Settling an already-settled pair is a
// no-op because the row still matches.
func (s *service) Settle(ctx context.Context, vendorID, sessionID uuid.UUID) error {
	if vendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if sessionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	matched, err := s.repo.SettleDue(ctx, vendorID, sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle vendor balance")
	}
	if !matched {
		return pkgerrors.New(pkgerrors.CodeNoLedgerEntry, "no settlement entry for vendor in session")
	}
	return nil
}

// ApplySale credits a completed sale to the vendor's running balance inside
// the caller's transaction.
func (s *service) ApplySale(ctx context.Context, tx *gorm.DB, vendorID, sessionID uuid.UUID, vendorProceeds, commission decimal.Decimal) error {
	if vendorID == uuid.Nil || sessionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor and session ids required")
	}
	return s.repo.WithTx(tx).ApplySale(ctx, vendorID, sessionID, vendorProceeds, commission)
}

func (s *service) find(ctx context.Context, vendorID, sessionID uuid.UUID) (*models.VendorBalance, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	balance, err := s.repo.Find(ctx, vendorID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNoLedgerEntry, "no settlement entry for vendor in session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load vendor balance")
	}
	return balance, nil
}
