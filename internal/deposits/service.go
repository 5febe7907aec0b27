package deposits

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
	"github.com/replaygames/replay-backend/pkg/enums"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.SaleSession, error)
}

// Service defines deposit intake and item lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateDepositInput) (*models.Deposit, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Deposit, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Deposit, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context, filters ItemFilters) ([]models.Item, error)
	Reclaim(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
}

type service struct {
	repo     Repository
	sessions sessionLoader
	tx       txRunner
	metrics  *metrics.SaleMetrics
}

// NewService wires a deposits service with the required dependencies.
func NewService(repo Repository, sessions sessionLoader, tx txRunner, saleMetrics *metrics.SaleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deposits repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, sessions: sessions, tx: tx, metrics: saleMetrics}, nil
}

// Create records a drop-off: the deposit row with its fee snapshot plus one
// on-sale item per unit, in a single transaction.
func (s *service) Create(ctx context.Context, input CreateDepositInput) (*models.Deposit, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if input.DepositedAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit timestamp required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit requires at least one item")
	}
	for i, item := range input.Items {
		if item.LicenseID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: license id required", i))
		}
		if item.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: price cannot be negative", i))
		}
	}

	session, err := s.sessions.Get(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOpen(input.DepositedAt) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session sale window is not open for deposits")
	}

	deposit := &models.Deposit{
		ID:                uuid.New(),
		VendorID:          input.VendorID,
		SessionID:         input.SessionID,
		DepositFeeCharged: depositFee(session, input.Items),
		DepositedAt:       input.DepositedAt.UTC(),
	}
	items := make([]models.Item, 0, len(input.Items))
	for _, in := range input.Items {
		items = append(items, models.Item{
			ID:        uuid.New(),
			DepositID: deposit.ID,
			LicenseID: in.LicenseID,
			Price:     in.Price.Round(2),
			Status:    enums.ItemStatusOnSale,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.Create(ctx, deposit); err != nil {
			return err
		}
		return repo.CreateItems(ctx, items)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create deposit")
	}

	deposit.Items = items
	return deposit, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deposit id required")
	}
	deposit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deposit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load deposit")
	}
	return deposit, nil
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Deposit, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	return s.repo.ListByVendor(ctx, vendorID)
}

func (s *service) GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	return s.loadItem(ctx, itemID)
}

func (s *service) ListItems(ctx context.Context, filters ItemFilters) ([]models.Item, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid item status %q", *filters.Status))
	}
	return s.repo.ListItems(ctx, filters)
}

// Reclaim hands a reclaimable item back to its vendor. The repository's
// conditional update is the arbiter: when it matches nothing the item either
// vanished or sits in a state with no edge to reclaimed.
func (s *service) Reclaim(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	matched, err := s.repo.TransitionItem(ctx, itemID, enums.ItemStatusReclaimable, enums.ItemStatusReclaimed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reclaim item")
	}
	if !matched {
		current, err := s.loadItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("item cannot move from %s to %s", current.Status, enums.ItemStatusReclaimed))
	}

	s.metrics.IncReclaimed()
	item.Status = enums.ItemStatusReclaimed
	return item, nil
}

func (s *service) loadItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
	}
	return item, nil
}

// depositFee snapshots the session's deposit fee for this drop-off: a
// percentage applies to the summed listing prices, a flat fee is charged once
// per deposit. Rounded half-up to cents at the snapshot, never recomputed.
func depositFee(session *models.SaleSession, items []DepositItemInput) decimal.Decimal {
	if !session.DepositFeeIsPercent {
		return session.DepositFeeValue.Round(2)
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price)
	}
	return total.Mul(session.DepositFeeValue).Div(decimal.NewFromInt(100)).Round(2)
}
