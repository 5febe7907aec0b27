package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db"
	"github.com/replaygames/replay-backend/pkg/db/models"
	"github.com/replaygames/replay-backend/pkg/enums"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type promoResolver interface {
	Resolve(ctx context.Context, label string) (*models.PromoCode, error)
}

type settlementWriter interface {
	ApplySale(ctx context.Context, tx *gorm.DB, vendorID, sessionID uuid.UUID, vendorProceeds, commission decimal.Decimal) error
}

// Service defines the sale transaction and purchase reads.
type Service interface {
	Sell(ctx context.Context, input SellInput) (*models.Purchase, error)
	GetPurchaseForItem(ctx context.Context, itemID uuid.UUID) (*models.Purchase, error)
	ListPurchases(ctx context.Context, filters PurchaseFilters) ([]models.Purchase, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	promos   promoResolver
	balances settlementWriter
	metrics  *metrics.SaleMetrics
}

// NewService wires a sales service with the required dependencies.
func NewService(repo Repository, tx txRunner, promos promoResolver, balances settlementWriter, saleMetrics *metrics.SaleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promo resolver required")
	}
	if balances == nil {
		return nil, fmt.Errorf("settlement writer required")
	}
	return &service{repo: repo, tx: tx, promos: promos, balances: balances, metrics: saleMetrics}, nil
}

// Sell atomically marks the item sold, records the purchase snapshot and
// credits the vendor's balance. A serialization failure rolls everything back
// and is retried once; every other failure surfaces immediately.
func (s *service) Sell(ctx context.Context, input SellInput) (*models.Purchase, error) {
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if input.TransactedAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction timestamp required")
	}

	purchase, err := s.sellOnce(ctx, input)
	if err != nil && pkgerrors.IsRetryable(err) {
		s.metrics.IncConflict()
		purchase, err = s.sellOnce(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncSold(purchase.Commission)
	if purchase.PromoCode != nil {
		s.metrics.IncPromoApplied()
	}
	return purchase, nil
}

func (s *service) sellOnce(ctx context.Context, input SellInput) (*models.Purchase, error) {
	var promoLabel string
	if input.PromoLabel != nil {
		promoLabel = strings.TrimSpace(*input.PromoLabel)
	}

	var purchase *models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItemForUpdate(ctx, input.ItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
			}
			return err
		}
		if item.Status != enums.ItemStatusOnSale {
			return pkgerrors.New(pkgerrors.CodeItemUnavailable,
				fmt.Sprintf("item is %s, not on sale", item.Status))
		}

		deposit, err := repo.FindDepositByID(ctx, item.DepositID)
		if err != nil {
			return err
		}
		session, err := repo.FindSessionByID(ctx, deposit.SessionID)
		if err != nil {
			return err
		}
		if !session.IsOpen(input.TransactedAt) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "session sale window is not open")
		}

		var promo *models.PromoCode
		if promoLabel != "" {
			promo, err = s.promos.Resolve(ctx, promoLabel)
			if err != nil {
				return err
			}
		}

		matched, err := repo.MarkItemSold(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if !matched {
			return pkgerrors.New(pkgerrors.CodeItemUnavailable, "item was sold by a concurrent purchase")
		}

		commission := computeCommission(item.Price, session, promo)
		record := &models.Purchase{
			ID:           uuid.New(),
			ItemID:       input.ItemID,
			BuyerID:      input.BuyerID,
			TransactedAt: input.TransactedAt.UTC(),
			Price:        item.Price,
			Commission:   commission,
		}
		if promo != nil {
			record.PromoCode = &promo.Label
		}
		if err := repo.CreatePurchase(ctx, record); err != nil {
			if db.IsUniqueViolation(err, "purchases_item_key") {
				return pkgerrors.New(pkgerrors.CodeItemUnavailable, "item was sold by a concurrent purchase")
			}
			return err
		}

		if err := s.balances.ApplySale(ctx, tx, deposit.VendorID, deposit.SessionID,
			item.Price.Sub(commission), commission); err != nil {
			return err
		}

		purchase = record
		return nil
	})
	if err != nil {
		if coded := pkgerrors.As(err); coded != nil {
			return nil, coded
		}
		if db.IsSerializationFailure(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceConflict, err, "sale transaction aborted")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sale transaction failed")
	}
	return purchase, nil
}

func (s *service) GetPurchaseForItem(ctx context.Context, itemID uuid.UUID) (*models.Purchase, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	purchase, err := s.repo.FindPurchaseByItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no purchase recorded for item")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load purchase")
	}
	return purchase, nil
}

func (s *service) ListPurchases(ctx context.Context, filters PurchaseFilters) ([]models.Purchase, error) {
	return s.repo.ListPurchases(ctx, filters)
}

// computeCommission prices the platform's cut for one item. A percentage
// policy takes that share of the listing price, a flat policy charges the
// fixed amount clamped to [0, price]. A promo then discounts the commission
// itself by its percentage. The result is rounded half-up to cents exactly
// once, at the snapshot.
func computeCommission(price decimal.Decimal, session *models.SaleSession, promo *models.PromoCode) decimal.Decimal {
	hundred := decimal.NewFromInt(100)

	var commission decimal.Decimal
	if session.CommissionIsPercent {
		commission = price.Mul(session.CommissionValue).Div(hundred)
	} else {
		commission = session.CommissionValue
	}

	if commission.IsNegative() {
		commission = decimal.Zero
	}
	if commission.GreaterThan(price) {
		commission = price
	}

	if promo != nil {
		discount := commission.Mul(promo.DiscountPercent).Div(hundred)
		commission = commission.Sub(discount)
	}

	return commission.Round(2)
}
