package sales

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/replaygames/replay-backend/pkg/db/models"
	"github.com/replaygames/replay-backend/pkg/enums"
)

// Repository manages the persistence side of a sale transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItemForUpdate(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	FindDepositByID(ctx context.Context, depositID uuid.UUID) (*models.Deposit, error)
	FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*models.SaleSession, error)
	MarkItemSold(ctx context.Context, itemID uuid.UUID) (bool, error)
	CreatePurchase(ctx context.Context, purchase *models.Purchase) error
	FindPurchaseByItem(ctx context.Context, itemID uuid.UUID) (*models.Purchase, error)
	ListPurchases(ctx context.Context, filters PurchaseFilters) ([]models.Purchase, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindItemForUpdate loads the item, taking a row lock where the dialect
// supports one. The lock shortens the race window; the conditional update in
// MarkItemSold is what actually guarantees a single winner.
func (r *repository) FindItemForUpdate(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var item models.Item
	if err := query.Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindDepositByID(ctx context.Context, depositID uuid.UUID) (*models.Deposit, error) {
	var deposit models.Deposit
	if err := r.db.WithContext(ctx).Where("id = ?", depositID).First(&deposit).Error; err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *repository) FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*models.SaleSession, error) {
	var session models.SaleSession
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkItemSold consumes the on_sale edge. Exactly one of any number of
// concurrent callers sees a matched row.
func (r *repository) MarkItemSold(ctx context.Context, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND status = ?", itemID, enums.ItemStatusOnSale).
		Update("status", enums.ItemStatusSold)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *repository) FindPurchaseByItem(ctx context.Context, itemID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) ListPurchases(ctx context.Context, filters PurchaseFilters) ([]models.Purchase, error) {
	query := r.db.WithContext(ctx).Model(&models.Purchase{})
	if filters.BuyerID != nil {
		query = query.Where("purchases.buyer_id = ?", *filters.BuyerID)
	}
	if filters.SessionID != nil {
		query = query.
			Joins("JOIN items ON items.id = purchases.item_id").
			Joins("JOIN deposits ON deposits.id = items.deposit_id").
			Where("deposits.session_id = ?", *filters.SessionID)
	}
	if filters.From != nil {
		query = query.Where("purchases.transacted_at >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("purchases.transacted_at < ?", *filters.To)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	var purchases []models.Purchase
	if err := query.Order("purchases.transacted_at ASC").Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}
