package deposits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
	"github.com/replaygames/replay-backend/pkg/enums"
)

// Repository manages persistence for deposits and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, deposit *models.Deposit) (*models.Deposit, error)
	CreateItems(ctx context.Context, items []models.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Deposit, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Deposit, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context, filters ItemFilters) ([]models.Item, error)
	TransitionItem(ctx context.Context, itemID uuid.UUID, from, to enums.ItemStatus) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a deposits repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, deposit *models.Deposit) (*models.Deposit, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(deposit).Error; err != nil {
		return nil, err
	}
	return deposit, nil
}

func (r *repository) CreateItems(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	var deposit models.Deposit
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&deposit).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Deposit, error) {
	var rows []models.Deposit
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("vendor_id = ?", vendorID).
		Order("deposited_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, filters ItemFilters) ([]models.Item, error) {
	query := r.db.WithContext(ctx).Model(&models.Item{})
	if filters.Status != nil {
		query = query.Where("items.status = ?", *filters.Status)
	}
	if filters.SessionID != nil || filters.VendorID != nil {
		query = query.Joins("JOIN deposits ON deposits.id = items.deposit_id")
		if filters.SessionID != nil {
			query = query.Where("deposits.session_id = ?", *filters.SessionID)
		}
		if filters.VendorID != nil {
			query = query.Where("deposits.vendor_id = ?", *filters.VendorID)
		}
	}

	var items []models.Item
	if err := query.Order("items.created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// TransitionItem moves the item along one lifecycle edge. The WHERE clause on
// the current status is the concurrency guard: of two racing writers only one
// sees RowsAffected == 1.
func (r *repository) TransitionItem(ctx context.Context, itemID uuid.UUID, from, to enums.ItemStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND status = ?", itemID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
