package sessions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
	"github.com/replaygames/replay-backend/pkg/enums"
)

// Repository manages persistence for sale sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.SaleSession) (*models.SaleSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.SaleSession, error)
	List(ctx context.Context) ([]models.SaleSession, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountPurchases(ctx context.Context, sessionID uuid.UUID) (int64, error)
	ExpireUnsoldItems(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sessions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.SaleSession) (*models.SaleSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SaleSession, error) {
	var session models.SaleSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) List(ctx context.Context) ([]models.SaleSession, error) {
	var sessions []models.SaleSession
	err := r.db.WithContext(ctx).Order("start_at ASC").Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.SaleSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CountPurchases(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Joins("JOIN items ON items.id = purchases.item_id").
		Joins("JOIN deposits ON deposits.id = items.deposit_id").
		Where("deposits.session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ExpireUnsoldItems flips every still-on-sale item of the session to
// reclaimable in one conditional update. The status predicate makes the sweep
// idempotent: sold and already-reclaimable items never match.
func (r *repository) ExpireUnsoldItems(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("status = ?", enums.ItemStatusOnSale).
		Where("deposit_id IN (?)", r.db.Model(&models.Deposit{}).Select("id").Where("session_id = ?", sessionID)).
		Update("status", enums.ItemStatusReclaimable)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
