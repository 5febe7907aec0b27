package balances

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/replaygames/replay-backend/pkg/db/models"
)

// Repository manages persistence for vendor settlement balances.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, vendorID, sessionID uuid.UUID) (*models.VendorBalance, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.VendorBalance, error)
	ApplySale(ctx context.Context, vendorID, sessionID uuid.UUID, vendorProceeds, commission decimal.Decimal) error
	SettleDue(ctx context.Context, vendorID, sessionID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a balances repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, vendorID, sessionID uuid.UUID) (*models.VendorBalance, error) {
	var balance models.VendorBalance
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND session_id = ?", vendorID, sessionID).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.VendorBalance, error) {
	var rows []models.VendorBalance
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ApplySale upserts the (vendor, session) row, incrementing both counters in
// SQL so concurrent sales never lose updates. The row is created on the first
// sale of the pair.
func (r *repository) ApplySale(ctx context.Context, vendorID, sessionID uuid.UUID, vendorProceeds, commission decimal.Decimal) error {
	balance := models.VendorBalance{
		ID:              uuid.New(),
		VendorID:        vendorID,
		SessionID:       sessionID,
		AmountDue:       vendorProceeds,
		AmountGenerated: commission,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "vendor_id"}, {Name: "session_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"amount_due":       gorm.Expr("vendor_balances.amount_due + excluded.amount_due"),
				"amount_generated": gorm.Expr("vendor_balances.amount_generated + excluded.amount_generated"),
			}),
		}).
		Create(&balance).Error
}

// SettleDue zeroes the outstanding amount for the pair. The second return
// value reports whether a row matched; callers translate a miss into the
// domain error.
func (r *repository) SettleDue(ctx context.Context, vendorID, sessionID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.VendorBalance{}).
		Where("vendor_id = ? AND session_id = ?", vendorID, sessionID).
		Update("amount_due", decimal.Zero)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
