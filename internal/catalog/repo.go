package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
)

// Repository manages persistence for editors and licenses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateEditor(ctx context.Context, editor *models.Editor) (*models.Editor, error)
	FindEditorByID(ctx context.Context, id uuid.UUID) (*models.Editor, error)
	ListEditors(ctx context.Context) ([]models.Editor, error)
	CreateLicense(ctx context.Context, license *models.License) (*models.License, error)
	FindLicenseByID(ctx context.Context, id uuid.UUID) (*models.License, error)
	ListLicenses(ctx context.Context, editorID *uuid.UUID) ([]models.License, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateEditor(ctx context.Context, editor *models.Editor) (*models.Editor, error) {
	if err := r.db.WithContext(ctx).Create(editor).Error; err != nil {
		return nil, err
	}
	return editor, nil
}

func (r *repository) FindEditorByID(ctx context.Context, id uuid.UUID) (*models.Editor, error) {
	var editor models.Editor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&editor).Error; err != nil {
		return nil, err
	}
	return &editor, nil
}

func (r *repository) ListEditors(ctx context.Context) ([]models.Editor, error) {
	var editors []models.Editor
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&editors).Error; err != nil {
		return nil, err
	}
	return editors, nil
}

func (r *repository) CreateLicense(ctx context.Context, license *models.License) (*models.License, error) {
	if err := r.db.WithContext(ctx).Create(license).Error; err != nil {
		return nil, err
	}
	return license, nil
}

func (r *repository) FindLicenseByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	var license models.License
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&license).Error; err != nil {
		return nil, err
	}
	return &license, nil
}

func (r *repository) ListLicenses(ctx context.Context, editorID *uuid.UUID) ([]models.License, error) {
	query := r.db.WithContext(ctx)
	if editorID != nil {
		query = query.Where("editor_id = ?", *editorID)
	}
	var licenses []models.License
	if err := query.Order("name ASC").Find(&licenses).Error; err != nil {
		return nil, err
	}
	return licenses, nil
}
