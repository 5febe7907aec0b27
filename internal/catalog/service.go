package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db"
	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
)

// CreateEditorInput names a publisher.
type CreateEditorInput struct {
	Name string `json:"name"`
}

// CreateLicenseInput attaches a titled license to an editor.
type CreateLicenseInput struct {
	EditorID uuid.UUID `json:"editor_id"`
	Name     string    `json:"name"`
}

// Service defines catalog management operations.
type Service interface {
	CreateEditor(ctx context.Context, input CreateEditorInput) (*models.Editor, error)
	GetEditor(ctx context.Context, id uuid.UUID) (*models.Editor, error)
	ListEditors(ctx context.Context) ([]models.Editor, error)
	CreateLicense(ctx context.Context, input CreateLicenseInput) (*models.License, error)
	GetLicense(ctx context.Context, id uuid.UUID) (*models.License, error)
	ListLicenses(ctx context.Context, editorID *uuid.UUID) ([]models.License, error)
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateEditor(ctx context.Context, input CreateEditorInput) (*models.Editor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "editor name required")
	}

	editor := &models.Editor{ID: uuid.New(), Name: name}
	created, err := s.repo.CreateEditor(ctx, editor)
	if err != nil {
		if db.IsUniqueViolation(err, "editors_name_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "editor name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create editor")
	}
	return created, nil
}

func (s *service) GetEditor(ctx context.Context, id uuid.UUID) (*models.Editor, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "editor id required")
	}
	editor, err := s.repo.FindEditorByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "editor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load editor")
	}
	return editor, nil
}

func (s *service) ListEditors(ctx context.Context) ([]models.Editor, error) {
	return s.repo.ListEditors(ctx)
}

func (s *service) CreateLicense(ctx context.Context, input CreateLicenseInput) (*models.License, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license name required")
	}
	if _, err := s.GetEditor(ctx, input.EditorID); err != nil {
		return nil, err
	}

	license := &models.License{ID: uuid.New(), EditorID: input.EditorID, Name: name}
	created, err := s.repo.CreateLicense(ctx, license)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create license")
	}
	return created, nil
}

func (s *service) GetLicense(ctx context.Context, id uuid.UUID) (*models.License, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license id required")
	}
	license, err := s.repo.FindLicenseByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load license")
	}
	return license, nil
}

func (s *service) ListLicenses(ctx context.Context, editorID *uuid.UUID) ([]models.License, error) {
	return s.repo.ListLicenses(ctx, editorID)
}
