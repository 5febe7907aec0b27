package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/replaygames/replay-backend/api/responses"
	"github.com/replaygames/replay-backend/api/validators"
	"github.com/replaygames/replay-backend/internal/catalog"
	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/logger"
)

type editorCreateRequest struct {
	Name string `json:"name" validate:"required"`
}

type editorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func editorResponseFromModel(m *models.Editor) editorResponse {
	return editorResponse{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

type titleCreateRequest struct {
	EditorID string `json:"editor_id" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type titleResponse struct {
	ID        uuid.UUID `json:"id"`
	EditorID  uuid.UUID `json:"editor_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func titleResponseFromModel(m *models.License) titleResponse {
	return titleResponse{ID: m.ID, EditorID: m.EditorID, Name: m.Name, CreatedAt: m.CreatedAt}
}

// EditorCreate registers a game editor.
func EditorCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload editorCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateEditor(r.Context(), catalog.CreateEditorInput{Name: strings.TrimSpace(payload.Name)})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, editorResponseFromModel(created))
	}
}

// EditorGet returns one editor.
func EditorGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "editorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		editor, err := svc.GetEditor(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, editorResponseFromModel(editor))
	}
}

// EditorList returns all editors.
func EditorList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		list, err := svc.ListEditors(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]editorResponse, 0, len(list))
		for i := range list {
			out = append(out, editorResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// TitleCreate registers a game title under an editor.
func TitleCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload titleCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		editorID, err := uuid.Parse(strings.TrimSpace(payload.EditorID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid editor_id"))
			return
		}

		created, err := svc.CreateLicense(r.Context(), catalog.CreateLicenseInput{
			EditorID: editorID,
			Name:     strings.TrimSpace(payload.Name),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, titleResponseFromModel(created))
	}
}

// TitleGet returns one game title.
func TitleGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "titleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		title, err := svc.GetLicense(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, titleResponseFromModel(title))
	}
}

// TitleList returns game titles, optionally filtered by editor.
func TitleList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var editorFilter *uuid.UUID
		editorID, err := validators.ParseQueryUUID(r, "editor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if editorID != uuid.Nil {
			editorFilter = &editorID
		}

		list, err := svc.ListLicenses(r.Context(), editorFilter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]titleResponse, 0, len(list))
		for i := range list {
			out = append(out, titleResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
