package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/replaygames/replay-backend/api/responses"
	"github.com/replaygames/replay-backend/api/validators"
	"github.com/replaygames/replay-backend/internal/promos"
	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/logger"
)

type promoCreateRequest struct {
	Label           string          `json:"label" validate:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type promoUpdateRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type promoResponse struct {
	ID              uuid.UUID       `json:"id"`
	Label           string          `json:"label"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func promoResponseFromModel(m *models.PromoCode) promoResponse {
	return promoResponse{
		ID:              m.ID,
		Label:           m.Label,
		DiscountPercent: m.DiscountPercent,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func promoLabelParam(r *http.Request) (string, error) {
	label := strings.TrimSpace(chi.URLParam(r, "label"))
	if label == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "promo label required")
	}
	return label, nil
}

// PromoCreate registers a new promo code.
func PromoCreate(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		var payload promoCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), promos.CreatePromoInput{
			Label:           strings.TrimSpace(payload.Label),
			DiscountPercent: payload.DiscountPercent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, promoResponseFromModel(created))
	}
}

// PromoList returns all promo codes.
func PromoList(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]promoResponse, 0, len(list))
		for i := range list {
			out = append(out, promoResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// PromoGet resolves one promo code by label.
func PromoGet(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		label, err := promoLabelParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		promo, err := svc.Resolve(r.Context(), label)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, promoResponseFromModel(promo))
	}
}

// PromoUpdate changes a promo code's discount.
func PromoUpdate(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		label, err := promoLabelParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload promoUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateDiscount(r.Context(), label, payload.DiscountPercent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, promoResponseFromModel(updated))
	}
}

// PromoDelete removes a promo code.
func PromoDelete(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promos service unavailable"))
			return
		}

		label, err := promoLabelParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), label); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"label": label, "status": "deleted"})
	}
}
