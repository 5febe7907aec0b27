package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/replaygames/replay-backend/api/middleware"
	"github.com/replaygames/replay-backend/api/responses"
	"github.com/replaygames/replay-backend/api/validators"
	"github.com/replaygames/replay-backend/internal/sales"
	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/logger"
)

type sellRequest struct {
	ItemID     string  `json:"item_id" validate:"required"`
	PromoLabel *string `json:"promo_label,omitempty"`
}

type purchaseResponse struct {
	ID           uuid.UUID       `json:"id"`
	ItemID       uuid.UUID       `json:"item_id"`
	BuyerID      uuid.UUID       `json:"buyer_id"`
	TransactedAt time.Time       `json:"transacted_at"`
	Price        decimal.Decimal `json:"price"`
	Commission   decimal.Decimal `json:"commission"`
	PromoCode    *string         `json:"promo_code,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func purchaseResponseFromModel(m *models.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:           m.ID,
		ItemID:       m.ItemID,
		BuyerID:      m.BuyerID,
		TransactedAt: m.TransactedAt,
		Price:        m.Price,
		Commission:   m.Commission,
		PromoCode:    m.PromoCode,
		CreatedAt:    m.CreatedAt,
	}
}

// Sell records a purchase for the authenticated buyer.
func Sell(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		buyerID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload sellRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(strings.TrimSpace(payload.ItemID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item_id"))
			return
		}

		purchase, err := svc.Sell(r.Context(), sales.SellInput{
			ItemID:       itemID,
			BuyerID:      buyerID,
			PromoLabel:   payload.PromoLabel,
			TransactedAt: time.Now().UTC(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, purchaseResponseFromModel(purchase))
	}
}

// PurchaseForItem looks up the purchase that sold a given item.
func PurchaseForItem(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		itemID, err := validators.PathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.GetPurchaseForItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchaseResponseFromModel(purchase))
	}
}

// PurchaseList returns purchases filtered by buyer, session, or time range.
func PurchaseList(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var filters sales.PurchaseFilters

		buyerID, err := validators.ParseQueryUUID(r, "buyer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if buyerID != uuid.Nil {
			filters.BuyerID = &buyerID
		}

		sessionID, err := validators.ParseQueryUUID(r, "session_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sessionID != uuid.Nil {
			filters.SessionID = &sessionID
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !from.IsZero() {
			filters.From = &from
		}

		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !to.IsZero() {
			filters.To = &to
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.Limit = limit

		list, err := svc.ListPurchases(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]purchaseResponse, 0, len(list))
		for i := range list {
			out = append(out, purchaseResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
