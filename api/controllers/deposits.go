package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/replaygames/replay-backend/api/middleware"
	"github.com/replaygames/replay-backend/api/responses"
	"github.com/replaygames/replay-backend/api/validators"
	"github.com/replaygames/replay-backend/internal/deposits"
	"github.com/replaygames/replay-backend/pkg/db/models"
	"github.com/replaygames/replay-backend/pkg/enums"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/logger"
)

type depositItemRequest struct {
	LicenseID string          `json:"license_id" validate:"required"`
	Price     decimal.Decimal `json:"price"`
}

type depositCreateRequest struct {
	SessionID   string               `json:"session_id" validate:"required"`
	DepositedAt *time.Time           `json:"deposited_at,omitempty"`
	Items       []depositItemRequest `json:"items" validate:"required,min=1"`
}

func (req depositCreateRequest) toInput(vendorID uuid.UUID) (deposits.CreateDepositInput, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return deposits.CreateDepositInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid session_id")
	}

	items := make([]deposits.DepositItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		licenseID, parseErr := uuid.Parse(item.LicenseID)
		if parseErr != nil {
			return deposits.CreateDepositInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid license_id")
		}
		items = append(items, deposits.DepositItemInput{LicenseID: licenseID, Price: item.Price})
	}

	depositedAt := time.Now().UTC()
	if req.DepositedAt != nil {
		depositedAt = *req.DepositedAt
	}

	return deposits.CreateDepositInput{
		VendorID:    vendorID,
		SessionID:   sessionID,
		DepositedAt: depositedAt,
		Items:       items,
	}, nil
}

type itemResponse struct {
	ID        uuid.UUID        `json:"id"`
	DepositID uuid.UUID        `json:"deposit_id"`
	LicenseID uuid.UUID        `json:"license_id"`
	Price     decimal.Decimal  `json:"price"`
	Status    enums.ItemStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func itemResponseFromModel(m *models.Item) itemResponse {
	return itemResponse{
		ID:        m.ID,
		DepositID: m.DepositID,
		LicenseID: m.LicenseID,
		Price:     m.Price,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type depositResponse struct {
	ID                uuid.UUID       `json:"id"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	SessionID         uuid.UUID       `json:"session_id"`
	DepositFeeCharged decimal.Decimal `json:"deposit_fee_charged"`
	DepositedAt       time.Time       `json:"deposited_at"`
	Items             []itemResponse  `json:"items"`
	CreatedAt         time.Time       `json:"created_at"`
}

func depositResponseFromModel(m *models.Deposit) depositResponse {
	items := make([]itemResponse, 0, len(m.Items))
	for i := range m.Items {
		items = append(items, itemResponseFromModel(&m.Items[i]))
	}
	return depositResponse{
		ID:                m.ID,
		VendorID:          m.VendorID,
		SessionID:         m.SessionID,
		DepositFeeCharged: m.DepositFeeCharged,
		DepositedAt:       m.DepositedAt,
		Items:             items,
		CreatedAt:         m.CreatedAt,
	}
}

func vendorIDFromRequest(r *http.Request) (uuid.UUID, error) {
	vendorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return vendorID, nil
}

// DepositCreate records a vendor's drop-off and prices its items.
func DepositCreate(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposits service unavailable"))
			return
		}

		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload depositCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, depositResponseFromModel(created))
	}
}

// DepositGet returns one deposit with its items.
func DepositGet(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposits service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "depositID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deposit, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, depositResponseFromModel(deposit))
	}
}

// DepositListMine returns the authenticated vendor's deposits.
func DepositListMine(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposits service unavailable"))
			return
		}

		vendorID, err := vendorIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByVendor(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]depositResponse, 0, len(list))
		for i := range list {
			out = append(out, depositResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ItemGet returns one item.
func ItemGet(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposits service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, itemResponseFromModel(item))
	}
}

// ItemList returns items filtered by status, session, or vendor.
func ItemList(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposits service unavailable"))
			return
		}

		var filters deposits.ItemFilters

		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseItemStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid item status"))
				return
			}
			filters.Status = &status
		}

		sessionID, err := validators.ParseQueryUUID(r, "session_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if sessionID != uuid.Nil {
			filters.SessionID = &sessionID
		}

		vendorID, err := validators.ParseQueryUUID(r, "vendor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if vendorID != uuid.Nil {
			filters.VendorID = &vendorID
		}

		list, err := svc.ListItems(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]itemResponse, 0, len(list))
		for i := range list {
			out = append(out, itemResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ItemReclaim hands an expired item back to its vendor.
func ItemReclaim(svc deposits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deposits service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Reclaim(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, itemResponseFromModel(item))
	}
}
