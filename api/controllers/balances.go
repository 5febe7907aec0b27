package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/replaygames/replay-backend/api/responses"
	"github.com/replaygames/replay-backend/api/validators"
	"github.com/replaygames/replay-backend/internal/balances"
	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/logger"
)

type balanceResponse struct {
	VendorID        uuid.UUID       `json:"vendor_id"`
	SessionID       uuid.UUID       `json:"session_id"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	AmountGenerated decimal.Decimal `json:"amount_generated"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func balanceResponseFromModel(m *models.VendorBalance) balanceResponse {
	return balanceResponse{
		VendorID:        m.VendorID,
		SessionID:       m.SessionID,
		AmountDue:       m.AmountDue,
		AmountGenerated: m.AmountGenerated,
		UpdatedAt:       m.UpdatedAt,
	}
}

func balancePathIDs(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	vendorID, err := validators.PathUUID(r, "vendorID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	sessionID, err := validators.PathUUID(r, "sessionID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return vendorID, sessionID, nil
}

// BalanceGet returns a vendor's ledger entry for one session.
func BalanceGet(svc balances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balances service unavailable"))
			return
		}

		vendorID, sessionID, err := balancePathIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.Balance(r.Context(), vendorID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, balanceResponseFromModel(balance))
	}
}

// BalanceListSession returns every vendor ledger entry for one session.
func BalanceListSession(svc balances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balances service unavailable"))
			return
		}

		sessionID, err := validators.PathUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.SessionBalances(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]balanceResponse, 0, len(list))
		for i := range list {
			out = append(out, balanceResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// BalanceSettle pays out a vendor's due amount for one session.
func BalanceSettle(svc balances.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "balances service unavailable"))
			return
		}

		vendorID, sessionID, err := balancePathIDs(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Settle(r.Context(), vendorID, sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"vendor_id":  vendorID.String(),
			"session_id": sessionID.String(),
			"status":     "settled",
		})
	}
}
