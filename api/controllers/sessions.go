package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/replaygames/replay-backend/api/responses"
	"github.com/replaygames/replay-backend/api/validators"
	"github.com/replaygames/replay-backend/internal/sessions"
	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/logger"
)

type feePolicyRequest struct {
	Value     decimal.Decimal `json:"value"`
	IsPercent bool            `json:"is_percent"`
}

func (r feePolicyRequest) toPolicy() sessions.FeePolicy {
	return sessions.FeePolicy{Value: r.Value, IsPercent: r.IsPercent}
}

type sessionCreateRequest struct {
	Name       string           `json:"name" validate:"required"`
	StartAt    time.Time        `json:"start_at" validate:"required"`
	EndAt      time.Time        `json:"end_at" validate:"required"`
	Commission feePolicyRequest `json:"commission"`
	DepositFee feePolicyRequest `json:"deposit_fee"`
}

type sessionUpdateRequest struct {
	Name       *string           `json:"name,omitempty"`
	StartAt    *time.Time        `json:"start_at,omitempty"`
	EndAt      *time.Time        `json:"end_at,omitempty"`
	Commission *feePolicyRequest `json:"commission,omitempty"`
	DepositFee *feePolicyRequest `json:"deposit_fee,omitempty"`
}

type sessionResponse struct {
	ID         uuid.UUID          `json:"id"`
	Name       string             `json:"name"`
	StartAt    time.Time          `json:"start_at"`
	EndAt      time.Time          `json:"end_at"`
	Commission sessions.FeePolicy `json:"commission"`
	DepositFee sessions.FeePolicy `json:"deposit_fee"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func sessionResponseFromModel(m *models.SaleSession) sessionResponse {
	return sessionResponse{
		ID:         m.ID,
		Name:       m.Name,
		StartAt:    m.StartAt,
		EndAt:      m.EndAt,
		Commission: sessions.FeePolicy{Value: m.CommissionValue, IsPercent: m.CommissionIsPercent},
		DepositFee: sessions.FeePolicy{Value: m.DepositFeeValue, IsPercent: m.DepositFeeIsPercent},
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// SessionCreate opens a new sale window.
func SessionCreate(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		var payload sessionCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), sessions.CreateSessionInput{
			Name:       strings.TrimSpace(payload.Name),
			StartAt:    payload.StartAt,
			EndAt:      payload.EndAt,
			Commission: payload.Commission.toPolicy(),
			DepositFee: payload.DepositFee.toPolicy(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponseFromModel(created))
	}
}

// SessionGet returns one sale session.
func SessionGet(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponseFromModel(session))
	}
}

// SessionList returns all sale sessions.
func SessionList(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]sessionResponse, 0, len(list))
		for i := range list {
			out = append(out, sessionResponseFromModel(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// SessionUpdate edits a sale session. Window and fee changes are rejected
// once the session has recorded purchases.
func SessionUpdate(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload sessionUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sessions.UpdateSessionInput{
			Name:    payload.Name,
			StartAt: payload.StartAt,
			EndAt:   payload.EndAt,
		}
		if payload.Commission != nil {
			policy := payload.Commission.toPolicy()
			input.Commission = &policy
		}
		if payload.DepositFee != nil {
			policy := payload.DepositFee.toPolicy()
			input.DepositFee = &policy
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sessionResponseFromModel(updated))
	}
}

// SessionClose runs the end-of-session sweep that expires unsold items.
func SessionClose(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sessions service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Close(r.Context(), id, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
