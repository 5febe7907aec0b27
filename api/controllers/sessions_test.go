package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaygames/replay-backend/internal/sessions"
	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/types"
)

type stubSessionsService struct {
	created   *models.SaleSession
	createErr error
	closeRes  *sessions.CloseSessionResult
	closeErr  error
	gotInput  sessions.CreateSessionInput
}

func (s *stubSessionsService) Create(_ context.Context, input sessions.CreateSessionInput) (*models.SaleSession, error) {
	s.gotInput = input
	return s.created, s.createErr
}

func (s *stubSessionsService) Get(context.Context, uuid.UUID) (*models.SaleSession, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
}

func (s *stubSessionsService) List(context.Context) ([]models.SaleSession, error) {
	return nil, nil
}

func (s *stubSessionsService) Update(context.Context, uuid.UUID, sessions.UpdateSessionInput) (*models.SaleSession, error) {
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session already has purchases")
}

func (s *stubSessionsService) Close(context.Context, uuid.UUID, time.Time) (*sessions.CloseSessionResult, error) {
	return s.closeRes, s.closeErr
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestSessionCreate(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	created := &models.SaleSession{
		ID:                  uuid.New(),
		Name:                "Summer 2026",
		StartAt:             now,
		EndAt:               now.Add(48 * time.Hour),
		CommissionValue:     decimal.RequireFromString("10"),
		CommissionIsPercent: true,
	}
	svc := &stubSessionsService{created: created}

	body := `{"name":"  Summer 2026  ","start_at":"` + now.Format(time.RFC3339) +
		`","end_at":"` + now.Add(48*time.Hour).Format(time.RFC3339) +
		`","commission":{"value":"10","is_percent":true},"deposit_fee":{"value":"2","is_percent":false}}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	SessionCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Summer 2026", svc.gotInput.Name)
	assert.True(t, svc.gotInput.Commission.IsPercent)

	var envelope struct {
		Data sessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, created.ID, envelope.Data.ID)
}

func TestSessionCreateRejectsMissingName(t *testing.T) {
	svc := &stubSessionsService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"start_at":"2026-07-01T00:00:00Z","end_at":"2026-07-02T00:00:00Z","commission":{"value":"10","is_percent":true},"deposit_fee":{"value":"0","is_percent":false}}`))
	rec := httptest.NewRecorder()
	SessionCreate(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionGetRejectsBadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/nope", nil)
	req = withRouteParam(req, "sessionID", "nope")
	rec := httptest.NewRecorder()
	SessionGet(&stubSessionsService{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionUpdateSurfacesStateConflict(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/sessions/"+id.String(), strings.NewReader(`{"end_at":"2026-08-01T00:00:00Z"}`))
	req = withRouteParam(req, "sessionID", id.String())
	rec := httptest.NewRecorder()
	SessionUpdate(&stubSessionsService{}, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "STATE_CONFLICT", envelope.Error.Code)
}

func TestSessionClose(t *testing.T) {
	id := uuid.New()
	svc := &stubSessionsService{closeRes: &sessions.CloseSessionResult{SessionID: id.String(), ItemsExpired: 7}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id.String()+"/close", nil)
	req = withRouteParam(req, "sessionID", id.String())
	rec := httptest.NewRecorder()
	SessionClose(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data sessions.CloseSessionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, int64(7), envelope.Data.ItemsExpired)
}
