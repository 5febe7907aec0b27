package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/replaygames/replay-backend/internal/sales"
	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
)

type purchaseLister interface {
	ListPurchases(ctx context.Context, filters sales.PurchaseFilters) ([]models.Purchase, error)
}

// Bucket aggregates the purchases falling into one time slot.
type Bucket struct {
	Slot       string          `json:"slot"`
	Count      int             `json:"count"`
	Gross      decimal.Decimal `json:"gross"`
	Commission decimal.Decimal `json:"commission"`
}

// SessionTotals summarizes a whole session.
type SessionTotals struct {
	Purchases  int             `json:"purchases"`
	Gross      decimal.Decimal `json:"gross"`
	Commission decimal.Decimal `json:"commission"`
}

// Service produces sales aggregates for reporting endpoints.
type Service interface {
	SalesByDay(ctx context.Context, sessionID uuid.UUID) ([]Bucket, error)
	SalesByHour(ctx context.Context, sessionID uuid.UUID, day time.Time) ([]Bucket, error)
	Totals(ctx context.Context, sessionID uuid.UUID) (*SessionTotals, error)
}

type service struct {
	purchases purchaseLister
}

// NewService wires a reports service over the purchase store.
func NewService(purchases purchaseLister) (Service, error) {
	if purchases == nil {
		return nil, fmt.Errorf("purchase lister required")
	}
	return &service{purchases: purchases}, nil
}

// SalesByDay groups the session's purchases by calendar day in UTC. Buckets
// are small for a single session, so grouping happens here instead of SQL.
func (s *service) SalesByDay(ctx context.Context, sessionID uuid.UUID) ([]Bucket, error) {
	purchases, err := s.list(ctx, sessionID, nil, nil)
	if err != nil {
		return nil, err
	}
	return bucketize(purchases, func(at time.Time) string {
		return at.UTC().Format("2006-01-02")
	}), nil
}

// SalesByHour groups one day's purchases by hour in UTC.
func (s *service) SalesByHour(ctx context.Context, sessionID uuid.UUID, day time.Time) ([]Bucket, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)
	purchases, err := s.list(ctx, sessionID, &dayStart, &dayEnd)
	if err != nil {
		return nil, err
	}
	return bucketize(purchases, func(at time.Time) string {
		return at.UTC().Format("2006-01-02T15:00")
	}), nil
}

func (s *service) Totals(ctx context.Context, sessionID uuid.UUID) (*SessionTotals, error) {
	purchases, err := s.list(ctx, sessionID, nil, nil)
	if err != nil {
		return nil, err
	}

	totals := &SessionTotals{Gross: decimal.Zero, Commission: decimal.Zero}
	for _, purchase := range purchases {
		totals.Purchases++
		totals.Gross = totals.Gross.Add(purchase.Price)
		totals.Commission = totals.Commission.Add(purchase.Commission)
	}
	return totals, nil
}

func (s *service) list(ctx context.Context, sessionID uuid.UUID, from, to *time.Time) ([]models.Purchase, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	purchases, err := s.purchases.ListPurchases(ctx, sales.PurchaseFilters{
		SessionID: &sessionID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list purchases")
	}
	return purchases, nil
}

func bucketize(purchases []models.Purchase, slot func(time.Time) string) []Bucket {
	grouped := map[string]*Bucket{}
	for _, purchase := range purchases {
		key := slot(purchase.TransactedAt)
		bucket, ok := grouped[key]
		if !ok {
			bucket = &Bucket{Slot: key, Gross: decimal.Zero, Commission: decimal.Zero}
			grouped[key] = bucket
		}
		bucket.Count++
		bucket.Gross = bucket.Gross.Add(purchase.Price)
		bucket.Commission = bucket.Commission.Add(purchase.Commission)
	}

	buckets := make([]Bucket, 0, len(grouped))
	for _, bucket := range grouped {
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Slot < buckets[j].Slot })
	return buckets
}
