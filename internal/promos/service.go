package promos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db"
	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/logger"
	"github.com/replaygames/replay-backend/pkg/redis"
)

// promoCacheTTL bounds staleness after an out-of-band discount change.
const promoCacheTTL = 5 * time.Minute

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// CreatePromoInput captures the fields of a new promo code.
type CreatePromoInput struct {
	Label           string          `json:"label"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Service defines promo code management plus the hot lookup used by sales.
type Service interface {
	Create(ctx context.Context, input CreatePromoInput) (*models.PromoCode, error)
	Resolve(ctx context.Context, label string) (*models.PromoCode, error)
	List(ctx context.Context) ([]models.PromoCode, error)
	UpdateDiscount(ctx context.Context, label string, discountPercent decimal.Decimal) (*models.PromoCode, error)
	Delete(ctx context.Context, label string) error
}

type service struct {
	repo  Repository
	cache cacheStore
	logg  *logger.Logger
}

// NewService wires a promos service. The cache is optional; without it every
// lookup hits the database.
func NewService(repo Repository, cache cacheStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promos repository required")
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreatePromoInput) (*models.PromoCode, error) {
	label := strings.TrimSpace(input.Label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo label required")
	}
	if input.DiscountPercent.IsNegative() || input.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}

	promo := &models.PromoCode{
		ID:              uuid.New(),
		Label:           label,
		DiscountPercent: input.DiscountPercent,
	}
	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		if db.IsUniqueViolation(err, "promo_codes_label_key") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo label already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create promo code")
	}
	return created, nil
}

// Resolve returns the promo for a label, consulting the cache first. A miss
// that also misses the database is the caller's PROMO_NOT_FOUND.
func (s *service) Resolve(ctx context.Context, label string) (*models.PromoCode, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodePromoNotFound, "promo label required")
	}

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, s.cacheKey(label))
		if err == nil {
			var promo models.PromoCode
			if jsonErr := json.Unmarshal([]byte(raw), &promo); jsonErr == nil {
				return &promo, nil
			}
		} else if !redis.IsMiss(err) {
			s.warn(ctx, label, "promo cache read failed", err)
		}
	}

	promo, err := s.repo.FindByLabel(ctx, label)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodePromoNotFound, fmt.Sprintf("promo code %q not found", label))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load promo code")
	}

	if s.cache != nil {
		if payload, jsonErr := json.Marshal(promo); jsonErr == nil {
			if cacheErr := s.cache.Set(ctx, s.cacheKey(label), string(payload), promoCacheTTL); cacheErr != nil {
				s.warn(ctx, label, "promo cache write failed", cacheErr)
			}
		}
	}
	return promo, nil
}

func (s *service) List(ctx context.Context) ([]models.PromoCode, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateDiscount(ctx context.Context, label string, discountPercent decimal.Decimal) (*models.PromoCode, error) {
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}

	promo, err := s.load(ctx, label)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, promo.ID, map[string]any{"discount_percent": discountPercent}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update promo code")
	}
	s.invalidate(ctx, promo.Label)
	promo.DiscountPercent = discountPercent
	return promo, nil
}

func (s *service) Delete(ctx context.Context, label string) error {
	promo, err := s.load(ctx, label)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, promo.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete promo code")
	}
	s.invalidate(ctx, promo.Label)
	return nil
}

func (s *service) load(ctx context.Context, label string) (*models.PromoCode, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo label required")
	}
	promo, err := s.repo.FindByLabel(ctx, label)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load promo code")
	}
	return promo, nil
}

func (s *service) invalidate(ctx context.Context, label string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(label)); err != nil {
		s.warn(ctx, label, "promo cache invalidation failed", err)
	}
}

func (s *service) cacheKey(label string) string {
	return s.cache.CacheKey("promo", label)
}

func (s *service) warn(ctx context.Context, label, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "promo_label", label), fmt.Sprintf("%s: %v", msg, err))
}
