package promos

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
)

type stubPromosRepo struct {
	promo     *models.PromoCode
	findErr   error
	findCalls int
}

func (s *stubPromosRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPromosRepo) Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	s.promo = promo
	return promo, nil
}

func (s *stubPromosRepo) FindByLabel(ctx context.Context, label string) (*models.PromoCode, error) {
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.promo, nil
}

func (s *stubPromosRepo) List(ctx context.Context) ([]models.PromoCode, error) { return nil, nil }

func (s *stubPromosRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return nil
}

func (s *stubPromosRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type memoryCache struct {
	values map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryCache) CacheKey(parts ...string) string {
	return "replay:cache:" + strings.Join(parts, ":")
}

func TestResolveReadsThroughCache(t *testing.T) {
	promo := &models.PromoCode{ID: uuid.New(), Label: "SPRING10", DiscountPercent: decimal.RequireFromString("10")}
	repo := &stubPromosRepo{promo: promo}
	cache := newMemoryCache()
	svc, err := NewService(repo, cache, nil)
	require.NoError(t, err)
	ctx := context.Background()

	resolved, err := svc.Resolve(ctx, "SPRING10")
	require.NoError(t, err)
	assert.Equal(t, promo.Label, resolved.Label)
	assert.Equal(t, 1, repo.findCalls)

	// Second lookup is served from the cache.
	resolved, err = svc.Resolve(ctx, "SPRING10")
	require.NoError(t, err)
	assert.Equal(t, promo.Label, resolved.Label)
	assert.True(t, resolved.DiscountPercent.Equal(promo.DiscountPercent))
	assert.Equal(t, 1, repo.findCalls)
}

func TestResolveUnknownLabel(t *testing.T) {
	repo := &stubPromosRepo{findErr: gorm.ErrRecordNotFound}
	svc, err := NewService(repo, newMemoryCache(), nil)
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "GHOST")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePromoNotFound), "got %v", err)
}

func TestResolveWithoutCache(t *testing.T) {
	promo := &models.PromoCode{ID: uuid.New(), Label: "NOCACHE", DiscountPercent: decimal.RequireFromString("5")}
	svc, err := NewService(&stubPromosRepo{promo: promo}, nil, nil)
	require.NoError(t, err)

	resolved, err := svc.Resolve(context.Background(), "NOCACHE")
	require.NoError(t, err)
	assert.Equal(t, "NOCACHE", resolved.Label)
}

func TestUpdateDiscountInvalidatesCache(t *testing.T) {
	promo := &models.PromoCode{ID: uuid.New(), Label: "EDITME", DiscountPercent: decimal.RequireFromString("5")}
	repo := &stubPromosRepo{promo: promo}
	cache := newMemoryCache()
	svc, err := NewService(repo, cache, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Resolve(ctx, "EDITME")
	require.NoError(t, err)
	key := cache.CacheKey("promo", "EDITME")
	require.Contains(t, cache.values, key)

	_, err = svc.UpdateDiscount(ctx, "EDITME", decimal.RequireFromString("20"))
	require.NoError(t, err)
	assert.NotContains(t, cache.values, key)
}

func TestCreatePromoValidation(t *testing.T) {
	svc, err := NewService(&stubPromosRepo{}, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Create(ctx, CreatePromoInput{Label: "  ", DiscountPercent: decimal.RequireFromString("10")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreatePromoInput{Label: "TOO-MUCH", DiscountPercent: decimal.RequireFromString("101")})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCachedPayloadRoundTrips(t *testing.T) {
	promo := &models.PromoCode{ID: uuid.New(), Label: "JSON", DiscountPercent: decimal.RequireFromString("12.5")}
	payload, err := json.Marshal(promo)
	require.NoError(t, err)

	var decoded models.PromoCode
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.True(t, decoded.DiscountPercent.Equal(promo.DiscountPercent))
}
