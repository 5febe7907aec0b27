package balances

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupBalancesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS vendor_balances (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  session_id TEXT NOT NULL,
  amount_due NUMERIC NOT NULL DEFAULT 0,
  amount_generated NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (vendor_id, session_id)
);`
	require.NoError(t, db.Exec(ddl).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM vendor_balances")
	})
	return db
}

func TestApplySaleCreatesRowLazily(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	sessionID := uuid.New()

	require.NoError(t, repo.ApplySale(ctx, vendorID, sessionID,
		decimal.RequireFromString("45.00"), decimal.RequireFromString("5.00")))

	balance, err := repo.Find(ctx, vendorID, sessionID)
	require.NoError(t, err)
	assert.True(t, balance.AmountDue.Equal(decimal.RequireFromString("45.00")), "amount_due %s", balance.AmountDue)
	assert.True(t, balance.AmountGenerated.Equal(decimal.RequireFromString("5.00")), "amount_generated %s", balance.AmountGenerated)
}

func TestApplySaleAccumulates(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	sessionID := uuid.New()

	require.NoError(t, repo.ApplySale(ctx, vendorID, sessionID,
		decimal.RequireFromString("45.00"), decimal.RequireFromString("5.00")))
	require.NoError(t, repo.ApplySale(ctx, vendorID, sessionID,
		decimal.RequireFromString("18.00"), decimal.RequireFromString("2.00")))

	balance, err := repo.Find(ctx, vendorID, sessionID)
	require.NoError(t, err)
	assert.True(t, balance.AmountDue.Equal(decimal.RequireFromString("63.00")), "amount_due %s", balance.AmountDue)
	assert.True(t, balance.AmountGenerated.Equal(decimal.RequireFromString("7.00")), "amount_generated %s", balance.AmountGenerated)
}

func TestApplySaleKeepsPairsIndependent(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	sessionA := uuid.New()
	sessionB := uuid.New()

	require.NoError(t, repo.ApplySale(ctx, vendorID, sessionA,
		decimal.RequireFromString("10.00"), decimal.RequireFromString("1.00")))
	require.NoError(t, repo.ApplySale(ctx, vendorID, sessionB,
		decimal.RequireFromString("20.00"), decimal.RequireFromString("2.00")))

	a, err := repo.Find(ctx, vendorID, sessionA)
	require.NoError(t, err)
	b, err := repo.Find(ctx, vendorID, sessionB)
	require.NoError(t, err)
	assert.True(t, a.AmountDue.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, b.AmountDue.Equal(decimal.RequireFromString("20.00")))
}

func TestSettleDueZeroesAndReportsMatch(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	sessionID := uuid.New()

	require.NoError(t, repo.ApplySale(ctx, vendorID, sessionID,
		decimal.RequireFromString("45.00"), decimal.RequireFromString("5.00")))

	matched, err := repo.SettleDue(ctx, vendorID, sessionID)
	require.NoError(t, err)
	assert.True(t, matched)

	balance, err := repo.Find(ctx, vendorID, sessionID)
	require.NoError(t, err)
	assert.True(t, balance.AmountDue.IsZero(), "amount_due %s", balance.AmountDue)
	assert.True(t, balance.AmountGenerated.Equal(decimal.RequireFromString("5.00")), "settle must not touch amount_generated")

	// Settling a second time still matches the row.
	matched, err = repo.SettleDue(ctx, vendorID, sessionID)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestSettleDueMissingPair(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)

	matched, err := repo.SettleDue(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestListBySession(t *testing.T) {
	db := setupBalancesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sessionID := uuid.New()
	require.NoError(t, repo.ApplySale(ctx, uuid.New(), sessionID,
		decimal.RequireFromString("10.00"), decimal.RequireFromString("1.00")))
	require.NoError(t, repo.ApplySale(ctx, uuid.New(), sessionID,
		decimal.RequireFromString("20.00"), decimal.RequireFromString("2.00")))
	require.NoError(t, repo.ApplySale(ctx, uuid.New(), uuid.New(),
		decimal.RequireFromString("30.00"), decimal.RequireFromString("3.00")))

	rows, err := repo.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
