package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
	"github.com/replaygames/replay-backend/pkg/enums"
)

func setupSalesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	setupSalesTestDBOn(t, db)
	return db
}

func setupSalesTestDBOn(t *testing.T, db *gorm.DB) {
	t.Helper()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS sale_sessions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  start_at DATETIME NOT NULL,
  end_at DATETIME NOT NULL,
  commission_value NUMERIC NOT NULL,
  commission_is_percent INTEGER NOT NULL DEFAULT 1,
  deposit_fee_value NUMERIC NOT NULL,
  deposit_fee_is_percent INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS deposits (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  session_id TEXT NOT NULL,
  deposit_fee_charged NUMERIC NOT NULL,
  deposited_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  deposit_id TEXT NOT NULL,
  license_id TEXT NOT NULL,
  price NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'on_sale',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS purchases (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL UNIQUE,
  buyer_id TEXT NOT NULL,
  transacted_at DATETIME NOT NULL,
  price NUMERIC NOT NULL,
  commission NUMERIC NOT NULL,
  promo_code TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS vendor_balances (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  session_id TEXT NOT NULL,
  amount_due NUMERIC NOT NULL DEFAULT 0,
  amount_generated NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (vendor_id, session_id)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		for _, table := range []string{"vendor_balances", "purchases", "items", "deposits", "sale_sessions"} {
			db.Exec("DELETE FROM " + table)
		}
	})
}

func seedSaleGraph(t *testing.T, db *gorm.DB, prices ...string) (*models.SaleSession, *models.Deposit, []models.Item) {
	t.Helper()

	session := &models.SaleSession{
		ID:                  uuid.New(),
		Name:                "weekend market",
		StartAt:             time.Now().Add(-time.Hour),
		EndAt:               time.Now().Add(time.Hour),
		CommissionValue:     decimal.RequireFromString("10"),
		CommissionIsPercent: true,
		DepositFeeValue:     decimal.RequireFromString("2.00"),
	}
	require.NoError(t, db.Create(session).Error)

	deposit := &models.Deposit{
		ID:                uuid.New(),
		VendorID:          uuid.New(),
		SessionID:         session.ID,
		DepositFeeCharged: decimal.RequireFromString("2.00"),
		DepositedAt:       time.Now().UTC(),
	}
	require.NoError(t, db.Create(deposit).Error)

	items := make([]models.Item, 0, len(prices))
	for _, price := range prices {
		item := models.Item{
			ID:        uuid.New(),
			DepositID: deposit.ID,
			LicenseID: uuid.New(),
			Price:     decimal.RequireFromString(price),
			Status:    enums.ItemStatusOnSale,
		}
		require.NoError(t, db.Create(&item).Error)
		items = append(items, item)
	}
	return session, deposit, items
}

func TestMarkItemSoldConsumesEdge(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, _, items := seedSaleGraph(t, db, "50.00")
	itemID := items[0].ID

	matched, err := repo.MarkItemSold(ctx, itemID)
	require.NoError(t, err)
	assert.True(t, matched)

	// The conditional update is the winner-picking guard: a second attempt
	// finds no on_sale row.
	matched, err = repo.MarkItemSold(ctx, itemID)
	require.NoError(t, err)
	assert.False(t, matched)

	item, err := repo.FindItemForUpdate(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusSold, item.Status)
}

func TestCreatePurchaseRejectsSecondForItem(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, _, items := seedSaleGraph(t, db, "50.00")

	first := &models.Purchase{
		ID:           uuid.New(),
		ItemID:       items[0].ID,
		BuyerID:      uuid.New(),
		TransactedAt: time.Now().UTC(),
		Price:        decimal.RequireFromString("50.00"),
		Commission:   decimal.RequireFromString("5.00"),
	}
	require.NoError(t, repo.CreatePurchase(ctx, first))

	second := &models.Purchase{
		ID:           uuid.New(),
		ItemID:       items[0].ID,
		BuyerID:      uuid.New(),
		TransactedAt: time.Now().UTC(),
		Price:        decimal.RequireFromString("50.00"),
		Commission:   decimal.RequireFromString("5.00"),
	}
	assert.Error(t, repo.CreatePurchase(ctx, second))
}

func TestListPurchasesFilters(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	session, _, items := seedSaleGraph(t, db, "10.00", "20.00")
	buyerID := uuid.New()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	for i, item := range items {
		purchase := &models.Purchase{
			ID:           uuid.New(),
			ItemID:       item.ID,
			BuyerID:      buyerID,
			TransactedAt: base.Add(time.Duration(i) * time.Hour),
			Price:        item.Price,
			Commission:   decimal.RequireFromString("1.00"),
		}
		require.NoError(t, repo.CreatePurchase(ctx, purchase))
	}

	all, err := repo.ListPurchases(ctx, PurchaseFilters{SessionID: &session.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cutoff := base.Add(30 * time.Minute)
	early, err := repo.ListPurchases(ctx, PurchaseFilters{To: &cutoff})
	require.NoError(t, err)
	assert.Len(t, early, 1)

	byBuyer, err := repo.ListPurchases(ctx, PurchaseFilters{BuyerID: &buyerID})
	require.NoError(t, err)
	assert.Len(t, byBuyer, 2)

	other := uuid.New()
	none, err := repo.ListPurchases(ctx, PurchaseFilters{BuyerID: &other})
	require.NoError(t, err)
	assert.Empty(t, none)
}
