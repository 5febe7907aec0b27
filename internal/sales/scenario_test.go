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

	"github.com/replaygames/replay-backend/internal/balances"
	"github.com/replaygames/replay-backend/pkg/db"
	"github.com/replaygames/replay-backend/pkg/db/models"
	"github.com/replaygames/replay-backend/pkg/enums"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
)

// The settlement walk-through: one vendor deposits five items at 50.00 into a
// 10%-commission session, everything sells, the vendor gets paid out.
func TestSettlementScenario(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	dbc := setupScenarioSchema(t, conn)

	salesRepo := NewRepository(conn)
	balancesRepo := balances.NewRepository(conn)
	balancesSvc, err := balances.NewService(balancesRepo)
	require.NoError(t, err)
	svc, err := NewService(salesRepo, dbc, &fakePromoResolver{}, balancesSvc, nil)
	require.NoError(t, err)

	ctx := context.Background()
	session, deposit, items := seedSaleGraph(t, conn, "50.00", "50.00", "50.00", "50.00", "50.00")

	for _, item := range items {
		_, err := svc.Sell(ctx, SellInput{
			ItemID:       item.ID,
			BuyerID:      uuid.New(),
			TransactedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	generated, err := balancesSvc.AmountGenerated(ctx, deposit.VendorID, session.ID)
	require.NoError(t, err)
	assert.True(t, generated.Equal(decimal.RequireFromString("25.00")), "generated %s", generated)

	due, err := balancesSvc.AmountDue(ctx, deposit.VendorID, session.ID)
	require.NoError(t, err)
	assert.True(t, due.Equal(decimal.RequireFromString("225.00")), "due %s", due)

	require.NoError(t, balancesSvc.Settle(ctx, deposit.VendorID, session.ID))
	due, err = balancesSvc.AmountDue(ctx, deposit.VendorID, session.ID)
	require.NoError(t, err)
	assert.True(t, due.IsZero())

	// The commission record survives the payout.
	generated, err = balancesSvc.AmountGenerated(ctx, deposit.VendorID, session.ID)
	require.NoError(t, err)
	assert.True(t, generated.Equal(decimal.RequireFromString("25.00")))

	// A vendor who never sold has no entry to settle.
	err = balancesSvc.Settle(ctx, uuid.New(), session.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNoLedgerEntry), "got %v", err)

	// Sold items stay sold.
	var soldCount int64
	require.NoError(t, conn.Model(&models.Item{}).Where("status = ?", enums.ItemStatusSold).Count(&soldCount).Error)
	assert.Equal(t, int64(5), soldCount)
}

func TestDoubleSellScenario(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	dbc := setupScenarioSchema(t, conn)

	balancesSvc, err := balances.NewService(balances.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), dbc, &fakePromoResolver{}, balancesSvc, nil)
	require.NoError(t, err)

	ctx := context.Background()
	session, deposit, items := seedSaleGraph(t, conn, "50.00")

	_, err = svc.Sell(ctx, SellInput{ItemID: items[0].ID, BuyerID: uuid.New(), TransactedAt: time.Now()})
	require.NoError(t, err)

	_, err = svc.Sell(ctx, SellInput{ItemID: items[0].ID, BuyerID: uuid.New(), TransactedAt: time.Now()})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeItemUnavailable), "got %v", err)

	// The loser left no trace in the ledger.
	due, err := balancesSvc.AmountDue(ctx, deposit.VendorID, session.ID)
	require.NoError(t, err)
	assert.True(t, due.Equal(decimal.RequireFromString("45.00")), "due %s", due)
}

func setupScenarioSchema(t *testing.T, conn *gorm.DB) *db.Client {
	t.Helper()
	setupSalesTestDBOn(t, conn)
	return db.NewFromConn(conn)
}
