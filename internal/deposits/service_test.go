package deposits

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
	"github.com/replaygames/replay-backend/pkg/enums"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
)

type stubDepositsRepo struct {
	deposit       *models.Deposit
	createdItems  []models.Item
	item          *models.Item
	itemErr       error
	transitionOK  bool
	transitionErr error
}

func (s *stubDepositsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubDepositsRepo) Create(ctx context.Context, deposit *models.Deposit) (*models.Deposit, error) {
	s.deposit = deposit
	return deposit, nil
}

func (s *stubDepositsRepo) CreateItems(ctx context.Context, items []models.Item) error {
	s.createdItems = items
	return nil
}

func (s *stubDepositsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Deposit, error) {
	if s.deposit == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.deposit, nil
}

func (s *stubDepositsRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Deposit, error) {
	return nil, nil
}

func (s *stubDepositsRepo) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	if s.itemErr != nil {
		return nil, s.itemErr
	}
	return s.item, nil
}

func (s *stubDepositsRepo) ListItems(ctx context.Context, filters ItemFilters) ([]models.Item, error) {
	return nil, nil
}

func (s *stubDepositsRepo) TransitionItem(ctx context.Context, itemID uuid.UUID, from, to enums.ItemStatus) (bool, error) {
	return s.transitionOK, s.transitionErr
}

type stubSessionLoader struct {
	session *models.SaleSession
	err     error
}

func (s *stubSessionLoader) Get(ctx context.Context, id uuid.UUID) (*models.SaleSession, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func percentFeeSession() *models.SaleSession {
	return &models.SaleSession{
		ID:                  uuid.New(),
		StartAt:             time.Now().Add(-time.Hour),
		EndAt:               time.Now().Add(time.Hour),
		CommissionValue:     decimal.RequireFromString("10"),
		CommissionIsPercent: true,
		DepositFeeValue:     decimal.RequireFromString("5"),
		DepositFeeIsPercent: true,
	}
}

func depositInput(sessionID uuid.UUID, prices ...string) CreateDepositInput {
	items := make([]DepositItemInput, 0, len(prices))
	for _, p := range prices {
		items = append(items, DepositItemInput{LicenseID: uuid.New(), Price: decimal.RequireFromString(p)})
	}
	return CreateDepositInput{
		VendorID:    uuid.New(),
		SessionID:   sessionID,
		DepositedAt: time.Now(),
		Items:       items,
	}
}

func TestCreateDepositPercentFee(t *testing.T) {
	session := percentFeeSession()
	repo := &stubDepositsRepo{}
	svc, err := NewService(repo, &stubSessionLoader{session: session}, passthroughTx{}, nil)
	require.NoError(t, err)

	deposit, err := svc.Create(context.Background(), depositInput(session.ID, "50.00", "30.00", "20.00"))
	require.NoError(t, err)

	// 5% of 100.00.
	assert.True(t, deposit.DepositFeeCharged.Equal(decimal.RequireFromString("5.00")),
		"fee %s", deposit.DepositFeeCharged)
	assert.Len(t, repo.createdItems, 3)
	for _, item := range repo.createdItems {
		assert.Equal(t, enums.ItemStatusOnSale, item.Status)
	}
}

func TestCreateDepositFlatFee(t *testing.T) {
	session := percentFeeSession()
	session.DepositFeeIsPercent = false
	session.DepositFeeValue = decimal.RequireFromString("3.50")
	svc, err := NewService(&stubDepositsRepo{}, &stubSessionLoader{session: session}, passthroughTx{}, nil)
	require.NoError(t, err)

	deposit, err := svc.Create(context.Background(), depositInput(session.ID, "50.00", "30.00"))
	require.NoError(t, err)
	assert.True(t, deposit.DepositFeeCharged.Equal(decimal.RequireFromString("3.50")))
}

func TestCreateDepositFeeRoundsHalfUp(t *testing.T) {
	session := percentFeeSession()
	session.DepositFeeValue = decimal.RequireFromString("2.5")
	svc, err := NewService(&stubDepositsRepo{}, &stubSessionLoader{session: session}, passthroughTx{}, nil)
	require.NoError(t, err)

	// 2.5% of 10.10 = 0.2525 -> 0.25; 2.5% of 10.30 = 0.2575 -> 0.26.
	deposit, err := svc.Create(context.Background(), depositInput(session.ID, "10.10"))
	require.NoError(t, err)
	assert.True(t, deposit.DepositFeeCharged.Equal(decimal.RequireFromString("0.25")),
		"fee %s", deposit.DepositFeeCharged)

	deposit, err = svc.Create(context.Background(), depositInput(session.ID, "10.30"))
	require.NoError(t, err)
	assert.True(t, deposit.DepositFeeCharged.Equal(decimal.RequireFromString("0.26")),
		"fee %s", deposit.DepositFeeCharged)
}

func TestCreateDepositOutsideWindow(t *testing.T) {
	session := percentFeeSession()
	session.StartAt = time.Now().Add(time.Hour)
	session.EndAt = time.Now().Add(2 * time.Hour)
	svc, err := NewService(&stubDepositsRepo{}, &stubSessionLoader{session: session}, passthroughTx{}, nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), depositInput(session.ID, "50.00"))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}

func TestCreateDepositValidation(t *testing.T) {
	session := percentFeeSession()
	svc, err := NewService(&stubDepositsRepo{}, &stubSessionLoader{session: session}, passthroughTx{}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	input := depositInput(session.ID)
	_, err = svc.Create(ctx, input)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "empty items: %v", err)

	input = depositInput(session.ID, "-1.00")
	_, err = svc.Create(ctx, input)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "negative price: %v", err)
}

func TestReclaimHappyPath(t *testing.T) {
	item := &models.Item{ID: uuid.New(), Status: enums.ItemStatusReclaimable}
	repo := &stubDepositsRepo{item: item, transitionOK: true}
	svc, err := NewService(repo, &stubSessionLoader{session: percentFeeSession()}, passthroughTx{}, nil)
	require.NoError(t, err)

	reclaimed, err := svc.Reclaim(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusReclaimed, reclaimed.Status)
}

func TestReclaimWrongState(t *testing.T) {
	item := &models.Item{ID: uuid.New(), Status: enums.ItemStatusOnSale}
	repo := &stubDepositsRepo{item: item, transitionOK: false}
	svc, err := NewService(repo, &stubSessionLoader{session: percentFeeSession()}, passthroughTx{}, nil)
	require.NoError(t, err)

	_, err = svc.Reclaim(context.Background(), item.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "got %v", err)
}

func TestReclaimUnknownItem(t *testing.T) {
	repo := &stubDepositsRepo{itemErr: gorm.ErrRecordNotFound}
	svc, err := NewService(repo, &stubSessionLoader{session: percentFeeSession()}, passthroughTx{}, nil)
	require.NoError(t, err)

	_, err = svc.Reclaim(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound), "got %v", err)
}
