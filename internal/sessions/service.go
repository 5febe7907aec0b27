package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
	pkgerrors "github.com/replaygames/replay-backend/pkg/errors"
	"github.com/replaygames/replay-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines sale session lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateSessionInput) (*models.SaleSession, error)
	Get(ctx context.Context, id uuid.UUID) (*models.SaleSession, error)
	List(ctx context.Context) ([]models.SaleSession, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateSessionInput) (*models.SaleSession, error)
	Close(ctx context.Context, id uuid.UUID, now time.Time) (*CloseSessionResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.SaleMetrics
}

// NewService wires a sessions service with the required dependencies.
func NewService(repo Repository, tx txRunner, saleMetrics *metrics.SaleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: saleMetrics}, nil
}

func (s *service) Create(ctx context.Context, input CreateSessionInput) (*models.SaleSession, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session name required")
	}
	if input.StartAt.IsZero() || input.EndAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session window required")
	}
	if !input.StartAt.Before(input.EndAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session start must precede end")
	}
	if err := validateFeePolicy("commission", input.Commission); err != nil {
		return nil, err
	}
	if err := validateFeePolicy("deposit fee", input.DepositFee); err != nil {
		return nil, err
	}

	session := &models.SaleSession{
		ID:                  uuid.New(),
		Name:                strings.TrimSpace(input.Name),
		StartAt:             input.StartAt.UTC(),
		EndAt:               input.EndAt.UTC(),
		CommissionValue:     input.Commission.Value,
		CommissionIsPercent: input.Commission.IsPercent,
		DepositFeeValue:     input.DepositFee.Value,
		DepositFeeIsPercent: input.DepositFee.IsPercent,
	}
	created, err := s.repo.Create(ctx, session)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sale session")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.SaleSession, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.SaleSession, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sale sessions")
	}
	return sessions, nil
}

// Update edits the session row. Fee policies and the sale window are frozen
// once any purchase references the session: recorded settlement amounts are
// snapshots and retroactive edits would desynchronize them from the policy.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateSessionInput) (*models.SaleSession, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "session name required")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}

	touchesFrozen := input.StartAt != nil || input.EndAt != nil || input.Commission != nil || input.DepositFee != nil
	if touchesFrozen {
		count, err := s.repo.CountPurchases(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count session purchases")
		}
		if count > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session fees and window are frozen after the first sale")
		}

		startAt := session.StartAt
		endAt := session.EndAt
		if input.StartAt != nil {
			startAt = input.StartAt.UTC()
			updates["start_at"] = startAt
		}
		if input.EndAt != nil {
			endAt = input.EndAt.UTC()
			updates["end_at"] = endAt
		}
		if !startAt.Before(endAt) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "session start must precede end")
		}
		if input.Commission != nil {
			if err := validateFeePolicy("commission", *input.Commission); err != nil {
				return nil, err
			}
			updates["commission_value"] = input.Commission.Value
			updates["commission_is_percent"] = input.Commission.IsPercent
		}
		if input.DepositFee != nil {
			if err := validateFeePolicy("deposit fee", *input.DepositFee); err != nil {
				return nil, err
			}
			updates["deposit_fee_value"] = input.DepositFee.Value
			updates["deposit_fee_is_percent"] = input.DepositFee.IsPercent
		}
	}

	if len(updates) == 0 {
		return session, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update sale session")
	}
	return s.load(ctx, id)
}

// Close sweeps every unsold item of an ended session into the reclaimable
// state. Calling it again after the first sweep matches nothing and reports
// zero expired items.
func (s *service) Close(ctx context.Context, id uuid.UUID, now time.Time) (*CloseSessionResult, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.HasEnded(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session sale window is still open")
	}

	var expired int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		count, err := s.repo.WithTx(tx).ExpireUnsoldItems(ctx, id)
		if err != nil {
			return err
		}
		expired = count
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close sale session")
	}

	s.metrics.AddExpired(expired)
	return &CloseSessionResult{SessionID: id.String(), ItemsExpired: expired}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.SaleSession, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sale session")
	}
	return session, nil
}

func validateFeePolicy(label string, policy FeePolicy) error {
	if policy.Value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, label+" value cannot be negative")
	}
	if policy.IsPercent && policy.Value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, label+" percentage cannot exceed 100")
	}
	return nil
}
