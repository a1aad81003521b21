package promos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/internal/ledger"
	"github.com/earnpro/rewards-backend/pkg/db"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/metrics"
	"github.com/earnpro/rewards-backend/pkg/outbox"
	"github.com/earnpro/rewards-backend/pkg/outbox/payloads"
)

var (
	ErrCodeNotFound   = errors.New("promo code not found")
	ErrCodeExpired    = errors.New("promo code expired")
	ErrAlreadyClaimed = errors.New("promo code already claimed")
	ErrDuplicateCode  = errors.New("promo code already exists")
)

const (
	operationClaim = "promo_claim"
	maxCodeLength  = 64
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type accountEnsurer interface {
	EnsureAccountTx(ctx context.Context, tx *gorm.DB, telegramID int64) (bool, error)
}

// Service redeems promo codes and manages them for admins.
type Service interface {
	Claim(ctx context.Context, code string, accountID int64) (*ClaimResult, error)
	Create(ctx context.Context, input CreateInput) (*models.PromoCode, error)
	List(ctx context.Context) ([]models.PromoCode, error)
	ListClaims(ctx context.Context, accountID int64) ([]models.PromoClaim, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ClaimResult is returned for a successful redemption.
type ClaimResult struct {
	Code     string `json:"code"`
	Reward   int64  `json:"reward"`
	Balance  int64  `json:"balance"`
	UsesLeft int    `json:"usesLeft"`
}

type CreateInput struct {
	Code     string `json:"code" validate:"required,max=64"`
	Reward   int64  `json:"reward" validate:"required,gt=0"`
	UsesLeft int    `json:"usesLeft" validate:"gte=0"`
}

type ServiceParams struct {
	Repo     Repository
	Accounts accountEnsurer
	Ledger   ledger.Service
	Tx       txRunner
	Outbox   outbox.Emitter
	Metrics  *metrics.LedgerMetrics
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	accounts accountEnsurer
	ledger   ledger.Service
	tx       txRunner
	outbox   outbox.Emitter
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:     params.Repo,
		accounts: params.Accounts,
		ledger:   params.Ledger,
		tx:       params.Tx,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// NormalizeCode trims and upper-cases a code so matching is case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Claim(ctx context.Context, code string, accountID int64) (*ClaimResult, error) {
	result, err := s.claim(ctx, NormalizeCode(code), accountID)
	s.metrics.ObserveOperation(operationClaim, metrics.OutcomeFor(err))
	if err != nil {
		if s.logg != nil && metrics.OutcomeFor(err) == metrics.OutcomeError {
			s.logg.Error(s.logg.WithAccountID(ctx, accountID), "promo claim failed", err)
		}
		return nil, err
	}
	s.metrics.AddCoins(string(enums.LedgerEntryPromoReward), result.Reward)
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithAccountID(ctx, accountID), map[string]any{
			"code":      result.Code,
			"reward":    result.Reward,
			"uses_left": result.UsesLeft,
		})
		s.logg.Info(logCtx, "promo code claimed")
	}
	return result, nil
}

func (s *service) claim(ctx context.Context, code string, accountID int64) (*ClaimResult, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if accountID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}
	if promo == nil {
		return nil, notFound()
	}

	// Cheap rejection before opening a transaction. A prior claim wins over
	// exhaustion so the user sees why they cannot claim again.
	if promo.UsesLeft <= 0 {
		claimed, err := s.repo.ClaimExists(ctx, promo.ID, accountID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check claim record")
		}
		if claimed {
			return nil, alreadyClaimed()
		}
		return nil, expired()
	}

	result := &ClaimResult{Code: promo.Code, Reward: promo.Reward}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := s.accounts.EnsureAccountTx(ctx, tx, accountID); err != nil {
			return err
		}

		claimed, err := repo.ClaimExists(ctx, promo.ID, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check claim record")
		}
		if claimed {
			return alreadyClaimed()
		}

		consumed, err := repo.ConsumeUse(ctx, promo.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume promo use")
		}
		if !consumed {
			current, err := repo.FindByID(ctx, promo.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload promo code")
			}
			if current == nil {
				return notFound()
			}
			return expired()
		}

		if err := repo.InsertClaim(ctx, &models.PromoClaim{
			PromoCodeID: promo.ID,
			AccountID:   accountID,
			Reward:      promo.Reward,
		}); err != nil {
			if db.IsUniqueViolation(err, "") {
				return alreadyClaimed()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert claim record")
		}

		entry, err := s.ledger.Credit(ctx, tx, ledger.PostingInput{
			AccountID:   accountID,
			Type:        enums.LedgerEntryPromoReward,
			Amount:      promo.Reward,
			ReferenceID: promo.ID.String(),
			Note:        promo.Code,
		})
		if err != nil {
			return err
		}
		result.Balance = entry.BalanceAfter

		current, err := repo.FindByID(ctx, promo.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload promo code")
		}
		if current != nil {
			result.UsesLeft = current.UsesLeft
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPromoClaimed,
			AggregateType: enums.AggregatePromoCode,
			AggregateID:   promo.ID.String(),
			Actor:         outbox.AccountActor(accountID),
			Data: payloads.PromoClaimedEvent{
				PromoCodeID:  promo.ID,
				Code:         promo.Code,
				AccountID:    accountID,
				Reward:       promo.Reward,
				UsesLeft:     result.UsesLeft,
				BalanceAfter: entry.BalanceAfter,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit promo claimed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PromoCode, error) {
	code := NormalizeCode(input.Code)
	details := map[string]string{}
	if code == "" {
		details["code"] = "is required"
	} else if len(code) > maxCodeLength {
		details["code"] = fmt.Sprintf("must be at most %d characters", maxCodeLength)
	}
	if input.Reward <= 0 {
		details["reward"] = "must be positive"
	}
	if input.UsesLeft < 0 {
		details["usesLeft"] = "must be zero or greater"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid promo code").WithDetails(details)
	}

	row := &models.PromoCode{
		ID:       uuid.New(),
		Code:     code,
		Reward:   input.Reward,
		UsesLeft: input.UsesLeft,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrDuplicateCode, "promo code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promo code")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "code", code), "promo code created")
	}
	return row, nil
}

func (s *service) List(ctx context.Context) ([]models.PromoCode, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promo codes")
	}
	return rows, nil
}

func (s *service) ListClaims(ctx context.Context, accountID int64) ([]models.PromoClaim, error) {
	rows, err := s.repo.ListClaimsByAccount(ctx, accountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promo claims")
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "promo code id is required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promo code")
	}
	if !deleted {
		return notFound()
	}
	return nil
}

func notFound() error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrCodeNotFound, "promo code not found")
}

func expired() error {
	return pkgerrors.Wrap(pkgerrors.CodePromoExpired, ErrCodeExpired, "promo code expired")
}

func alreadyClaimed() error {
	return pkgerrors.Wrap(pkgerrors.CodeAlreadyClaimed, ErrAlreadyClaimed, "promo code already claimed")
}
