package ads

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/internal/ledger"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/metrics"
	"github.com/earnpro/rewards-backend/pkg/outbox"
	"github.com/earnpro/rewards-backend/pkg/outbox/payloads"
)

var ErrDailyLimitReached = errors.New("daily ad limit reached")

const operationWatch = "ad_watch"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type accountEnsurer interface {
	EnsureAccountTx(ctx context.Context, tx *gorm.DB, telegramID int64) (bool, error)
}

type settingsReader interface {
	GetTx(ctx context.Context, tx *gorm.DB) (*models.AdminSettings, error)
}

// PointsFunc returns a reward in [min, max].
type PointsFunc func(min, max int64) int64

// Service pays users for watched ads within the daily limit.
type Service interface {
	Watch(ctx context.Context, accountID int64) (*WatchResult, error)
	ResetDaily(ctx context.Context) (int64, error)
}

type WatchResult struct {
	Points     int64 `json:"points"`
	Balance    int64 `json:"balance"`
	TodayAds   int   `json:"todayAds"`
	DailyLimit int   `json:"dailyLimit"`
}

type ServiceParams struct {
	Repo     Repository
	Accounts accountEnsurer
	Ledger   ledger.Service
	Settings settingsReader
	Tx       txRunner
	Outbox   outbox.Emitter
	Metrics  *metrics.LedgerMetrics
	Logger   *logger.Logger
	Points   PointsFunc
}

type service struct {
	repo     Repository
	accounts accountEnsurer
	ledger   ledger.Service
	settings settingsReader
	tx       txRunner
	outbox   outbox.Emitter
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
	points   PointsFunc
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("ad repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	points := params.Points
	if points == nil {
		points = RandomPoints
	}
	return &service{
		repo:     params.Repo,
		accounts: params.Accounts,
		ledger:   params.Ledger,
		settings: params.Settings,
		tx:       params.Tx,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
		points:   points,
	}, nil
}

// RandomPoints draws uniformly from the inclusive range.
func RandomPoints(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + rand.Int64N(max-min+1)
}

func (s *service) Watch(ctx context.Context, accountID int64) (*WatchResult, error) {
	result, err := s.watch(ctx, accountID)
	s.metrics.ObserveOperation(operationWatch, metrics.OutcomeFor(err))
	if err != nil {
		if s.logg != nil && metrics.OutcomeFor(err) == metrics.OutcomeError {
			s.logg.Error(s.logg.WithAccountID(ctx, accountID), "ad reward failed", err)
		}
		return nil, err
	}
	s.metrics.AddCoins(string(enums.LedgerEntryAdReward), result.Points)
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithAccountID(ctx, accountID), map[string]any{
			"points":    result.Points,
			"today_ads": result.TodayAds,
		})
		s.logg.Info(logCtx, "ad reward credited")
	}
	return result, nil
}

func (s *service) watch(ctx context.Context, accountID int64) (*WatchResult, error) {
	if accountID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	result := &WatchResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := s.settings.GetTx(ctx, tx)
		if err != nil {
			return err
		}
		result.DailyLimit = current.DailyAdLimit

		if _, err := s.accounts.EnsureAccountTx(ctx, tx, accountID); err != nil {
			return err
		}

		counted, err := repo.RecordView(ctx, accountID, current.DailyAdLimit)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ad view")
		}
		if !counted {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrDailyLimitReached, "daily ad limit reached").
				WithDetails(map[string]int{"dailyLimit": current.DailyAdLimit})
		}

		result.Points = s.points(current.AdMinPoints, current.AdMaxPoints)
		if result.Points > 0 {
			if _, err := s.ledger.Credit(ctx, tx, ledger.PostingInput{
				AccountID: accountID,
				Type:      enums.LedgerEntryAdReward,
				Amount:    result.Points,
				Note:      current.AdScriptID,
			}); err != nil {
				return err
			}
		}

		account, err := repo.Account(ctx, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account counters")
		}
		result.Balance = account.Balance
		result.TodayAds = account.TodayAds

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAdWatched,
			AggregateType: enums.AggregateAccount,
			AggregateID:   fmt.Sprintf("%d", accountID),
			Actor:         outbox.AccountActor(accountID),
			Data: payloads.AdWatchedEvent{
				AccountID: accountID,
				Points:    result.Points,
				TodayAds:  result.TodayAds,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit ad watched")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResetDaily starts a new ad day for every account.
func (s *service) ResetDaily(ctx context.Context) (int64, error) {
	rows, err := s.repo.ResetDaily(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset daily ad counters")
	}
	return rows, nil
}
