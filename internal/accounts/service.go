package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/internal/ledger"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/metrics"
	"github.com/earnpro/rewards-backend/pkg/outbox"
	"github.com/earnpro/rewards-backend/pkg/outbox/payloads"
	"github.com/earnpro/rewards-backend/pkg/pagination"
)

var ErrAccountNotFound = ledger.ErrAccountNotFound

const maxLeaderboardLimit = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes account lifecycle and admin reporting.
type Service interface {
	EnsureAccount(ctx context.Context, profile Profile) (*models.Account, bool, error)
	// EnsureAccountTx creates the account inside tx when missing, without
	// touching an existing profile.
	EnsureAccountTx(ctx context.Context, tx *gorm.DB, telegramID int64) (bool, error)
	Get(ctx context.Context, telegramID int64) (*models.Account, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[models.Account], error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.Account, error)
	DashboardStats(ctx context.Context, now time.Time) (DashboardStats, error)
}

type ServiceParams struct {
	Repo         Repository
	Ledger       ledger.Service
	Tx           txRunner
	Outbox       outbox.Emitter
	Metrics      *metrics.LedgerMetrics
	Logger       *logger.Logger
	WelcomeBonus int64
}

type service struct {
	repo         Repository
	ledger       ledger.Service
	tx           txRunner
	outbox       outbox.Emitter
	metrics      *metrics.LedgerMetrics
	logg         *logger.Logger
	welcomeBonus int64
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("accounts repository required")
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
	if params.WelcomeBonus < 0 {
		return nil, fmt.Errorf("welcome bonus must not be negative")
	}
	return &service{
		repo:         params.Repo,
		ledger:       params.Ledger,
		tx:           params.Tx,
		outbox:       params.Outbox,
		metrics:      params.Metrics,
		logg:         params.Logger,
		welcomeBonus: params.WelcomeBonus,
	}, nil
}

func (s *service) EnsureAccount(ctx context.Context, profile Profile) (*models.Account, bool, error) {
	if profile.TelegramID <= 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "telegram id is required")
	}
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Username = strings.TrimPrefix(strings.TrimSpace(profile.Username), "@")

	var (
		account *models.Account
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		created, err = s.create(ctx, tx, profile)
		if err != nil {
			return err
		}
		if !created {
			if err := repo.UpdateProfile(ctx, profile.TelegramID, profile); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
			}
		}
		account, err = repo.FindByID(ctx, profile.TelegramID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload account")
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveOperation("ensure_account", metrics.OutcomeFor(err))
		return nil, false, err
	}
	s.metrics.ObserveOperation("ensure_account", metrics.OutcomeSuccess)
	if created {
		s.metrics.AddCoins(string(enums.LedgerEntryWelcomeBonus), s.welcomeBonus)
		if s.logg != nil {
			s.logg.Info(s.logg.WithAccountID(ctx, profile.TelegramID), "account created")
		}
	}
	return account, created, nil
}

func (s *service) EnsureAccountTx(ctx context.Context, tx *gorm.DB, telegramID int64) (bool, error) {
	if tx == nil {
		return false, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if telegramID <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "telegram id is required")
	}
	return s.create(ctx, tx, Profile{TelegramID: telegramID})
}

// create inserts the account and pays the welcome bonus exactly once.
func (s *service) create(ctx context.Context, tx *gorm.DB, profile Profile) (bool, error) {
	row := &models.Account{
		TelegramID: profile.TelegramID,
		Name:       profile.Name,
		Username:   profile.Username,
		AvatarURL:  profile.AvatarURL,
		IsPremium:  profile.IsPremium,
	}
	created, err := s.repo.WithTx(tx).InsertIfMissing(ctx, row)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	if !created {
		return false, nil
	}
	if s.welcomeBonus > 0 {
		if _, err := s.ledger.Credit(ctx, tx, ledger.PostingInput{
			AccountID: profile.TelegramID,
			Type:      enums.LedgerEntryWelcomeBonus,
			Amount:    s.welcomeBonus,
		}); err != nil {
			return false, err
		}
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAccountCreated,
		AggregateType: enums.AggregateAccount,
		AggregateID:   strconv.FormatInt(profile.TelegramID, 10),
		Actor:         outbox.AccountActor(profile.TelegramID),
		Data: payloads.AccountCreatedEvent{
			AccountID:    profile.TelegramID,
			Username:     profile.Username,
			WelcomeBonus: s.welcomeBonus,
		},
	}); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit account created")
	}
	return true, nil
}

func (s *service) Get(ctx context.Context, telegramID int64) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, telegramID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrAccountNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return account, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[models.Account], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err == nil && cursor != nil {
		_, err = strconv.ParseInt(cursor.ID, 10, 64)
	}
	if err != nil {
		return pagination.Page[models.Account]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return pagination.Page[models.Account]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accounts")
	}
	return pagination.Trim(rows, params.Limit, func(a models.Account) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: strconv.FormatInt(a.TelegramID, 10)}
	}), nil
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = pagination.MaxLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	rows, err := s.repo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load leaderboard")
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			TelegramID:    row.TelegramID,
			Name:          row.Name,
			Username:      row.Username,
			AvatarURL:     row.AvatarURL,
			TotalEarnings: row.TotalEarnings,
		})
	}
	return entries, nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.Account, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if input.AccountID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	var account *models.Account
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		posting := ledger.PostingInput{
			AccountID:   input.AccountID,
			Type:        enums.LedgerEntryAdminAdjustment,
			ReferenceID: input.AdminUsername,
			Note:        input.Reason,
		}
		var (
			entry *models.LedgerEntry
			err   error
		)
		if input.Delta > 0 {
			posting.Amount = input.Delta
			entry, err = s.ledger.Credit(ctx, tx, posting)
		} else {
			posting.Amount = -input.Delta
			entry, err = s.ledger.Debit(ctx, tx, posting)
		}
		if err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBalanceAdjusted,
			AggregateType: enums.AggregateAccount,
			AggregateID:   strconv.FormatInt(input.AccountID, 10),
			Actor:         outbox.AdminActor(input.AdminUsername),
			Data: payloads.BalanceAdjustedEvent{
				AccountID:    input.AccountID,
				Delta:        input.Delta,
				BalanceAfter: entry.BalanceAfter,
				Reason:       input.Reason,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit balance adjusted")
		}
		account, err = s.repo.WithTx(tx).FindByID(ctx, input.AccountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload account")
		}
		return nil
	})
	s.metrics.ObserveOperation("admin_adjust", metrics.OutcomeFor(err))
	if err != nil {
		return nil, err
	}
	s.metrics.AddCoins(string(enums.LedgerEntryAdminAdjustment), input.Delta)
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithAccountID(ctx, input.AccountID), map[string]any{
			"delta": input.Delta,
			"admin": input.AdminUsername,
		})
		s.logg.Info(logCtx, "balance adjusted")
	}
	return account, nil
}

// DashboardStats counts "today" from midnight UTC of now.
func (s *service) DashboardStats(ctx context.Context, now time.Time) (DashboardStats, error) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats, err := s.repo.Stats(ctx, midnight)
	if err != nil {
		return DashboardStats{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dashboard stats")
	}
	return stats, nil
}

// IsNotFound reports whether err marks a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
