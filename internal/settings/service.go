package settings

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/pkg/db/models"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

const (
	DefaultDailyAdLimit         = 100
	DefaultAdMinPoints          = 5
	DefaultAdMaxPoints          = 20
	DefaultPremiumReferralBonus = 500
	DefaultNormalReferralBonus  = 100
	DefaultBotUsername          = "YourBot"
	DefaultMinimumWithdrawal    = 1000
	DefaultReferralMessage      = "Invite friends! You'll get **{premiumBonus}** coins for each Premium user and **{normalBonus}** for each normal user."
)

// Defaults returns the settings used until an admin saves their own.
func Defaults() models.AdminSettings {
	return models.AdminSettings{
		ID:                   models.SettingsRowID,
		DailyAdLimit:         DefaultDailyAdLimit,
		AdMinPoints:          DefaultAdMinPoints,
		AdMaxPoints:          DefaultAdMaxPoints,
		PremiumReferralBonus: DefaultPremiumReferralBonus,
		NormalReferralBonus:  DefaultNormalReferralBonus,
		ReferralMessage:      DefaultReferralMessage,
		BotUsername:          DefaultBotUsername,
		MinimumWithdrawal:    DefaultMinimumWithdrawal,
	}
}

// Service reads and updates admin-editable economics.
type Service interface {
	Get(ctx context.Context) (*models.AdminSettings, error)
	// GetTx reads the settings through tx so callers inside a transaction
	// never wait on a second connection.
	GetTx(ctx context.Context, tx *gorm.DB) (*models.AdminSettings, error)
	Update(ctx context.Context, input UpdateInput) (*models.AdminSettings, error)
}

// UpdateInput carries a partial update; nil fields keep their value.
type UpdateInput struct {
	DailyAdLimit         *int    `json:"dailyAdLimit" validate:"omitempty,min=0"`
	AdMinPoints          *int64  `json:"adMinPoints" validate:"omitempty,min=0"`
	AdMaxPoints          *int64  `json:"adMaxPoints" validate:"omitempty,min=0"`
	AdScriptID           *string `json:"adScriptId"`
	PremiumReferralBonus *int64  `json:"premiumReferralBonus" validate:"omitempty,min=0"`
	NormalReferralBonus  *int64  `json:"normalReferralBonus" validate:"omitempty,min=0"`
	ReferralMessage      *string `json:"referralMessage"`
	BotUsername          *string `json:"botUsername"`
	MinimumWithdrawal    *int64  `json:"minimumWithdrawal" validate:"omitempty,min=1"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Get(ctx context.Context) (*models.AdminSettings, error) {
	return s.load(ctx, s.repo)
}

func (s *service) GetTx(ctx context.Context, tx *gorm.DB) (*models.AdminSettings, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	return s.load(ctx, s.repo.WithTx(tx))
}

func (s *service) load(ctx context.Context, repo Repository) (*models.AdminSettings, error) {
	row, err := repo.Find(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	if row != nil {
		return row, nil
	}
	defaults := Defaults()
	if err := repo.InsertIfMissing(ctx, &defaults); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create default settings")
	}
	row, err = repo.Find(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload settings")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings row missing after insert")
	}
	return row, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.AdminSettings, error) {
	var updated *models.AdminSettings
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.load(ctx, repo)
		if err != nil {
			return err
		}
		next := apply(*current, input)
		if err := Validate(next); err != nil {
			return err
		}
		if err := repo.Save(ctx, &next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save settings")
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"daily_ad_limit":     updated.DailyAdLimit,
			"minimum_withdrawal": updated.MinimumWithdrawal,
		}), "admin settings updated")
	}
	return updated, nil
}

func apply(row models.AdminSettings, input UpdateInput) models.AdminSettings {
	if input.DailyAdLimit != nil {
		row.DailyAdLimit = *input.DailyAdLimit
	}
	if input.AdMinPoints != nil {
		row.AdMinPoints = *input.AdMinPoints
	}
	if input.AdMaxPoints != nil {
		row.AdMaxPoints = *input.AdMaxPoints
	}
	if input.AdScriptID != nil {
		row.AdScriptID = strings.TrimSpace(*input.AdScriptID)
	}
	if input.PremiumReferralBonus != nil {
		row.PremiumReferralBonus = *input.PremiumReferralBonus
	}
	if input.NormalReferralBonus != nil {
		row.NormalReferralBonus = *input.NormalReferralBonus
	}
	if input.ReferralMessage != nil {
		row.ReferralMessage = *input.ReferralMessage
	}
	if input.BotUsername != nil {
		row.BotUsername = strings.TrimPrefix(strings.TrimSpace(*input.BotUsername), "@")
	}
	if input.MinimumWithdrawal != nil {
		row.MinimumWithdrawal = *input.MinimumWithdrawal
	}
	return row
}

// Validate checks the cross-field rules the schema also enforces.
func Validate(row models.AdminSettings) error {
	details := map[string]string{}
	if row.DailyAdLimit < 0 {
		details["dailyAdLimit"] = "must be zero or greater"
	}
	if row.AdMinPoints < 0 {
		details["adMinPoints"] = "must be zero or greater"
	}
	if row.AdMaxPoints < row.AdMinPoints {
		details["adMaxPoints"] = "must be greater than or equal to adMinPoints"
	}
	if row.PremiumReferralBonus < 0 {
		details["premiumReferralBonus"] = "must be zero or greater"
	}
	if row.NormalReferralBonus < 0 {
		details["normalReferralBonus"] = "must be zero or greater"
	}
	if row.MinimumWithdrawal <= 0 {
		details["minimumWithdrawal"] = "must be positive"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid settings").WithDetails(details)
	}
	return nil
}

// RenderReferralMessage substitutes the bonus placeholders in the message template.
func RenderReferralMessage(row models.AdminSettings) string {
	replacer := strings.NewReplacer(
		"{premiumBonus}", fmt.Sprintf("%d", row.PremiumReferralBonus),
		"{normalBonus}", fmt.Sprintf("%d", row.NormalReferralBonus),
	)
	return replacer.Replace(row.ReferralMessage)
}
