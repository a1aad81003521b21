package ads

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/pkg/db/models"
)

// Repository owns the per-account ad counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	RecordView(ctx context.Context, accountID int64, dailyLimit int) (bool, error)
	Account(ctx context.Context, accountID int64) (*models.Account, error)
	ResetDaily(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// RecordView counts one ad while the account is still under dailyLimit and
// reports whether the view was counted.
func (r *repository) RecordView(ctx context.Context, accountID int64, dailyLimit int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("telegram_id = ? AND today_ads < ?", accountID, dailyLimit).
		Updates(map[string]any{
			"today_ads":  gorm.Expr("today_ads + 1"),
			"total_ads":  gorm.Expr("total_ads + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Account(ctx context.Context, accountID int64) (*models.Account, error) {
	var row models.Account
	if err := r.db.WithContext(ctx).First(&row, "telegram_id = ?", accountID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ResetDaily zeroes today_ads for every account that watched something.
func (r *repository) ResetDaily(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("today_ads > 0").
		Updates(map[string]any{
			"today_ads":  0,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
