package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	"github.com/earnpro/rewards-backend/pkg/pagination"
)

// Repository persists accounts and answers the aggregate questions the
// admin dashboard asks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, telegramID int64) (*models.Account, error)
	InsertIfMissing(ctx context.Context, account *models.Account) (bool, error)
	UpdateProfile(ctx context.Context, telegramID int64, profile Profile) error
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Account, error)
	Leaderboard(ctx context.Context, limit int) ([]models.Account, error)
	Stats(ctx context.Context, since time.Time) (DashboardStats, error)
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

// FindByID returns gorm.ErrRecordNotFound when the account does not exist.
func (r *repository) FindByID(ctx context.Context, telegramID int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "telegram_id = ?", telegramID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// InsertIfMissing reports true when a new row was written.
func (r *repository) InsertIfMissing(ctx context.Context, account *models.Account) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "telegram_id"}}, DoNothing: true}).
		Create(account)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateProfile(ctx context.Context, telegramID int64, profile Profile) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]any{
			"name":       profile.Name,
			"username":   profile.Username,
			"avatar_url": profile.AvatarURL,
			"is_premium": profile.IsPremium,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Account, error) {
	q := r.db.WithContext(ctx)
	if cursor != nil {
		lastID, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cursor id: %w", err)
		}
		q = q.Where("(created_at < ? OR (created_at = ? AND telegram_id < ?))", cursor.CreatedAt, cursor.CreatedAt, lastID)
	}
	var rows []models.Account
	if err := q.Order("created_at DESC").
		Order("telegram_id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Leaderboard(ctx context.Context, limit int) ([]models.Account, error) {
	var rows []models.Account
	if err := r.db.WithContext(ctx).
		Order("total_earnings DESC").
		Order("telegram_id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Stats(ctx context.Context, since time.Time) (DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	var totals struct {
		Users  int64
		Earned *int64
	}
	if err := db.Model(&models.Account{}).
		Select("COUNT(*) AS users, SUM(total_earnings) AS earned").
		Scan(&totals).Error; err != nil {
		return stats, err
	}
	stats.TotalUsers = totals.Users
	if totals.Earned != nil {
		stats.TotalCoinsEarned = *totals.Earned
	}

	if err := db.Model(&models.LedgerEntry{}).
		Where("created_at >= ?", since).
		Distinct("account_id").
		Count(&stats.ActiveUsersToday).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.TaskCompletion{}).
		Where("completed_at >= ?", since).
		Count(&stats.TasksCompletedToday).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.WithdrawalRequest{}).
		Where("status = ?", enums.WithdrawalStatusPending).
		Count(&stats.PendingWithdrawals).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
