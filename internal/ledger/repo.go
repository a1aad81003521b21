package ledger

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/pagination"
)

// Repository manages account balances and the entries that explain them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	IncrementBalance(ctx context.Context, accountID, amount int64, countsAsEarning bool) (int64, error)
	DecrementBalance(ctx context.Context, accountID, amount int64) (int64, error)
	Balance(ctx context.Context, accountID int64) (int64, bool, error)
	Insert(ctx context.Context, entry *models.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID int64, limit int, cursor *pagination.Cursor) ([]models.LedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// IncrementBalance adds amount to the balance and, for earning entries, to
// total_earnings. It returns the number of rows touched.
func (r *repository) IncrementBalance(ctx context.Context, accountID, amount int64, countsAsEarning bool) (int64, error) {
	updates := map[string]any{
		"balance":    gorm.Expr("balance + ?", amount),
		"updated_at": time.Now().UTC(),
	}
	if countsAsEarning {
		updates["total_earnings"] = gorm.Expr("total_earnings + ?", amount)
	}
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("telegram_id = ?", accountID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// DecrementBalance subtracts amount only while the balance covers it.
func (r *repository) DecrementBalance(ctx context.Context, accountID, amount int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("telegram_id = ? AND balance >= ?", accountID, amount).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) Balance(ctx context.Context, accountID int64) (int64, bool, error) {
	var rows []int64
	if err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("telegram_id = ?", accountID).
		Limit(1).
		Pluck("balance", &rows).Error; err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0], true, nil
}

func (r *repository) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByAccount(ctx context.Context, accountID int64, limit int, cursor *pagination.Cursor) ([]models.LedgerEntry, error) {
	q := r.db.WithContext(ctx).
		Where("account_id = ?", accountID)
	if cursor != nil {
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var entries []models.LedgerEntry
	if err := q.Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
