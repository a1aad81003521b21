package promos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/pkg/db/models"
)

// Repository persists promo codes and the claims against them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error)
	ClaimExists(ctx context.Context, codeID uuid.UUID, accountID int64) (bool, error)
	ConsumeUse(ctx context.Context, codeID uuid.UUID) (bool, error)
	InsertClaim(ctx context.Context, claim *models.PromoClaim) error
	Create(ctx context.Context, code *models.PromoCode) error
	List(ctx context.Context) ([]models.PromoCode, error)
	ListClaimsByAccount(ctx context.Context, accountID int64) ([]models.PromoClaim, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
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

// FindByCode expects an already normalised code. It returns nil, nil when
// nothing matches.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var row models.PromoCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error) {
	var row models.PromoCode
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ClaimExists(ctx context.Context, codeID uuid.UUID, accountID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PromoClaim{}).
		Where("promo_code_id = ? AND account_id = ?", codeID, accountID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ConsumeUse decrements uses_left only while a use remains and reports
// whether a use was taken.
func (r *repository) ConsumeUse(ctx context.Context, codeID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ? AND uses_left > 0", codeID).
		Updates(map[string]any{
			"uses_left":  gorm.Expr("uses_left - 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) InsertClaim(ctx context.Context, claim *models.PromoClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

func (r *repository) Create(ctx context.Context, code *models.PromoCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) List(ctx context.Context) ([]models.PromoCode, error) {
	var rows []models.PromoCode
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListClaimsByAccount(ctx context.Context, accountID int64) ([]models.PromoClaim, error) {
	var rows []models.PromoClaim
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("claimed_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete retires the code. Claim rows are never removed.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PromoCode{})
	return res.RowsAffected > 0, res.Error
}
