package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/earnpro/rewards-backend/pkg/db/models"
)

// Repository persists the single admin_settings row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context) (*models.AdminSettings, error)
	InsertIfMissing(ctx context.Context, row *models.AdminSettings) error
	Save(ctx context.Context, row *models.AdminSettings) error
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

// Find returns nil without error when the row has not been created yet.
func (r *repository) Find(ctx context.Context) (*models.AdminSettings, error) {
	var row models.AdminSettings
	err := r.db.WithContext(ctx).First(&row, "id = ?", models.SettingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) InsertIfMissing(ctx context.Context, row *models.AdminSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *repository) Save(ctx context.Context, row *models.AdminSettings) error {
	return r.db.WithContext(ctx).Save(row).Error
}
