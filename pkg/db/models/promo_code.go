package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromoCode is a redeemable code with a bounded number of uses. Deleting a
// code only stamps DeletedAt: its claims stay behind for the ledger and the
// code string stays reserved.
type PromoCode struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Code      string         `gorm:"column:code;not null"`
	Reward    int64          `gorm:"column:reward;not null"`
	UsesLeft  int            `gorm:"column:uses_left;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (PromoCode) TableName() string { return "promo_codes" }

// PromoClaim marks that an account redeemed a code. Insert-only.
type PromoClaim struct {
	PromoCodeID uuid.UUID `gorm:"column:promo_code_id;type:uuid;primaryKey"`
	AccountID   int64     `gorm:"column:account_id;primaryKey;autoIncrement:false"`
	Reward      int64     `gorm:"column:reward;not null"`
	ClaimedAt   time.Time `gorm:"column:claimed_at;autoCreateTime"`
}

func (PromoClaim) TableName() string { return "promo_claims" }
