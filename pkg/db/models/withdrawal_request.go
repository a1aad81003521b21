package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/earnpro/rewards-backend/pkg/enums"
)

// WithdrawalRequest moves coins out of an account pending manual payout.
type WithdrawalRequest struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	AccountID     int64                  `gorm:"column:account_id;not null"`
	UserName      string                 `gorm:"column:user_name;not null;default:''"`
	WalletAddress string                 `gorm:"column:wallet_address;not null"`
	Amount        int64                  `gorm:"column:amount;not null"`
	Status        enums.WithdrawalStatus `gorm:"column:status;not null;default:pending"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	ProcessedAt   *time.Time             `gorm:"column:processed_at"`
	ProcessedBy   *string                `gorm:"column:processed_by"`
}

func (WithdrawalRequest) TableName() string { return "withdrawal_requests" }
