package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/earnpro/rewards-backend/pkg/enums"
)

// LedgerEntry is an append-only record of a single balance mutation.
type LedgerEntry struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	AccountID    int64                 `gorm:"column:account_id;not null"`
	Type         enums.LedgerEntryType `gorm:"column:type;not null"`
	Amount       int64                 `gorm:"column:amount;not null"`
	BalanceAfter int64                 `gorm:"column:balance_after;not null"`
	ReferenceID  *string               `gorm:"column:reference_id"`
	Note         *string               `gorm:"column:note"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }
