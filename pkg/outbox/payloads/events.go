// Package payloads holds the data section of every ledger event published
// through the outbox.
package payloads

import (
	"github.com/google/uuid"

	"github.com/earnpro/rewards-backend/pkg/enums"
)

type AccountCreatedEvent struct {
	AccountID    int64  `json:"account_id"`
	Username     string `json:"username,omitempty"`
	WelcomeBonus int64  `json:"welcome_bonus"`
}

type BalanceAdjustedEvent struct {
	AccountID    int64  `json:"account_id"`
	Delta        int64  `json:"delta"`
	BalanceAfter int64  `json:"balance_after"`
	Reason       string `json:"reason"`
}

type PromoClaimedEvent struct {
	PromoCodeID  uuid.UUID `json:"promo_code_id"`
	Code         string    `json:"code"`
	AccountID    int64     `json:"account_id"`
	Reward       int64     `json:"reward"`
	UsesLeft     int       `json:"uses_left"`
	BalanceAfter int64     `json:"balance_after"`
}

type WithdrawalRequestedEvent struct {
	WithdrawalID  uuid.UUID `json:"withdrawal_id"`
	AccountID     int64     `json:"account_id"`
	WalletAddress string    `json:"wallet_address"`
	Amount        int64     `json:"amount"`
	PayoutValue   string    `json:"payout_value"`
	Currency      string    `json:"currency"`
}

// WithdrawalProcessedEvent covers both completed and rejected outcomes.
type WithdrawalProcessedEvent struct {
	WithdrawalID uuid.UUID              `json:"withdrawal_id"`
	AccountID    int64                  `json:"account_id"`
	Amount       int64                  `json:"amount"`
	Status       enums.WithdrawalStatus `json:"status"`
	ProcessedBy  string                 `json:"processed_by"`
	Refunded     bool                   `json:"refunded"`
}

type TaskCompletedEvent struct {
	TaskID      uuid.UUID      `json:"task_id"`
	Kind        enums.TaskKind `json:"kind"`
	AccountID   int64          `json:"account_id"`
	Points      int64          `json:"points"`
	Completions int            `json:"completions"`
}

type AdWatchedEvent struct {
	AccountID int64 `json:"account_id"`
	Points    int64 `json:"points"`
	TodayAds  int   `json:"today_ads"`
}
