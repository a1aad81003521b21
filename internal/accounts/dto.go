package accounts

import (
	"time"

	"github.com/earnpro/rewards-backend/pkg/db/models"
)

// Profile is the identity data the client forwards from Telegram.
type Profile struct {
	TelegramID int64
	Name       string
	Username   string
	AvatarURL  *string
	IsPremium  bool
}

// AccountDTO is the public shape of an account.
type AccountDTO struct {
	TelegramID     int64     `json:"telegramId"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	AvatarURL      *string   `json:"avatarUrl,omitempty"`
	IsPremium      bool      `json:"isPremium"`
	Balance        int64     `json:"balance"`
	TotalEarnings  int64     `json:"totalEarnings"`
	TodayAds       int       `json:"todayAds"`
	TotalAds       int       `json:"totalAds"`
	TotalReferrals int       `json:"totalReferrals"`
	CreatedAt      time.Time `json:"createdAt"`
}

func FromModel(account models.Account) AccountDTO {
	return AccountDTO{
		TelegramID:     account.TelegramID,
		Name:           account.Name,
		Username:       account.Username,
		AvatarURL:      account.AvatarURL,
		IsPremium:      account.IsPremium,
		Balance:        account.Balance,
		TotalEarnings:  account.TotalEarnings,
		TodayAds:       account.TodayAds,
		TotalAds:       account.TotalAds,
		TotalReferrals: account.TotalReferrals,
		CreatedAt:      account.CreatedAt,
	}
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	TelegramID    int64   `json:"telegramId"`
	Name          string  `json:"name"`
	Username      string  `json:"username"`
	AvatarURL     *string `json:"avatarUrl,omitempty"`
	TotalEarnings int64   `json:"totalEarnings"`
}

// DashboardStats feeds the admin overview.
type DashboardStats struct {
	TotalUsers          int64 `json:"totalUsers"`
	TotalCoinsEarned    int64 `json:"totalCoinsEarned"`
	ActiveUsersToday    int64 `json:"activeUsersToday"`
	TasksCompletedToday int64 `json:"tasksCompletedToday"`
	PendingWithdrawals  int64 `json:"pendingWithdrawals"`
}

// AdjustInput is an admin balance correction. Positive deltas credit.
type AdjustInput struct {
	AccountID     int64
	Delta         int64
	Reason        string
	AdminUsername string
}
