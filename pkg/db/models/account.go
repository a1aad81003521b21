package models

import "time"

// Account is an end user keyed by their Telegram id. Rows are never deleted.
type Account struct {
	TelegramID     int64     `gorm:"column:telegram_id;primaryKey;autoIncrement:false"`
	Name           string    `gorm:"column:name;not null;default:''"`
	Username       string    `gorm:"column:username;not null;default:''"`
	AvatarURL      *string   `gorm:"column:avatar_url"`
	IsPremium      bool      `gorm:"column:is_premium;not null;default:false"`
	Balance        int64     `gorm:"column:balance;not null;default:0"`
	TotalEarnings  int64     `gorm:"column:total_earnings;not null;default:0"`
	TodayAds       int       `gorm:"column:today_ads;not null;default:0"`
	TotalAds       int       `gorm:"column:total_ads;not null;default:0"`
	TotalReferrals int       `gorm:"column:total_referrals;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string { return "accounts" }
