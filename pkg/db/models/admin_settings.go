package models

import "time"

// SettingsRowID is the primary key of the single admin_settings row.
const SettingsRowID = 1

type AdminSettings struct {
	ID                   int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	DailyAdLimit         int       `gorm:"column:daily_ad_limit;not null"`
	AdMinPoints          int64     `gorm:"column:ad_min_points;not null"`
	AdMaxPoints          int64     `gorm:"column:ad_max_points;not null"`
	AdScriptID           string    `gorm:"column:ad_script_id;not null"`
	PremiumReferralBonus int64     `gorm:"column:premium_referral_bonus;not null"`
	NormalReferralBonus  int64     `gorm:"column:normal_referral_bonus;not null"`
	ReferralMessage      string    `gorm:"column:referral_message;not null"`
	BotUsername          string    `gorm:"column:bot_username;not null"`
	MinimumWithdrawal    int64     `gorm:"column:minimum_withdrawal;not null"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AdminSettings) TableName() string { return "admin_settings" }
