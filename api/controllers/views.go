package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/earnpro/rewards-backend/internal/settings"
	"github.com/earnpro/rewards-backend/internal/withdrawals"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	"github.com/earnpro/rewards-backend/pkg/pagination"
)

type ledgerEntryView struct {
	ID           uuid.UUID             `json:"id"`
	Type         enums.LedgerEntryType `json:"type"`
	Amount       int64                 `json:"amount"`
	BalanceAfter int64                 `json:"balanceAfter"`
	ReferenceID  *string               `json:"referenceId,omitempty"`
	Note         *string               `json:"note,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

func ledgerEntryFromModel(entry models.LedgerEntry) ledgerEntryView {
	return ledgerEntryView{
		ID:           entry.ID,
		Type:         entry.Type,
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		ReferenceID:  entry.ReferenceID,
		Note:         entry.Note,
		CreatedAt:    entry.CreatedAt,
	}
}

type withdrawalView struct {
	ID            uuid.UUID              `json:"id"`
	AccountID     int64                  `json:"accountId"`
	UserName      string                 `json:"userName"`
	WalletAddress string                 `json:"walletAddress"`
	Amount        int64                  `json:"amount"`
	PayoutValue   string                 `json:"payoutValue"`
	Status        enums.WithdrawalStatus `json:"status"`
	CreatedAt     time.Time              `json:"createdAt"`
	ProcessedAt   *time.Time             `json:"processedAt,omitempty"`
	ProcessedBy   *string                `json:"processedBy,omitempty"`
}

func withdrawalFromModel(svc withdrawals.Service, req models.WithdrawalRequest) withdrawalView {
	return withdrawalView{
		ID:            req.ID,
		AccountID:     req.AccountID,
		UserName:      req.UserName,
		WalletAddress: req.WalletAddress,
		Amount:        req.Amount,
		PayoutValue:   svc.PayoutValue(req.Amount).StringFixed(2),
		Status:        req.Status,
		CreatedAt:     req.CreatedAt,
		ProcessedAt:   req.ProcessedAt,
		ProcessedBy:   req.ProcessedBy,
	}
}

type transitionView struct {
	Applied bool                   `json:"applied"`
	Status  enums.WithdrawalStatus `json:"status"`
	Request *withdrawalView        `json:"request,omitempty"`
}

type promoView struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Reward    int64     `json:"reward"`
	UsesLeft  int       `json:"usesLeft"`
	CreatedAt time.Time `json:"createdAt"`
}

func promoFromModel(promo models.PromoCode) promoView {
	return promoView{
		ID:        promo.ID,
		Code:      promo.Code,
		Reward:    promo.Reward,
		UsesLeft:  promo.UsesLeft,
		CreatedAt: promo.CreatedAt,
	}
}

type promoClaimView struct {
	PromoCodeID uuid.UUID `json:"promoCodeId"`
	Reward      int64     `json:"reward"`
	ClaimedAt   time.Time `json:"claimedAt"`
}

// adminSettingsView is the full editable settings row.
type adminSettingsView struct {
	DailyAdLimit         int       `json:"dailyAdLimit"`
	AdMinPoints          int64     `json:"adMinPoints"`
	AdMaxPoints          int64     `json:"adMaxPoints"`
	AdScriptID           string    `json:"adScriptId"`
	PremiumReferralBonus int64     `json:"premiumReferralBonus"`
	NormalReferralBonus  int64     `json:"normalReferralBonus"`
	ReferralMessage      string    `json:"referralMessage"`
	BotUsername          string    `json:"botUsername"`
	MinimumWithdrawal    int64     `json:"minimumWithdrawal"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func adminSettingsFromModel(row models.AdminSettings) adminSettingsView {
	return adminSettingsView{
		DailyAdLimit:         row.DailyAdLimit,
		AdMinPoints:          row.AdMinPoints,
		AdMaxPoints:          row.AdMaxPoints,
		AdScriptID:           row.AdScriptID,
		PremiumReferralBonus: row.PremiumReferralBonus,
		NormalReferralBonus:  row.NormalReferralBonus,
		ReferralMessage:      row.ReferralMessage,
		BotUsername:          row.BotUsername,
		MinimumWithdrawal:    row.MinimumWithdrawal,
		UpdatedAt:            row.UpdatedAt,
	}
}

// userSettingsView is what the mini-app needs to render earn and invite screens.
type userSettingsView struct {
	DailyAdLimit         int    `json:"dailyAdLimit"`
	AdScriptID           string `json:"adScriptId"`
	PremiumReferralBonus int64  `json:"premiumReferralBonus"`
	NormalReferralBonus  int64  `json:"normalReferralBonus"`
	ReferralMessage      string `json:"referralMessage"`
	BotUsername          string `json:"botUsername"`
	MinimumWithdrawal    int64  `json:"minimumWithdrawal"`
}

func userSettingsFromModel(row models.AdminSettings) userSettingsView {
	return userSettingsView{
		DailyAdLimit:         row.DailyAdLimit,
		AdScriptID:           row.AdScriptID,
		PremiumReferralBonus: row.PremiumReferralBonus,
		NormalReferralBonus:  row.NormalReferralBonus,
		ReferralMessage:      settings.RenderReferralMessage(row),
		BotUsername:          row.BotUsername,
		MinimumWithdrawal:    row.MinimumWithdrawal,
	}
}

func mapPage[T, V any](page pagination.Page[T], fn func(T) V) pagination.Page[V] {
	items := make([]V, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, fn(item))
	}
	return pagination.Page[V]{Items: items, NextCursor: page.NextCursor}
}
