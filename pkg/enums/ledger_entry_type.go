package enums

import "fmt"

// LedgerEntryType classifies a balance mutation recorded in ledger_entries.
type LedgerEntryType string

const (
	LedgerEntryWelcomeBonus      LedgerEntryType = "welcome_bonus"
	LedgerEntryTaskReward        LedgerEntryType = "task_reward"
	LedgerEntryAdReward          LedgerEntryType = "ad_reward"
	LedgerEntryPromoReward       LedgerEntryType = "promo_reward"
	LedgerEntryWithdrawalReserve LedgerEntryType = "withdrawal_reserve"
	LedgerEntryWithdrawalRefund  LedgerEntryType = "withdrawal_refund"
	LedgerEntryAdminAdjustment   LedgerEntryType = "admin_adjustment"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryWelcomeBonus,
	LedgerEntryTaskReward,
	LedgerEntryAdReward,
	LedgerEntryPromoReward,
	LedgerEntryWithdrawalReserve,
	LedgerEntryWithdrawalRefund,
	LedgerEntryAdminAdjustment,
}

// IsValid reports whether the value matches the ledger_entries type check.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// CountsAsEarning reports whether a credit of this type also raises total_earnings.
func (t LedgerEntryType) CountsAsEarning() bool {
	switch t {
	case LedgerEntryWelcomeBonus, LedgerEntryTaskReward, LedgerEntryAdReward, LedgerEntryPromoReward:
		return true
	default:
		return false
	}
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
