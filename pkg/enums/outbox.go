package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateAccount    OutboxAggregateType = "account"
	AggregatePromoCode  OutboxAggregateType = "promo_code"
	AggregateWithdrawal OutboxAggregateType = "withdrawal_request"
	AggregateTask       OutboxAggregateType = "task"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateAccount,
	AggregatePromoCode,
	AggregateWithdrawal,
	AggregateTask,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType is the routing key published with each ledger event.
type OutboxEventType string

const (
	EventAccountCreated      OutboxEventType = "account.created"
	EventBalanceAdjusted     OutboxEventType = "account.balance_adjusted"
	EventPromoClaimed        OutboxEventType = "promo.claimed"
	EventWithdrawalRequested OutboxEventType = "withdrawal.requested"
	EventWithdrawalCompleted OutboxEventType = "withdrawal.completed"
	EventWithdrawalRejected  OutboxEventType = "withdrawal.rejected"
	EventTaskCompleted       OutboxEventType = "task.completed"
	EventAdWatched           OutboxEventType = "ad.watched"
)

var validOutboxEventTypes = []OutboxEventType{
	EventAccountCreated,
	EventBalanceAdjusted,
	EventPromoClaimed,
	EventWithdrawalRequested,
	EventWithdrawalCompleted,
	EventWithdrawalRejected,
	EventTaskCompleted,
	EventAdWatched,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why the publisher gave up on a row.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
