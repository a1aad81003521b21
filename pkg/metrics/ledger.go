package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
)

const namespace = "earnpro"

// Outcome labels shared by ledger operations.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// LedgerMetrics counts reward and withdrawal operations and the coins they move.
type LedgerMetrics struct {
	operations *prometheus.CounterVec
	coins      *prometheus.CounterVec
}

// NewLedgerMetrics registers ledger metrics on reg. A nil registerer yields a
// no-op recorder so services can be built without metrics in tests.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Ledger operations by name and outcome.",
	}, []string{"operation", "outcome"})
	coins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_coins_total",
		Help:      "Absolute coins moved by ledger entry type.",
	}, []string{"type"})
	reg.MustRegister(operations, coins)
	return &LedgerMetrics{operations: operations, coins: coins}
}

// ObserveOperation counts one attempt of operation ending in outcome.
func (m *LedgerMetrics) ObserveOperation(operation, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// AddCoins records the magnitude of a posted ledger entry.
func (m *LedgerMetrics) AddCoins(entryType string, amount int64) {
	if m == nil || m.coins == nil {
		return
	}
	if amount < 0 {
		amount = -amount
	}
	m.coins.WithLabelValues(normalizeLabel(entryType)).Add(float64(amount))
}

// OutcomeFor maps an operation error to an outcome label. Non-retryable
// domain errors count as rejections.
func OutcomeFor(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if typed := pkgerrors.As(err); typed != nil && !pkgerrors.MetadataFor(typed.Code()).Retryable {
		return OutcomeRejected
	}
	return OutcomeError
}
