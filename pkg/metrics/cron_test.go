package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "test-job"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)
	metrics.AddAffected(job, 3)
	metrics.AddAffected(job, 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "earnpro_cron_job_success_total", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "earnpro_cron_job_failure_total", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "earnpro_cron_job_rows_affected_total", "job", job); err != nil {
		t.Fatalf("fetch affected: %v", err)
	} else if got != 3 {
		t.Fatalf("expected affected=3, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "earnpro_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var cron *CronJobMetrics
	cron.IncSuccess("job")
	cron.ObserveDuration("job", time.Second)

	ledger := NewLedgerMetrics(nil)
	ledger.ObserveOperation("claim", OutcomeSuccess)
	ledger.AddCoins("promo_reward", 10)
}

func TestLedgerMetricsCountsOperationsAndCoins(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)
	m.ObserveOperation("claim", OutcomeSuccess)
	m.ObserveOperation("claim", OutcomeSuccess)
	m.ObserveOperation("claim", OutcomeRejected)
	m.AddCoins("withdrawal_reserve", -400)
	m.AddCoins("withdrawal_reserve", 100)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	ops := findMetricFamily(mfs, "earnpro_ledger_operations_total")
	if ops == nil {
		t.Fatal("operations metric missing")
	}
	var successes float64
	for _, metric := range ops.GetMetric() {
		if matchesLabel(metric.GetLabel(), "outcome", OutcomeSuccess) {
			successes = metric.GetCounter().GetValue()
		}
	}
	if successes != 2 {
		t.Fatalf("expected 2 successful claims, got %f", successes)
	}

	if got, err := fetchCounterValue(mfs, "earnpro_ledger_coins_total", "type", "withdrawal_reserve"); err != nil {
		t.Fatalf("fetch coins: %v", err)
	} else if got != 500 {
		t.Fatalf("expected 500 coins, got %f", got)
	}
}

func TestOutcomeFor(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"nil":        {nil, OutcomeSuccess},
		"domain":     {pkgerrors.New(pkgerrors.CodeAlreadyClaimed, "already claimed"), OutcomeRejected},
		"dependency": {pkgerrors.New(pkgerrors.CodeDependency, "db down"), OutcomeError},
		"untyped":    {fmt.Errorf("boom"), OutcomeError},
	}
	for name, tc := range cases {
		if got := OutcomeFor(tc.err); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", name, tc.want, got)
		}
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
