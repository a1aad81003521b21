package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsCountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.Observe("promo.claimed", PublishOutcomePublished)
	m.Observe("promo.claimed", PublishOutcomePublished)
	m.Observe("promo.claimed", PublishOutcomeDLQ)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "earnpro_outbox_events_total", "outcome", PublishOutcomePublished); err != nil {
		t.Fatalf("fetch published: %v", err)
	} else if got != 2 {
		t.Fatalf("expected published=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "earnpro_outbox_events_total", "outcome", PublishOutcomeDLQ); err != nil {
		t.Fatalf("fetch dlq: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dlq=1, got %f", got)
	}
}

func TestNilOutboxMetricsIsNoOp(t *testing.T) {
	var m *OutboxMetrics
	m.Observe("promo.claimed", PublishOutcomeRetry)
	NewOutboxMetrics(nil).Observe("promo.claimed", PublishOutcomeRetry)
}
