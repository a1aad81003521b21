// Package registry maps outbox event types to their aggregate, topic and
// payload schema, and decodes stored rows before they are published.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	"github.com/earnpro/rewards-backend/pkg/outbox"
	"github.com/earnpro/rewards-backend/pkg/outbox/payloads"
)

type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

func describe[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType) EventDescriptor {
	return EventDescriptor{
		EventType:      eventType,
		AggregateType:  aggregate,
		PayloadFactory: func() any { return new(T) },
	}
}

// NewEventRegistry routes every ledger event to the one ledger topic;
// subscribers filter on the event_type attribute.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topic := strings.TrimSpace(cfg.LedgerTopic)
	if topic == "" {
		return nil, errors.New("ledger topic is required")
	}

	descriptors := []EventDescriptor{
		describe[payloads.AccountCreatedEvent](enums.EventAccountCreated, enums.AggregateAccount),
		describe[payloads.BalanceAdjustedEvent](enums.EventBalanceAdjusted, enums.AggregateAccount),
		describe[payloads.AdWatchedEvent](enums.EventAdWatched, enums.AggregateAccount),
		describe[payloads.PromoClaimedEvent](enums.EventPromoClaimed, enums.AggregatePromoCode),
		describe[payloads.WithdrawalRequestedEvent](enums.EventWithdrawalRequested, enums.AggregateWithdrawal),
		describe[payloads.WithdrawalProcessedEvent](enums.EventWithdrawalCompleted, enums.AggregateWithdrawal),
		describe[payloads.WithdrawalProcessedEvent](enums.EventWithdrawalRejected, enums.AggregateWithdrawal),
		describe[payloads.TaskCompletedEvent](enums.EventTaskCompleted, enums.AggregateTask),
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, desc := range descriptors {
		desc.Topic = topic
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every failure is non-retryable: the stored bytes will not change.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, err := r.lookup(event)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	envelope, err := decodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s: %w", event.EventType, err))
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

func (r *EventRegistry) lookup(event models.OutboxEvent) (EventDescriptor, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return desc, fmt.Errorf("unsupported event type %q", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return desc, fmt.Errorf("%s belongs to %s, row says %s", event.EventType, desc.AggregateType, event.AggregateType)
	case strings.TrimSpace(event.AggregateID) == "":
		return desc, fmt.Errorf("%s row has no aggregate_id", event.EventType)
	}
	return desc, nil
}

func decodeEnvelope(raw string) (outbox.PayloadEnvelope, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return envelope, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Version > outbox.EnvelopeVersion {
		return envelope, fmt.Errorf("envelope version %d is newer than supported %d", envelope.Version, outbox.EnvelopeVersion)
	}
	if envelope.EventID == "" {
		return envelope, errors.New("envelope has no eventId")
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return envelope, errors.New("envelope has no data")
	}
	return envelope, nil
}
