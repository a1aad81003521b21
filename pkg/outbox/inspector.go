package outbox

import (
	"context"
	"fmt"

	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
)

// Status is the operator view of the relay: how far behind it is and what
// it gave up on.
type Status struct {
	Pending     int64
	DeadLetters []models.OutboxDLQ
}

type Inspector struct {
	events *Repository
	dlq    *DLQRepository
}

func NewInspector(events *Repository, dlq *DLQRepository) *Inspector {
	return &Inspector{events: events, dlq: dlq}
}

func (i *Inspector) Status(ctx context.Context, eventType enums.OutboxEventType, limit int) (Status, error) {
	pending, err := i.events.CountPending(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("count pending: %w", err)
	}
	dead, err := i.dlq.ListByEventType(ctx, eventType, limit)
	if err != nil {
		return Status{}, fmt.Errorf("list dead letters: %w", err)
	}
	return Status{Pending: pending, DeadLetters: dead}, nil
}
