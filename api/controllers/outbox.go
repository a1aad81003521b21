package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/earnpro/rewards-backend/api/responses"
	"github.com/earnpro/rewards-backend/api/validators"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/outbox"
)

type OutboxInspector interface {
	Status(ctx context.Context, eventType enums.OutboxEventType, limit int) (outbox.Status, error)
}

type deadLetterView struct {
	EventID      uuid.UUID                  `json:"eventId"`
	EventType    enums.OutboxEventType      `json:"eventType"`
	AggregateID  string                     `json:"aggregateId"`
	Reason       enums.OutboxDLQErrorReason `json:"reason"`
	Error        *string                    `json:"error,omitempty"`
	AttemptCount int                        `json:"attemptCount"`
	FailedAt     time.Time                  `json:"failedAt"`
}

type outboxStatusView struct {
	Pending     int64            `json:"pending"`
	DeadLetters []deadLetterView `json:"deadLetters"`
}

// AdminOutboxStatus reports the publish backlog and the newest dead letters,
// optionally filtered with ?eventType=.
func AdminOutboxStatus(inspector OutboxInspector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if inspector == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "outbox inspector unavailable"))
			return
		}

		eventType := enums.OutboxEventType(r.URL.Query().Get("eventType"))
		if eventType != "" && !eventType.IsValid() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown event type").
				WithDetails(map[string]any{"field": "eventType"}))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := inspector.Status(ctx, eventType, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read outbox status"))
			return
		}

		view := outboxStatusView{Pending: status.Pending, DeadLetters: make([]deadLetterView, 0, len(status.DeadLetters))}
		for _, row := range status.DeadLetters {
			view.DeadLetters = append(view.DeadLetters, deadLetterView{
				EventID:      row.EventID,
				EventType:    row.EventType,
				AggregateID:  row.AggregateID,
				Reason:       row.ErrorReason,
				Error:        row.ErrorMessage,
				AttemptCount: row.AttemptCount,
				FailedAt:     row.FailedAt,
			})
		}
		responses.WriteSuccess(w, view)
	}
}
