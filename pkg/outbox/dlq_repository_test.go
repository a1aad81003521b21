package outbox_test

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/pkg/db/dbtest"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	"github.com/earnpro/rewards-backend/pkg/outbox"
)

func TestDLQInsertClipsLongErrors(t *testing.T) {
	client := dbtest.New(t)
	repo := outbox.NewDLQRepository(client.DB())
	ctx := context.Background()

	long := strings.Repeat("é", 600)
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return repo.InsertTx(tx, deadLetter(enums.EventPromoClaimed, time.Now(), &long))
	}))

	rows, err := repo.ListByEventType(ctx, enums.EventPromoClaimed, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ErrorMessage)
	assert.LessOrEqual(t, len(*rows[0].ErrorMessage), 1024)
	assert.True(t, utf8.ValidString(*rows[0].ErrorMessage))
	assert.NotEqual(t, uuid.Nil, rows[0].ID)
}

func TestDLQListFiltersAndOrders(t *testing.T) {
	client := dbtest.New(t)
	repo := outbox.NewDLQRepository(client.DB())
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		for i, eventType := range []enums.OutboxEventType{enums.EventAdWatched, enums.EventPromoClaimed, enums.EventAdWatched} {
			if err := repo.InsertTx(tx, deadLetter(eventType, base.Add(time.Duration(i)*time.Minute), nil)); err != nil {
				return err
			}
		}
		return nil
	}))

	ads, err := repo.ListByEventType(ctx, enums.EventAdWatched, 10)
	require.NoError(t, err)
	require.Len(t, ads, 2)
	assert.True(t, ads[0].FailedAt.After(ads[1].FailedAt))

	all, err := repo.ListByEventType(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDLQInsertRequiresTransaction(t *testing.T) {
	repo := outbox.NewDLQRepository(nil)
	assert.Error(t, repo.InsertTx(nil, models.OutboxDLQ{}))
}

func deadLetter(eventType enums.OutboxEventType, failedAt time.Time, msg *string) models.OutboxDLQ {
	return models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateAccount,
		AggregateID:   "42",
		Payload:       `{}`,
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  msg,
		AttemptCount:  10,
		FailedAt:      failedAt,
	}
}
