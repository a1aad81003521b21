package tasks

import (
	"time"

	"github.com/google/uuid"

	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
)

// TaskDTO is the API shape of a task. Completed is only meaningful when the
// list was requested for a specific account.
type TaskDTO struct {
	ID              uuid.UUID          `json:"id"`
	Kind            enums.TaskKind     `json:"kind"`
	Title           string             `json:"title"`
	Points          int64              `json:"points"`
	Link            *string            `json:"link,omitempty"`
	Category        string             `json:"category"`
	Platform        enums.TaskPlatform `json:"type"`
	ChannelID       *string            `json:"channelId,omitempty"`
	CompletionLimit int                `json:"limit"`
	Completions     int                `json:"completions"`
	Completed       bool               `json:"completed"`
	CreatedAt       time.Time          `json:"createdAt"`
}

func FromModel(row models.Task) TaskDTO {
	return TaskDTO{
		ID:              row.ID,
		Kind:            row.Kind,
		Title:           row.Title,
		Points:          row.Points,
		Link:            row.Link,
		Category:        row.Category,
		Platform:        row.Platform,
		ChannelID:       row.ChannelID,
		CompletionLimit: row.CompletionLimit,
		Completions:     row.Completions,
		CreatedAt:       row.CreatedAt,
	}
}

// CreateInput is the admin payload for a new task.
type CreateInput struct {
	Kind            enums.TaskKind     `json:"kind" validate:"required,oneof=main partnership"`
	Title           string             `json:"title" validate:"required,max=200"`
	Points          int64              `json:"points" validate:"required,gt=0"`
	Link            *string            `json:"link" validate:"omitempty,url"`
	Category        string             `json:"category" validate:"max=64"`
	Platform        enums.TaskPlatform `json:"type" validate:"required,oneof=telegram website youtube"`
	ChannelID       *string            `json:"channelId"`
	CompletionLimit int                `json:"limit" validate:"gte=0"`
}

// UpdateInput carries a partial update; nil fields keep their value.
type UpdateInput struct {
	Title           *string             `json:"title" validate:"omitempty,max=200"`
	Points          *int64              `json:"points" validate:"omitempty,gt=0"`
	Link            *string             `json:"link" validate:"omitempty,url"`
	Category        *string             `json:"category" validate:"omitempty,max=64"`
	Platform        *enums.TaskPlatform `json:"type" validate:"omitempty,oneof=telegram website youtube"`
	ChannelID       *string             `json:"channelId"`
	CompletionLimit *int                `json:"limit" validate:"omitempty,gte=0"`
}

// ListInput filters the task list. A positive AccountID fills Completed.
type ListInput struct {
	Kind      enums.TaskKind
	AccountID int64
}

type IncrementResult struct {
	Accepted bool `json:"accepted"`
}

type CompletionResult struct {
	TaskID      uuid.UUID `json:"taskId"`
	Points      int64     `json:"points"`
	Balance     int64     `json:"balance"`
	Completions int       `json:"completions"`
}
