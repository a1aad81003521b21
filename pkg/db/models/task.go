package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/pkg/enums"
)

// Task is an admin-defined action that pays points a bounded number of times.
type Task struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Kind            enums.TaskKind     `gorm:"column:kind;not null"`
	Title           string             `gorm:"column:title;not null"`
	Points          int64              `gorm:"column:points;not null"`
	Link            *string            `gorm:"column:link"`
	Category        string             `gorm:"column:category;not null"`
	Platform        enums.TaskPlatform `gorm:"column:platform;not null"`
	ChannelID       *string            `gorm:"column:channel_id"`
	CompletionLimit int                `gorm:"column:completion_limit;not null"`
	Completions     int                `gorm:"column:completions;not null;default:0"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt     `gorm:"column:deleted_at"`
}

func (Task) TableName() string { return "tasks" }

// TaskCompletion records that an account was paid for a task.
type TaskCompletion struct {
	TaskID      uuid.UUID `gorm:"column:task_id;type:uuid;primaryKey"`
	AccountID   int64     `gorm:"column:account_id;primaryKey;autoIncrement:false"`
	Points      int64     `gorm:"column:points;not null"`
	CompletedAt time.Time `gorm:"column:completed_at;autoCreateTime"`
}

func (TaskCompletion) TableName() string { return "task_completions" }
