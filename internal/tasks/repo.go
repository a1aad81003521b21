package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
)

// Repository persists tasks and the per-account completion records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, task *models.Task) error
	UpdateDetails(ctx context.Context, task *models.Task) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, kind enums.TaskKind) ([]models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	IncrementCompletion(ctx context.Context, id uuid.UUID) (bool, error)
	InsertCompletion(ctx context.Context, completion *models.TaskCompletion) error
	CompletedTaskIDs(ctx context.Context, accountID int64) (map[uuid.UUID]struct{}, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// UpdateDetails writes the admin-editable columns only. completions belongs
// to IncrementCompletion and is never written from a loaded copy.
func (r *repository) UpdateDetails(ctx context.Context, task *models.Task) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"title":            task.Title,
			"points":           task.Points,
			"link":             task.Link,
			"category":         task.Category,
			"platform":         task.Platform,
			"channel_id":       task.ChannelID,
			"completion_limit": task.CompletionLimit,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindByID returns nil, nil when the task does not exist.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var row models.Task
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) List(ctx context.Context, kind enums.TaskKind) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	var rows []models.Task
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete retires the task. Completion rows are kept.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	return res.RowsAffected > 0, res.Error
}

// IncrementCompletion bumps the counter only while it is below the limit and
// reports whether the bump happened.
func (r *repository) IncrementCompletion(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND completions < completion_limit", id).
		Updates(map[string]any{
			"completions": gorm.Expr("completions + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) InsertCompletion(ctx context.Context, completion *models.TaskCompletion) error {
	return r.db.WithContext(ctx).Create(completion).Error
}

func (r *repository) CompletedTaskIDs(ctx context.Context, accountID int64) (map[uuid.UUID]struct{}, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.TaskCompletion{}).
		Where("account_id = ?", accountID).
		Pluck("task_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}
