package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/internal/ledger"
	"github.com/earnpro/rewards-backend/pkg/db"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/metrics"
	"github.com/earnpro/rewards-backend/pkg/outbox"
	"github.com/earnpro/rewards-backend/pkg/outbox/payloads"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrAlreadyCompleted  = errors.New("task already completed")
	ErrCompletionLimited = errors.New("task completion limit reached")
)

const (
	operationComplete   = "task_complete"
	defaultPartnerGroup = "partnership"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type accountEnsurer interface {
	EnsureAccountTx(ctx context.Context, tx *gorm.DB, telegramID int64) (bool, error)
}

// Service manages admin-defined tasks and pays users for completing them.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*TaskDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*TaskDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*TaskDTO, error)
	List(ctx context.Context, input ListInput) ([]TaskDTO, error)
	IncrementCompletion(ctx context.Context, id uuid.UUID) (*IncrementResult, error)
	Complete(ctx context.Context, taskID uuid.UUID, accountID int64) (*CompletionResult, error)
}

type ServiceParams struct {
	Repo     Repository
	Accounts accountEnsurer
	Ledger   ledger.Service
	Tx       txRunner
	Outbox   outbox.Emitter
	Metrics  *metrics.LedgerMetrics
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	accounts accountEnsurer
	ledger   ledger.Service
	tx       txRunner
	outbox   outbox.Emitter
	metrics  *metrics.LedgerMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("task repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:     params.Repo,
		accounts: params.Accounts,
		ledger:   params.Ledger,
		tx:       params.Tx,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*TaskDTO, error) {
	row := models.Task{
		ID:              uuid.New(),
		Kind:            input.Kind,
		Title:           strings.TrimSpace(input.Title),
		Points:          input.Points,
		Link:            trimmed(input.Link),
		Category:        strings.TrimSpace(input.Category),
		Platform:        input.Platform,
		ChannelID:       trimmed(input.ChannelID),
		CompletionLimit: input.CompletionLimit,
	}
	row.Category = categoryFor(row)
	if err := validateTask(row); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"task_id": row.ID.String(), "kind": row.Kind})
		s.logg.Info(logCtx, "task created")
	}
	dto := FromModel(row)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*TaskDTO, error) {
	row, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		row.Title = strings.TrimSpace(*input.Title)
	}
	if input.Points != nil {
		row.Points = *input.Points
	}
	if input.Link != nil {
		row.Link = trimmed(input.Link)
	}
	if input.Category != nil {
		row.Category = strings.TrimSpace(*input.Category)
	}
	if input.Platform != nil {
		row.Platform = *input.Platform
	}
	if input.ChannelID != nil {
		row.ChannelID = trimmed(input.ChannelID)
	}
	if input.CompletionLimit != nil {
		row.CompletionLimit = *input.CompletionLimit
	}
	row.Category = categoryFor(*row)
	if err := validateTask(*row); err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateDetails(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update task")
	}
	if !updated {
		return nil, notFound()
	}
	fresh, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*fresh)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "task id is required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete task")
	}
	if !deleted {
		return notFound()
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*TaskDTO, error) {
	row, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) ([]TaskDTO, error) {
	if input.Kind != "" && !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid task kind %q", input.Kind))
	}
	rows, err := s.repo.List(ctx, input.Kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}
	completed := map[uuid.UUID]struct{}{}
	if input.AccountID > 0 {
		completed, err = s.repo.CompletedTaskIDs(ctx, input.AccountID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list task completions")
		}
	}
	out := make([]TaskDTO, 0, len(rows))
	for _, row := range rows {
		dto := FromModel(row)
		_, dto.Completed = completed[row.ID]
		out = append(out, dto)
	}
	return out, nil
}

// IncrementCompletion takes one slot of the task's completion limit without
// paying anyone.
func (s *service) IncrementCompletion(ctx context.Context, id uuid.UUID) (*IncrementResult, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id is required")
	}
	accepted, err := s.repo.IncrementCompletion(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment task completion")
	}
	if !accepted {
		if _, err := s.load(ctx, s.repo, id); err != nil {
			return nil, err
		}
	}
	return &IncrementResult{Accepted: accepted}, nil
}

func (s *service) Complete(ctx context.Context, taskID uuid.UUID, accountID int64) (*CompletionResult, error) {
	result, err := s.complete(ctx, taskID, accountID)
	s.metrics.ObserveOperation(operationComplete, metrics.OutcomeFor(err))
	if err != nil {
		if s.logg != nil && metrics.OutcomeFor(err) == metrics.OutcomeError {
			s.logg.Error(s.logg.WithAccountID(ctx, accountID), "task completion failed", err)
		}
		return nil, err
	}
	s.metrics.AddCoins(string(enums.LedgerEntryTaskReward), result.Points)
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithAccountID(ctx, accountID), map[string]any{
			"task_id": taskID.String(),
			"points":  result.Points,
		})
		s.logg.Info(logCtx, "task completed")
	}
	return result, nil
}

func (s *service) complete(ctx context.Context, taskID uuid.UUID, accountID int64) (*CompletionResult, error) {
	if taskID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id is required")
	}
	if accountID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}

	result := &CompletionResult{TaskID: taskID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		task, err := s.load(ctx, repo, taskID)
		if err != nil {
			return err
		}
		if _, err := s.accounts.EnsureAccountTx(ctx, tx, accountID); err != nil {
			return err
		}

		if err := repo.InsertCompletion(ctx, &models.TaskCompletion{
			TaskID:    task.ID,
			AccountID: accountID,
			Points:    task.Points,
		}); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrAlreadyCompleted, "task already completed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert task completion")
		}

		accepted, err := repo.IncrementCompletion(ctx, task.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment task completion")
		}
		if !accepted {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrCompletionLimited, "task completion limit reached")
		}

		entry, err := s.ledger.Credit(ctx, tx, ledger.PostingInput{
			AccountID:   accountID,
			Type:        enums.LedgerEntryTaskReward,
			Amount:      task.Points,
			ReferenceID: task.ID.String(),
			Note:        task.Title,
		})
		if err != nil {
			return err
		}
		counted, err := s.load(ctx, repo, task.ID)
		if err != nil {
			return err
		}
		result.Points = task.Points
		result.Balance = entry.BalanceAfter
		result.Completions = counted.Completions

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTaskCompleted,
			AggregateType: enums.AggregateTask,
			AggregateID:   task.ID.String(),
			Actor:         outbox.AccountActor(accountID),
			Data: payloads.TaskCompletedEvent{
				TaskID:      task.ID,
				Kind:        task.Kind,
				AccountID:   accountID,
				Points:      task.Points,
				Completions: result.Completions,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit task completed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Task, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "task id is required")
	}
	row, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}
	if row == nil {
		return nil, notFound()
	}
	return row, nil
}

func validateTask(row models.Task) error {
	details := map[string]string{}
	if !row.Kind.IsValid() {
		details["kind"] = "must be main or partnership"
	}
	if row.Title == "" {
		details["title"] = "is required"
	}
	if row.Points <= 0 {
		details["points"] = "must be positive"
	}
	if row.CompletionLimit < 0 {
		details["limit"] = "must be zero or greater"
	}
	switch {
	case !row.Platform.IsValid():
		details["type"] = "must be telegram, website or youtube"
	case row.Kind.IsValid() && !row.Platform.AllowedFor(row.Kind):
		details["type"] = fmt.Sprintf("%s is not allowed for %s tasks", row.Platform, row.Kind)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid task").WithDetails(details)
	}
	return nil
}

// categoryFor pins main tasks to their platform; partnership tasks keep a
// free-form category.
func categoryFor(row models.Task) string {
	if row.Kind == enums.TaskKindMain {
		return string(row.Platform)
	}
	if row.Category == "" {
		return defaultPartnerGroup
	}
	return row.Category
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func notFound() error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrTaskNotFound, "task not found")
}
