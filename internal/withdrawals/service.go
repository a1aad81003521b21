package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/internal/ledger"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/metrics"
	"github.com/earnpro/rewards-backend/pkg/outbox"
	"github.com/earnpro/rewards-backend/pkg/outbox/payloads"
	"github.com/earnpro/rewards-backend/pkg/pagination"
)

var (
	ErrInvalidAmount       = errors.New("invalid withdrawal amount")
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
	ErrRequestNotFound     = errors.New("withdrawal request not found")
)

const maxWalletAddressLength = 256

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type settingsReader interface {
	Get(ctx context.Context) (*models.AdminSettings, error)
}

// Service reserves coins for payout and records the admin decision.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.WithdrawalRequest, error)
	Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.WithdrawalRequest], error)
	PayoutValue(amount int64) decimal.Decimal
}

type CreateInput struct {
	AccountID     int64
	UserName      string
	WalletAddress string
	Amount        int64
}

type TransitionInput struct {
	RequestID     uuid.UUID
	Outcome       enums.WithdrawalStatus
	AdminUsername string
}

// TransitionResult reports whether this call changed the request. Applied is
// false when the request had already left pending; Status is then the
// status it already holds.
type TransitionResult struct {
	Applied bool                      `json:"applied"`
	Status  enums.WithdrawalStatus    `json:"status"`
	Request *models.WithdrawalRequest `json:"-"`
}

type ServiceParams struct {
	Repo           Repository
	Ledger         ledger.Service
	Settings       settingsReader
	Tx             txRunner
	Outbox         outbox.Emitter
	Metrics        *metrics.LedgerMetrics
	Logger         *logger.Logger
	CoinsPerPayout int64
	Currency       string
}

type service struct {
	repo           Repository
	ledger         ledger.Service
	settings       settingsReader
	tx             txRunner
	outbox         outbox.Emitter
	metrics        *metrics.LedgerMetrics
	logg           *logger.Logger
	coinsPerPayout decimal.Decimal
	currency       string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("withdrawal repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.CoinsPerPayout <= 0 {
		return nil, fmt.Errorf("coins per payout unit must be positive")
	}
	return &service{
		repo:           params.Repo,
		ledger:         params.Ledger,
		settings:       params.Settings,
		tx:             params.Tx,
		outbox:         params.Outbox,
		metrics:        params.Metrics,
		logg:           params.Logger,
		coinsPerPayout: decimal.NewFromInt(params.CoinsPerPayout),
		currency:       strings.ToUpper(strings.TrimSpace(params.Currency)),
	}, nil
}

// PayoutValue converts coins to the payout currency, rounded to cents.
func (s *service) PayoutValue(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(s.coinsPerPayout).Round(2)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.WithdrawalRequest, error) {
	request, err := s.create(ctx, input)
	s.metrics.ObserveOperation("withdrawal_create", metrics.OutcomeFor(err))
	if err != nil {
		return nil, err
	}
	s.metrics.AddCoins(string(enums.LedgerEntryWithdrawalReserve), request.Amount)
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithAccountID(ctx, input.AccountID), map[string]any{
			"withdrawal_id": request.ID.String(),
			"amount":        request.Amount,
		})
		s.logg.Info(logCtx, "withdrawal requested")
	}
	return request, nil
}

func (s *service) create(ctx context.Context, input CreateInput) (*models.WithdrawalRequest, error) {
	if input.AccountID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if input.Amount <= 0 {
		return nil, invalidAmount("amount must be positive", 0)
	}
	address := strings.TrimSpace(input.WalletAddress)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet address is required").
			WithDetails(map[string]string{"walletAddress": "is required"})
	}
	if len(address) > maxWalletAddressLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet address too long").
			WithDetails(map[string]string{"walletAddress": fmt.Sprintf("must be at most %d characters", maxWalletAddressLength)})
	}

	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if input.Amount < current.MinimumWithdrawal {
		return nil, invalidAmount(fmt.Sprintf("amount is below the minimum withdrawal of %d", current.MinimumWithdrawal), current.MinimumWithdrawal)
	}

	request := &models.WithdrawalRequest{
		ID:            uuid.New(),
		AccountID:     input.AccountID,
		UserName:      strings.TrimSpace(input.UserName),
		WalletAddress: address,
		Amount:        input.Amount,
		Status:        enums.WithdrawalStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.ledger.Debit(ctx, tx, ledger.PostingInput{
			AccountID:   input.AccountID,
			Type:        enums.LedgerEntryWithdrawalReserve,
			Amount:      input.Amount,
			ReferenceID: request.ID.String(),
		}); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal request")
		}
		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWithdrawalRequested,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID.String(),
			Actor:         outbox.AccountActor(input.AccountID),
			Data: payloads.WithdrawalRequestedEvent{
				WithdrawalID:  request.ID,
				AccountID:     input.AccountID,
				WalletAddress: address,
				Amount:        input.Amount,
				PayoutValue:   s.PayoutValue(input.Amount).StringFixed(2),
				Currency:      s.currency,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit withdrawal requested")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	result, err := s.transition(ctx, input)
	operation := "withdrawal_" + string(input.Outcome)
	if err != nil {
		s.metrics.ObserveOperation(operation, metrics.OutcomeFor(err))
		return nil, err
	}
	if !result.Applied {
		s.metrics.ObserveOperation(operation, metrics.OutcomeRejected)
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"withdrawal_id":  input.RequestID.String(),
				"current_status": result.Status,
				"outcome":        input.Outcome,
			})
			s.logg.Warn(logCtx, "withdrawal already processed")
		}
		return result, nil
	}
	s.metrics.ObserveOperation(operation, metrics.OutcomeSuccess)
	if input.Outcome == enums.WithdrawalStatusRejected {
		s.metrics.AddCoins(string(enums.LedgerEntryWithdrawalRefund), result.Request.Amount)
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithAccountID(ctx, result.Request.AccountID), map[string]any{
			"withdrawal_id": input.RequestID.String(),
			"status":        result.Status,
			"admin":         input.AdminUsername,
		})
		s.logg.Info(logCtx, "withdrawal processed")
	}
	return result, nil
}

func (s *service) transition(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id is required")
	}
	if !input.Outcome.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outcome must be completed or rejected")
	}
	admin := strings.TrimSpace(input.AdminUsername)
	if admin == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin identity missing")
	}

	result := &TransitionResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		applied, err := repo.ResolvePending(ctx, input.RequestID, input.Outcome, admin, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal status")
		}
		request, err := repo.FindByID(ctx, input.RequestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
		}
		if request == nil {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrRequestNotFound, "withdrawal request not found")
		}
		result.Request = request
		result.Status = request.Status
		if !applied {
			return nil
		}
		result.Applied = true

		refunded := false
		if input.Outcome == enums.WithdrawalStatusRejected {
			if _, err := s.ledger.Credit(ctx, tx, ledger.PostingInput{
				AccountID:   request.AccountID,
				Type:        enums.LedgerEntryWithdrawalRefund,
				Amount:      request.Amount,
				ReferenceID: request.ID.String(),
				Note:        "rejected by " + admin,
			}); err != nil {
				return err
			}
			refunded = true
		}

		eventType := enums.EventWithdrawalCompleted
		if refunded {
			eventType = enums.EventWithdrawalRejected
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateWithdrawal,
			AggregateID:   request.ID.String(),
			Actor:         outbox.AdminActor(admin),
			Data: payloads.WithdrawalProcessedEvent{
				WithdrawalID: request.ID,
				AccountID:    request.AccountID,
				Amount:       request.Amount,
				Status:       request.Status,
				ProcessedBy:  admin,
				Refunded:     refunded,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit withdrawal processed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
	}
	if request == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrRequestNotFound, "withdrawal request not found")
	}
	return request, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.WithdrawalRequest], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return pagination.Page[models.WithdrawalRequest]{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", filter.Status))
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.WithdrawalRequest]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return pagination.Page[models.WithdrawalRequest]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list withdrawal requests")
	}
	return pagination.Trim(rows, params.Limit, func(r models.WithdrawalRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID.String()}
	}), nil
}

func invalidAmount(message string, minimum int64) error {
	details := map[string]string{"amount": message}
	if minimum > 0 {
		details["minimum"] = strconv.FormatInt(minimum, 10)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidAmount, message).WithDetails(details)
}
