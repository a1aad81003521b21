package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/pagination"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Service posts balance movements. Credit and Debit must run inside the
// caller's transaction so the entry commits or rolls back with the change
// that caused it.
type Service interface {
	Credit(ctx context.Context, tx *gorm.DB, input PostingInput) (*models.LedgerEntry, error)
	Debit(ctx context.Context, tx *gorm.DB, input PostingInput) (*models.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID int64, params pagination.Params) (pagination.Page[models.LedgerEntry], error)
}

// PostingInput describes one balance movement. Amount is always positive;
// the direction comes from calling Credit or Debit.
type PostingInput struct {
	AccountID   int64
	Type        enums.LedgerEntryType
	Amount      int64
	ReferenceID string
	Note        string
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, input PostingInput) (*models.LedgerEntry, error) {
	if err := validatePosting(tx, input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	rows, err := repo.IncrementBalance(ctx, input.AccountID, input.Amount, input.Type.CountsAsEarning())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit balance")
	}
	if rows == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrAccountNotFound, "account not found")
	}
	return s.append(ctx, repo, input, input.Amount)
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, input PostingInput) (*models.LedgerEntry, error) {
	if err := validatePosting(tx, input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	rows, err := repo.DecrementBalance(ctx, input.AccountID, input.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit balance")
	}
	if rows == 0 {
		balance, found, err := repo.Balance(ctx, input.AccountID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
		}
		if !found {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrAccountNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInsufficientBalance, ErrInsufficientBalance, "insufficient balance").
			WithDetails(map[string]any{"balance": balance, "requested": input.Amount})
	}
	return s.append(ctx, repo, input, -input.Amount)
}

func (s *service) append(ctx context.Context, repo Repository, input PostingInput, signed int64) (*models.LedgerEntry, error) {
	balance, _, err := repo.Balance(ctx, input.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
	}
	entry := &models.LedgerEntry{
		ID:           uuid.New(),
		AccountID:    input.AccountID,
		Type:         input.Type,
		Amount:       signed,
		BalanceAfter: balance,
		ReferenceID:  optional(input.ReferenceID),
		Note:         optional(input.Note),
	}
	if err := repo.Insert(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert ledger entry")
	}
	return entry, nil
}

func (s *service) ListByAccount(ctx context.Context, accountID int64, params pagination.Params) (pagination.Page[models.LedgerEntry], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.LedgerEntry]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	entries, err := s.repo.ListByAccount(ctx, accountID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return pagination.Page[models.LedgerEntry]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return pagination.Trim(entries, params.Limit, func(e models.LedgerEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID.String()}
	}), nil
}

func validatePosting(tx *gorm.DB, input PostingInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required for ledger posting")
	}
	if input.AccountID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger entry type %q", input.Type))
	}
	if input.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
