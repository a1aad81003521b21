package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earnpro/rewards-backend/internal/ledger"
	"github.com/earnpro/rewards-backend/internal/withdrawals"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/pagination"
)

func TestWithdrawalCreate(t *testing.T) {
	var got withdrawals.CreateInput
	svc := &fakeWithdrawals{
		createFn: func(ctx context.Context, input withdrawals.CreateInput) (*models.WithdrawalRequest, error) {
			got = input
			return &models.WithdrawalRequest{
				ID:            uuid.New(),
				AccountID:     input.AccountID,
				WalletAddress: input.WalletAddress,
				Amount:        input.Amount,
				Status:        enums.WithdrawalStatusPending,
				CreatedAt:     time.Now(),
			}, nil
		},
	}

	resp := httptest.NewRecorder()
	body := `{"walletAddress":"UQabc","amount":600}`
	WithdrawalCreate(svc, testLogger())(resp, asUser(newRequest(http.MethodPost, "/api/v1/withdrawals", body, nil), 11))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, int64(11), got.AccountID)
	assert.Equal(t, int64(600), got.Amount)

	var view withdrawalView
	decodeData(t, resp, &view)
	assert.Equal(t, "0.60", view.PayoutValue)
	assert.Equal(t, enums.WithdrawalStatusPending, view.Status)
}

func TestWithdrawalCreateInsufficientBalance(t *testing.T) {
	svc := &fakeWithdrawals{
		createFn: func(context.Context, withdrawals.CreateInput) (*models.WithdrawalRequest, error) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInsufficientBalance, ledger.ErrInsufficientBalance, "insufficient balance")
		},
	}

	resp := httptest.NewRecorder()
	WithdrawalCreate(svc, testLogger())(resp, asUser(newRequest(http.MethodPost, "/api/v1/withdrawals", `{"walletAddress":"UQabc","amount":1001}`, nil), 11))

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeInsufficientBalance), decodeErrorCode(t, resp))
}

func TestWithdrawalCreateValidatesBody(t *testing.T) {
	svc := &fakeWithdrawals{}
	for _, body := range []string{`{"walletAddress":"","amount":10}`, `{"walletAddress":"UQ","amount":0}`, `{"walletAddress":"UQ","amount":-4}`} {
		resp := httptest.NewRecorder()
		WithdrawalCreate(svc, testLogger())(resp, asUser(newRequest(http.MethodPost, "/api/v1/withdrawals", body, nil), 11))
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
	}
}

func TestWithdrawalListScopesToCaller(t *testing.T) {
	svc := &fakeWithdrawals{
		listFn: func(ctx context.Context, filter withdrawals.ListFilter, params pagination.Params) (pagination.Page[models.WithdrawalRequest], error) {
			assert.Equal(t, int64(11), filter.AccountID)
			assert.Empty(t, filter.Status)
			return pagination.Page[models.WithdrawalRequest]{Items: []models.WithdrawalRequest{}}, nil
		},
	}
	resp := httptest.NewRecorder()
	WithdrawalList(svc, testLogger())(resp, asUser(newRequest(http.MethodGet, "/api/v1/withdrawals", "", nil), 11))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAdminWithdrawalListFilters(t *testing.T) {
	svc := &fakeWithdrawals{
		listFn: func(ctx context.Context, filter withdrawals.ListFilter, params pagination.Params) (pagination.Page[models.WithdrawalRequest], error) {
			assert.Equal(t, enums.WithdrawalStatusPending, filter.Status)
			assert.Equal(t, int64(5), filter.AccountID)
			return pagination.Page[models.WithdrawalRequest]{Items: []models.WithdrawalRequest{}}, nil
		},
	}
	resp := httptest.NewRecorder()
	req := asAdmin(newRequest(http.MethodGet, "/api/admin/v1/withdrawals?status=pending&accountId=5", "", nil), "ops")
	AdminWithdrawalList(svc, testLogger())(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAdminWithdrawalTransitionReportsApplied(t *testing.T) {
	requestID := uuid.New()
	var got withdrawals.TransitionInput
	svc := &fakeWithdrawals{
		transitionFn: func(ctx context.Context, input withdrawals.TransitionInput) (*withdrawals.TransitionResult, error) {
			got = input
			return &withdrawals.TransitionResult{
				Applied: true,
				Status:  enums.WithdrawalStatusRejected,
				Request: &models.WithdrawalRequest{ID: requestID, Amount: 600, Status: enums.WithdrawalStatusRejected},
			}, nil
		},
	}

	resp := httptest.NewRecorder()
	req := asAdmin(newRequest(http.MethodPost, "/", "", map[string]string{"withdrawalId": requestID.String()}), "ops")
	AdminWithdrawalTransition(svc, enums.WithdrawalStatusRejected, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, requestID, got.RequestID)
	assert.Equal(t, enums.WithdrawalStatusRejected, got.Outcome)
	assert.Equal(t, "ops", got.AdminUsername)

	var view transitionView
	decodeData(t, resp, &view)
	assert.True(t, view.Applied)
	require.NotNil(t, view.Request)
	assert.Equal(t, "0.60", view.Request.PayoutValue)
}

func TestAdminWithdrawalTransitionAlreadyProcessed(t *testing.T) {
	svc := &fakeWithdrawals{
		transitionFn: func(context.Context, withdrawals.TransitionInput) (*withdrawals.TransitionResult, error) {
			return &withdrawals.TransitionResult{Applied: false, Status: enums.WithdrawalStatusCompleted}, nil
		},
	}

	resp := httptest.NewRecorder()
	req := asAdmin(newRequest(http.MethodPost, "/", "", map[string]string{"withdrawalId": uuid.NewString()}), "ops")
	AdminWithdrawalTransition(svc, enums.WithdrawalStatusRejected, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var view transitionView
	decodeData(t, resp, &view)
	assert.False(t, view.Applied)
	assert.Equal(t, enums.WithdrawalStatusCompleted, view.Status)
}

func TestAdminWithdrawalTransitionBadID(t *testing.T) {
	resp := httptest.NewRecorder()
	req := asAdmin(newRequest(http.MethodPost, "/", "", map[string]string{"withdrawalId": "nope"}), "ops")
	AdminWithdrawalTransition(&fakeWithdrawals{}, enums.WithdrawalStatusCompleted, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
