package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/api/middleware"
	"github.com/earnpro/rewards-backend/internal/accounts"
	"github.com/earnpro/rewards-backend/internal/withdrawals"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// newRequest builds a request with chi URL params and an optional caller.
func newRequest(method, target, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func asUser(req *http.Request, accountID int64) *http.Request {
	return req.WithContext(middleware.WithAccountID(req.Context(), accountID))
}

func asAdmin(req *http.Request, username string) *http.Request {
	return req.WithContext(middleware.WithAdmin(req.Context(), username, "token-1"))
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Error.Code
}

type fakeAccounts struct {
	getFn    func(ctx context.Context, id int64) (*models.Account, error)
	ensureFn func(ctx context.Context, profile accounts.Profile) (*models.Account, bool, error)
	adjustFn func(ctx context.Context, input accounts.AdjustInput) (*models.Account, error)
	listFn   func(ctx context.Context, params pagination.Params) (pagination.Page[models.Account], error)
	statsFn  func(ctx context.Context, now time.Time) (accounts.DashboardStats, error)
	boardFn  func(ctx context.Context, limit int) ([]accounts.LeaderboardEntry, error)
}

func (f *fakeAccounts) EnsureAccount(ctx context.Context, profile accounts.Profile) (*models.Account, bool, error) {
	return f.ensureFn(ctx, profile)
}

func (f *fakeAccounts) EnsureAccountTx(context.Context, *gorm.DB, int64) (bool, error) {
	return false, nil
}

func (f *fakeAccounts) Get(ctx context.Context, id int64) (*models.Account, error) {
	return f.getFn(ctx, id)
}

func (f *fakeAccounts) List(ctx context.Context, params pagination.Params) (pagination.Page[models.Account], error) {
	return f.listFn(ctx, params)
}

func (f *fakeAccounts) Leaderboard(ctx context.Context, limit int) ([]accounts.LeaderboardEntry, error) {
	return f.boardFn(ctx, limit)
}

func (f *fakeAccounts) Adjust(ctx context.Context, input accounts.AdjustInput) (*models.Account, error) {
	return f.adjustFn(ctx, input)
}

func (f *fakeAccounts) DashboardStats(ctx context.Context, now time.Time) (accounts.DashboardStats, error) {
	return f.statsFn(ctx, now)
}

type fakeWithdrawals struct {
	createFn     func(ctx context.Context, input withdrawals.CreateInput) (*models.WithdrawalRequest, error)
	transitionFn func(ctx context.Context, input withdrawals.TransitionInput) (*withdrawals.TransitionResult, error)
	listFn       func(ctx context.Context, filter withdrawals.ListFilter, params pagination.Params) (pagination.Page[models.WithdrawalRequest], error)
}

func (f *fakeWithdrawals) Create(ctx context.Context, input withdrawals.CreateInput) (*models.WithdrawalRequest, error) {
	return f.createFn(ctx, input)
}

func (f *fakeWithdrawals) Transition(ctx context.Context, input withdrawals.TransitionInput) (*withdrawals.TransitionResult, error) {
	return f.transitionFn(ctx, input)
}

func (f *fakeWithdrawals) Get(context.Context, uuid.UUID) (*models.WithdrawalRequest, error) {
	return nil, nil
}

func (f *fakeWithdrawals) List(ctx context.Context, filter withdrawals.ListFilter, params pagination.Params) (pagination.Page[models.WithdrawalRequest], error) {
	return f.listFn(ctx, filter, params)
}

func (f *fakeWithdrawals) PayoutValue(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(1000)).Round(2)
}
