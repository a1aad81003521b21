package accounts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/internal/accounts"
	"github.com/earnpro/rewards-backend/internal/ledger"
	"github.com/earnpro/rewards-backend/pkg/db"
	"github.com/earnpro/rewards-backend/pkg/db/dbtest"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/enums"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/outbox"
	"github.com/earnpro/rewards-backend/pkg/pagination"
)

func newAccounts(t *testing.T, welcome int64) (*db.Client, accounts.Service) {
	t.Helper()
	client := dbtest.New(t)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(client.DB()))
	require.NoError(t, err)
	svc, err := accounts.NewService(accounts.ServiceParams{
		Repo:         accounts.NewRepository(client.DB()),
		Ledger:       ledgerSvc,
		Tx:           client,
		Outbox:       outbox.NewService(outbox.NewRepository(client.DB()), nil),
		WelcomeBonus: welcome,
	})
	require.NoError(t, err)
	return client, svc
}

func TestEnsureAccountPaysWelcomeBonusOnce(t *testing.T) {
	client, svc := newAccounts(t, 100)
	ctx := context.Background()

	account, created, err := svc.EnsureAccount(ctx, accounts.Profile{TelegramID: 42, Name: "Ada", Username: "@ada"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(100), account.Balance)
	assert.Equal(t, int64(100), account.TotalEarnings)
	assert.Equal(t, "ada", account.Username)

	again, created, err := svc.EnsureAccount(ctx, accounts.Profile{TelegramID: 42, Name: "Ada L.", Username: "ada", IsPremium: true})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(100), again.Balance)
	assert.Equal(t, "Ada L.", again.Name)
	assert.True(t, again.IsPremium)

	var entries []models.LedgerEntry
	require.NoError(t, client.DB().Where("account_id = ?", 42).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.LedgerEntryWelcomeBonus, entries[0].Type)

	var events int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventAccountCreated).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestEnsureAccountWithoutBonus(t *testing.T) {
	client, svc := newAccounts(t, 0)
	account, created, err := svc.EnsureAccount(context.Background(), accounts.Profile{TelegramID: 7})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Zero(t, account.Balance)

	var count int64
	require.NoError(t, client.DB().Model(&models.LedgerEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnsureAccountTxCreatesImplicitly(t *testing.T) {
	client, svc := newAccounts(t, 100)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := svc.EnsureAccountTx(ctx, tx, 55)
		if err != nil {
			return err
		}
		assert.True(t, created)
		created, err = svc.EnsureAccountTx(ctx, tx, 55)
		assert.False(t, created)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), dbtest.LoadAccount(t, client, 55).Balance)
}

func TestEnsureAccountValidatesID(t *testing.T) {
	_, svc := newAccounts(t, 100)
	_, _, err := svc.EnsureAccount(context.Background(), accounts.Profile{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetMissingAccount(t *testing.T) {
	_, svc := newAccounts(t, 100)
	_, err := svc.Get(context.Background(), 404)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, accounts.IsNotFound(err))
}

func TestAdjustCreditsAndDebits(t *testing.T) {
	client, svc := newAccounts(t, 0)
	ctx := context.Background()
	dbtest.SeedAccount(t, client, 9, 100)

	account, err := svc.Adjust(ctx, accounts.AdjustInput{AccountID: 9, Delta: 50, Reason: "support credit", AdminUsername: "admin"})
	require.NoError(t, err)
	assert.Equal(t, int64(150), account.Balance)
	assert.Equal(t, int64(100), account.TotalEarnings)

	account, err = svc.Adjust(ctx, accounts.AdjustInput{AccountID: 9, Delta: -150, Reason: "fraud reversal", AdminUsername: "admin"})
	require.NoError(t, err)
	assert.Zero(t, account.Balance)

	_, err = svc.Adjust(ctx, accounts.AdjustInput{AccountID: 9, Delta: -1, Reason: "overdraw", AdminUsername: "admin"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientBalance))
	assert.True(t, errors.Is(err, ledger.ErrInsufficientBalance))

	var entries []models.LedgerEntry
	require.NoError(t, client.DB().Where("account_id = ?", 9).Order("created_at").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(50), entries[0].Amount)
	assert.Equal(t, int64(-150), entries[1].Amount)
	require.NotNil(t, entries[1].Note)
	assert.Equal(t, "fraud reversal", *entries[1].Note)
}

func TestAdjustValidation(t *testing.T) {
	_, svc := newAccounts(t, 0)
	ctx := context.Background()
	for name, input := range map[string]accounts.AdjustInput{
		"no account": {Delta: 1, Reason: "x"},
		"zero delta": {AccountID: 1, Reason: "x"},
		"no reason":  {AccountID: 1, Delta: 1, Reason: "  "},
	} {
		_, err := svc.Adjust(ctx, input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}
}

func TestLeaderboardOrdersByTotalEarnings(t *testing.T) {
	client, svc := newAccounts(t, 0)
	ctx := context.Background()
	for id, earned := range map[int64]int64{1: 10, 2: 500, 3: 250, 4: 500} {
		require.NoError(t, client.DB().Create(&models.Account{TelegramID: id, TotalEarnings: earned}).Error)
	}

	board, err := svc.Leaderboard(ctx, 3)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, int64(2), board[0].TelegramID)
	assert.Equal(t, int64(4), board[1].TelegramID)
	assert.Equal(t, int64(3), board[2].TelegramID)
	assert.Equal(t, 3, board[2].Rank)
}

func TestListPaginates(t *testing.T) {
	client, svc := newAccounts(t, 0)
	ctx := context.Background()
	for id := int64(1); id <= 3; id++ {
		dbtest.SeedAccount(t, client, id, 0)
		time.Sleep(2 * time.Millisecond)
	}

	first, err := svc.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, int64(3), first.Items[0].TelegramID)

	second, err := svc.List(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, int64(1), second.Items[0].TelegramID)
	assert.Empty(t, second.NextCursor)

	bad := pagination.EncodeCursor(pagination.Cursor{CreatedAt: time.Now(), ID: "abc"})
	_, err = svc.List(ctx, pagination.Params{Cursor: bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDashboardStats(t *testing.T) {
	client, svc := newAccounts(t, 100)
	ctx := context.Background()

	_, _, err := svc.EnsureAccount(ctx, accounts.Profile{TelegramID: 1})
	require.NoError(t, err)
	_, _, err = svc.EnsureAccount(ctx, accounts.Profile{TelegramID: 2})
	require.NoError(t, err)

	taskID := uuid.New()
	require.NoError(t, client.DB().Create(&models.Task{
		ID: taskID, Kind: enums.TaskKindMain, Title: "Join", Points: 10,
		Category: "telegram", Platform: enums.TaskPlatformTelegram, CompletionLimit: 5,
	}).Error)
	require.NoError(t, client.DB().Create(&models.TaskCompletion{TaskID: taskID, AccountID: 1, Points: 10}).Error)
	require.NoError(t, client.DB().Create(&models.WithdrawalRequest{
		ID: uuid.New(), AccountID: 2, WalletAddress: "UQ-wallet", Amount: 50, Status: enums.WithdrawalStatusPending,
	}).Error)

	stats, err := svc.DashboardStats(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(200), stats.TotalCoinsEarned)
	assert.Equal(t, int64(2), stats.ActiveUsersToday)
	assert.Equal(t, int64(1), stats.TasksCompletedToday)
	assert.Equal(t, int64(1), stats.PendingWithdrawals)

	tomorrow, err := svc.DashboardStats(ctx, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, tomorrow.ActiveUsersToday)
	assert.Zero(t, tomorrow.TasksCompletedToday)
}

func TestDashboardStatsEmpty(t *testing.T) {
	_, svc := newAccounts(t, 0)
	stats, err := svc.DashboardStats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, accounts.DashboardStats{}, stats)
}
