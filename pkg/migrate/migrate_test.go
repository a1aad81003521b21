package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/migrate"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
	require.NoError(t, migrate.ValidateEmbedded())
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	missingDown := fstest.MapFS{
		"20260301090000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;")},
	}
	require.ErrorContains(t, migrate.ValidateFS(missingDown, "."), "goose Down")

	dupVersion := fstest.MapFS{
		"20260301090000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20260301090000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	require.ErrorContains(t, migrate.ValidateFS(dupVersion, "."), "duplicate migration version")

	badName := fstest.MapFS{"create_accounts.sql": {Data: []byte("")}}
	require.ErrorContains(t, migrate.ValidateFS(badName, "."), "invalid migration filename")

	require.Error(t, migrate.ValidateFS(fstest.MapFS{}, "."))
}

func TestLedgerMigrationsCarryBalanceConstraints(t *testing.T) {
	checks := map[string][]string{
		"*_create_accounts.sql": {
			"CHECK (balance >= 0)",
			"DROP TABLE IF EXISTS accounts",
		},
		"*_create_promo_codes.sql": {
			"CHECK (uses_left >= 0)",
			"PRIMARY KEY (promo_code_id, account_id)",
			"CREATE UNIQUE INDEX IF NOT EXISTS promo_codes_code_key",
			"deleted_at TIMESTAMP",
			"REFERENCES promo_codes(id) ON DELETE RESTRICT",
		},
		"*_create_tasks.sql": {
			"CHECK (completions >= 0)",
			"deleted_at TIMESTAMP",
			"REFERENCES tasks(id) ON DELETE RESTRICT",
		},
		"*_create_withdrawal_requests.sql": {
			"CHECK (status IN ('pending', 'completed', 'rejected'))",
			"CHECK (amount > 0)",
		},
	}

	for pattern, subs := range checks {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		require.NoError(t, err)
		require.Len(t, matches, 1, pattern)

		data, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		for _, sub := range subs {
			require.Contains(t, string(data), sub, matches[0])
		}
	}
}

func TestUpAppliesSchemaOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Up(context.Background(), sqlDB, migrate.DialectSQLite))
	// a second run is a no-op
	require.NoError(t, migrate.Up(context.Background(), sqlDB, migrate.DialectSQLite))

	for _, table := range []string{"accounts", "ledger_entries", "promo_codes", "promo_claims", "withdrawal_requests", "tasks", "task_completions", "admin_settings", "outbox_events", "outbox_dlq"} {
		require.True(t, conn.Migrator().HasTable(table), table)
	}

	err = conn.Exec("INSERT INTO accounts (telegram_id, balance) VALUES (?, ?)", 1, -5).Error
	require.Error(t, err, "balance check constraint must reject negative balances")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Referral Links!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_referral_links.sql"))
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestDialectFor(t *testing.T) {
	require.Equal(t, migrate.DialectSQLite, migrate.DialectFor("sqlite"))
	require.Equal(t, migrate.DialectPostgres, migrate.DialectFor("postgres"))
	require.Equal(t, migrate.DialectPostgres, migrate.DialectFor(""))
}

func TestShouldAutoRun(t *testing.T) {
	cfg := &config.Config{}
	require.False(t, migrate.ShouldAutoRun(cfg))

	cfg.FeatureFlags.AutoMigrate = true
	cfg.App.Env = "prod"
	cfg.DB.Driver = "postgres"
	require.False(t, migrate.ShouldAutoRun(cfg))

	cfg.App.Env = "dev"
	require.True(t, migrate.ShouldAutoRun(cfg))

	cfg.App.Env = "prod"
	cfg.DB.Driver = "sqlite"
	require.True(t, migrate.ShouldAutoRun(cfg))
	require.False(t, migrate.ShouldAutoRun(nil))
}
