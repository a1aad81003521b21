// Package dbtest opens throwaway SQLite databases carrying the production schema.
package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/earnpro/rewards-backend/pkg/db"
	"github.com/earnpro/rewards-backend/pkg/db/models"
	"github.com/earnpro/rewards-backend/pkg/migrate"
)

// New returns a client backed by a private in-memory SQLite database with
// every migration applied and foreign keys enforced. The pool is pinned to one connection so concurrent
// transactions serialise the way row locks would serialise them on Postgres.
func New(t testing.TB) *db.Client {
	t.Helper()

	dsn := "file:earnpro_" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:                db.UTCNow,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.Up(context.Background(), sqlDB, migrate.DialectSQLite); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	return db.NewFromGorm(conn)
}

// SeedAccount inserts an account holding balance coins and returns it.
func SeedAccount(t testing.TB, client *db.Client, telegramID, balance int64) models.Account {
	t.Helper()
	account := models.Account{
		TelegramID:    telegramID,
		Name:          "Test User",
		Username:      "test_user",
		Balance:       balance,
		TotalEarnings: balance,
	}
	if err := client.DB().Create(&account).Error; err != nil {
		t.Fatalf("seed account %d: %v", telegramID, err)
	}
	return account
}

// LoadAccount reads the current account row.
func LoadAccount(t testing.TB, client *db.Client, telegramID int64) models.Account {
	t.Helper()
	var account models.Account
	if err := client.DB().First(&account, "telegram_id = ?", telegramID).Error; err != nil {
		t.Fatalf("load account %d: %v", telegramID, err)
	}
	return account
}
