package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/earnpro/rewards-backend/api/routes"
	"github.com/earnpro/rewards-backend/internal/accounts"
	"github.com/earnpro/rewards-backend/internal/ads"
	"github.com/earnpro/rewards-backend/internal/auth"
	"github.com/earnpro/rewards-backend/internal/ledger"
	"github.com/earnpro/rewards-backend/internal/promos"
	"github.com/earnpro/rewards-backend/internal/settings"
	"github.com/earnpro/rewards-backend/internal/tasks"
	"github.com/earnpro/rewards-backend/internal/withdrawals"
	"github.com/earnpro/rewards-backend/pkg/auth/session"
	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/db"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/metrics"
	"github.com/earnpro/rewards-backend/pkg/migrate"
	"github.com/earnpro/rewards-backend/pkg/outbox"
	"github.com/earnpro/rewards-backend/pkg/redis"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := metrics.NewProcessRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	svc, err := buildServices(cfg, logg, dbClient, sessionManager, ledgerMetrics)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:       dbClient,
			Redis:    redisClient,
			Sessions: sessionManager,
			Metrics:  registry,
			Outbox: outbox.NewInspector(
				outbox.NewRepository(dbClient.DB()),
				outbox.NewDLQRepository(dbClient.DB()),
			),
		}, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessions *session.Manager, ledgerMetrics *metrics.LedgerMetrics) (routes.Services, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	accountSvc, err := accounts.NewService(accounts.ServiceParams{
		Repo:         accounts.NewRepository(conn),
		Ledger:       ledgerSvc,
		Tx:           dbClient,
		Outbox:       emitter,
		Metrics:      ledgerMetrics,
		Logger:       logg,
		WelcomeBonus: cfg.Rewards.WelcomeBonus,
	})
	if err != nil {
		return routes.Services{}, err
	}

	settingsSvc, err := settings.NewService(settings.NewRepository(conn), dbClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	promoSvc, err := promos.NewService(promos.ServiceParams{
		Repo:     promos.NewRepository(conn),
		Accounts: accountSvc,
		Ledger:   ledgerSvc,
		Tx:       dbClient,
		Outbox:   emitter,
		Metrics:  ledgerMetrics,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	taskSvc, err := tasks.NewService(tasks.ServiceParams{
		Repo:     tasks.NewRepository(conn),
		Accounts: accountSvc,
		Ledger:   ledgerSvc,
		Tx:       dbClient,
		Outbox:   emitter,
		Metrics:  ledgerMetrics,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	adSvc, err := ads.NewService(ads.ServiceParams{
		Repo:     ads.NewRepository(conn),
		Accounts: accountSvc,
		Ledger:   ledgerSvc,
		Settings: settingsSvc,
		Tx:       dbClient,
		Outbox:   emitter,
		Metrics:  ledgerMetrics,
		Logger:   logg,
		Points:   ads.RandomPoints,
	})
	if err != nil {
		return routes.Services{}, err
	}

	withdrawalSvc, err := withdrawals.NewService(withdrawals.ServiceParams{
		Repo:           withdrawals.NewRepository(conn),
		Ledger:         ledgerSvc,
		Settings:       settingsSvc,
		Tx:             dbClient,
		Outbox:         emitter,
		Metrics:        ledgerMetrics,
		Logger:         logg,
		CoinsPerPayout: cfg.Rewards.CoinsPerPayout,
		Currency:       cfg.Rewards.PayoutCurrency,
	})
	if err != nil {
		return routes.Services{}, err
	}

	authSvc, err := auth.NewService(auth.ServiceParams{
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		Admin:          cfg.Admin,
		Password:       cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Accounts:    accountSvc,
		Ledger:      ledgerSvc,
		Promos:      promoSvc,
		Withdrawals: withdrawalSvc,
		Tasks:       taskSvc,
		Ads:         adSvc,
		Settings:    settingsSvc,
		Auth:        authSvc,
	}, nil
}
