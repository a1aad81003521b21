// Command cron-worker runs the scheduled maintenance jobs: the daily ad
// counter reset and outbox retention.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/earnpro/rewards-backend/internal/ads"
	"github.com/earnpro/rewards-backend/internal/cron"
	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/db"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/metrics"
	"github.com/earnpro/rewards-backend/pkg/migrate"
	"github.com/earnpro/rewards-backend/pkg/outbox"
	"github.com/earnpro/rewards-backend/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	loc, err := time.LoadLocation(cfg.Cron.Timezone)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
		"timezone": loc.String(),
	})

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

	jobs, err := buildJobs(cfg, logg, dbClient, redisClient, loc)
	if err != nil {
		return err
	}
	lock, err := cron.NewCycleLock(redisClient, cfg.Cron.LockTTL)
	if err != nil {
		return err
	}

	reg := metrics.NewProcessRegistry()
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(jobs...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting cron worker")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return metrics.Serve(gctx, ":"+cfg.App.Port, reg) })
	g.Go(func() error { return service.Run(gctx) })
	err = g.Wait()
	logg.Info(ctx, "cron worker stopped")
	return err
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, loc *time.Location) ([]cron.Job, error) {
	adReset, err := cron.NewDailyAdResetJob(cron.DailyAdResetJobParams{
		Logger:   logg,
		Ads:      ads.NewRepository(dbClient.DB()),
		Markers:  redisClient,
		Location: loc,
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Repository:  outbox.NewRepository(dbClient.DB()),
		Retention:   cfg.Outbox.Retention,
		MinAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, err
	}
	return []cron.Job{adReset, retention}, nil
}
