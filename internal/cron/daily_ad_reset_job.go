package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/earnpro/rewards-backend/pkg/logger"
)

const (
	dailyAdResetName  = "daily_ad_reset"
	dailyMarkerTTL    = 48 * time.Hour
	dailyMarkerLayout = "2006-01-02"
)

type adCounterResetter interface {
	ResetDaily(ctx context.Context) (int64, error)
}

type DailyAdResetJobParams struct {
	Logger   *logger.Logger
	Ads      adCounterResetter
	Markers  lockClient
	Location *time.Location
}

// NewDailyAdResetJob zeroes today_ads once per calendar day in Location. The
// hourly cycle may call it many times; a per-day Redis marker makes every
// call after the first a no-op.
func NewDailyAdResetJob(params DailyAdResetJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ads == nil {
		return nil, fmt.Errorf("ad service required")
	}
	if params.Markers == nil {
		return nil, fmt.Errorf("redis client required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &dailyAdResetJob{
		logg:    params.Logger,
		ads:     params.Ads,
		markers: params.Markers,
		loc:     loc,
		now:     time.Now,
	}, nil
}

type dailyAdResetJob struct {
	logg    *logger.Logger
	ads     adCounterResetter
	markers lockClient
	loc     *time.Location
	now     func() time.Time
}

func (j *dailyAdResetJob) Name() string { return dailyAdResetName }

func (j *dailyAdResetJob) Run(ctx context.Context) (int64, error) {
	day := j.now().In(j.loc).Format(dailyMarkerLayout)
	key := j.markers.CronLockKey(dailyAdResetName + ":" + day)

	first, err := j.markers.SetNX(ctx, key, day, dailyMarkerTTL)
	if err != nil {
		return 0, fmt.Errorf("claim daily marker: %w", err)
	}
	if !first {
		j.logg.Info(j.logg.WithField(ctx, "day", day), "ad counters already reset today")
		return 0, nil
	}

	rows, err := j.ads.ResetDaily(ctx)
	if err != nil {
		// Drop the marker so the next cycle retries the reset.
		if delErr := j.markers.Del(ctx, key); delErr != nil {
			j.logg.Error(ctx, "failed to clear daily marker", delErr)
		}
		return 0, fmt.Errorf("daily ad reset: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{"day": day, "accounts_reset": rows}), "ad counters reset")
	return rows, nil
}
