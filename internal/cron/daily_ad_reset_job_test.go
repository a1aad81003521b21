package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/earnpro/rewards-backend/pkg/logger"
)

type memoryRedis struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}}
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryRedis) CronLockKey(job string) string { return "earnpro:lock:cron:" + job }

type fakeResetter struct {
	calls int
	rows  int64
	err   error
}

func (f *fakeResetter) ResetDaily(context.Context) (int64, error) {
	f.calls++
	return f.rows, f.err
}

func newDailyJob(t *testing.T, ads *fakeResetter, store *memoryRedis, loc *time.Location) *dailyAdResetJob {
	t.Helper()
	jobIface, err := NewDailyAdResetJob(DailyAdResetJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Ads:      ads,
		Markers:  store,
		Location: loc,
	})
	require.NoError(t, err)
	return jobIface.(*dailyAdResetJob)
}

func TestDailyAdResetRunsOncePerDay(t *testing.T) {
	ads := &fakeResetter{rows: 12}
	store := newMemoryRedis()
	job := newDailyJob(t, ads, store, nil)
	now := time.Date(2026, 3, 10, 0, 5, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	rows, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), rows)

	now = now.Add(5 * time.Hour)
	rows, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Equal(t, 1, ads.calls)

	now = now.Add(20 * time.Hour)
	_, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ads.calls)
	assert.Contains(t, store.values, "earnpro:lock:cron:daily_ad_reset:2026-03-11")
}

func TestDailyAdResetUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	store := newMemoryRedis()
	job := newDailyJob(t, &fakeResetter{}, store, loc)
	job.now = func() time.Time { return time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC) }

	_, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, store.values, "earnpro:lock:cron:daily_ad_reset:2026-03-11")
}

func TestDailyAdResetClearsMarkerOnFailure(t *testing.T) {
	ads := &fakeResetter{err: errors.New("db down")}
	store := newMemoryRedis()
	job := newDailyJob(t, ads, store, nil)

	_, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.values)

	ads.err = nil
	_, err = job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ads.calls)
}

func TestDailyAdResetMarkerError(t *testing.T) {
	ads := &fakeResetter{}
	store := newMemoryRedis()
	store.setErr = errors.New("redis down")
	job := newDailyJob(t, ads, store, nil)

	_, err := job.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, ads.calls)
}

func TestRedisLockReleasesOnlyOwnedKey(t *testing.T) {
	store := newMemoryRedis()
	lock, err := NewCycleLock(store, time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	other, err := NewCycleLock(store, time.Minute)
	require.NoError(t, err)
	ok, err = other.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, other.Release(context.Background()))
	assert.Contains(t, store.values, "earnpro:lock:cron:cycle")

	require.NoError(t, lock.Release(context.Background()))
	assert.NotContains(t, store.values, "earnpro:lock:cron:cycle")
}
