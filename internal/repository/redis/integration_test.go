package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain/signal"
	redisrepo "marketpulse/internal/repository/redis"
	"marketpulse/internal/testsupport"
	"marketpulse/pkg/errors"
)

func TestReportRepository_Integration(t *testing.T) {
	cfg := testsupport.LoadStoreConfigsFromEnv(t)
	client := testsupport.NewRedisClient(t, cfg.Redis)
	repo := redisrepo.NewReportRepository(client, time.Minute)
	ctx := context.Background()

	_, err := repo.GetLatest(ctx, "SPY")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	report := signal.Report{
		ID:                uuid.New(),
		Ticker:            "SPY",
		GeneratedAt:       time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		PositiveThreshold: 1.2,
		NegativeThreshold: -0.8,
	}
	require.NoError(t, repo.SaveLatest(ctx, report))

	got, err := repo.GetLatest(ctx, "spy")
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.True(t, got.GeneratedAt.Equal(report.GeneratedAt))
}

func TestClientLock_Integration(t *testing.T) {
	cfg := testsupport.LoadStoreConfigsFromEnv(t)
	client := testsupport.NewRedisClient(t, cfg.Redis)
	ctx := context.Background()

	ok, err := client.AcquireLock(ctx, "analysis:SPY", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.AcquireLock(ctx, "analysis:SPY", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second holder is refused")

	require.NoError(t, client.ReleaseLock(ctx, "analysis:SPY"))
	ok, err = client.AcquireLock(ctx, "analysis:SPY", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
