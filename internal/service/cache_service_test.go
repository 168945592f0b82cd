package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCacheRepo struct {
	err error
}

func (f failingCacheRepo) Get(context.Context, string, interface{}) error { return f.err }

func (f failingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return f.err
}

func (f failingCacheRepo) Delete(context.Context, string) error { return f.err }

func TestCacheServiceDisabled(t *testing.T) {
	var nilService *CacheService
	assert.False(t, nilService.Enabled())

	svc := NewCacheService(newStubCacheRepo(), nil, time.Minute, nil, false)
	assert.False(t, svc.Enabled())

	hit, err := svc.Get(context.Background(), "k", &struct{}{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, svc.Set(context.Background(), "k", "v", 0))
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newStubCacheRepo(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var dest map[string]int
	hit, err := svc.Get(ctx, "counts", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "counts", map[string]int{"rooms": 4}, 0))
	hit, err = svc.Get(ctx, "counts", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 4, dest["rooms"])

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 1e-9)

	require.NoError(t, svc.Invalidate(ctx, "counts"))
	hit, err = svc.Get(ctx, "counts", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServicePropagatesBackendErrors(t *testing.T) {
	backendErr := errors.New("redis down")
	svc := NewCacheService(failingCacheRepo{err: backendErr}, nil, time.Minute, nil, true)
	ctx := context.Background()

	hit, err := svc.Get(ctx, "k", &struct{}{})
	assert.False(t, hit)
	assert.ErrorIs(t, err, backendErr)
	assert.ErrorIs(t, svc.Set(ctx, "k", "v", time.Second), backendErr)
	assert.ErrorIs(t, svc.Invalidate(ctx, "k"), backendErr)
}
