package matching

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader(calls *int32) LoaderFunc {
	return func(ctx context.Context, organizationID uuid.UUID, referenceDate time.Time) (*IndexedSet, error) {
		atomic.AddInt32(calls, 1)
		return setOf(newInstance(tuesdayAt(9, 0), tuesdayAt(10, 0))), nil
	}
}

func TestCacheServesFreshValueWithoutReloading(t *testing.T) {
	var calls int32
	cache := NewExpansionCache(time.Minute, countingLoader(&calls))

	first, err := cache.Get(context.Background(), testOrgID, refMonday)
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), testOrgID, refMonday)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCacheInvalidateForcesReload(t *testing.T) {
	var calls int32
	cache := NewExpansionCache(time.Minute, countingLoader(&calls))

	_, err := cache.Get(context.Background(), testOrgID, refMonday)
	require.NoError(t, err)

	cache.Invalidate(testOrgID)

	_, err = cache.Get(context.Background(), testOrgID, refMonday)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCacheKeysPerOrganization(t *testing.T) {
	var calls int32
	cache := NewExpansionCache(time.Minute, countingLoader(&calls))

	_, err := cache.Get(context.Background(), testOrgID, refMonday)
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), otherOrgID, refMonday)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCacheSingleFlight(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	cache := NewExpansionCache(time.Minute, func(ctx context.Context, organizationID uuid.UUID, referenceDate time.Time) (*IndexedSet, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return setOf(), nil
	})

	const workers = 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := cache.Get(context.Background(), testOrgID, refMonday)
			assert.NoError(t, err)
			assert.NotNil(t, set)
		}()
	}

	// Let all callers pile onto the one in-flight load.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCacheServesStaleWhileRefreshing(t *testing.T) {
	var calls int32
	cache := NewExpansionCache(10*time.Millisecond, countingLoader(&calls))

	first, err := cache.Get(context.Background(), testOrgID, refMonday)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	// The entry is past its TTL but retained: this call must return
	// immediately with the previous value while the refresh runs behind it.
	stale, err := cache.Get(context.Background(), testOrgID, refMonday)
	require.NoError(t, err)
	assert.Same(t, first, stale)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestCachePropagatesLoadError(t *testing.T) {
	cache := NewExpansionCache(time.Minute, func(ctx context.Context, organizationID uuid.UUID, referenceDate time.Time) (*IndexedSet, error) {
		return nil, fmt.Errorf("store unreachable")
	})

	_, err := cache.Get(context.Background(), testOrgID, refMonday)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unreachable")
}

func TestCacheReloadsForNewReferenceDate(t *testing.T) {
	var calls int32
	cache := NewExpansionCache(time.Hour, countingLoader(&calls))

	_, err := cache.Get(context.Background(), testOrgID, refMonday)
	require.NoError(t, err)

	nextDay := refMonday.AddDate(0, 0, 1)
	stale, err := cache.Get(context.Background(), testOrgID, nextDay)
	require.NoError(t, err)
	require.NotNil(t, stale)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 2
	}, time.Second, 5*time.Millisecond)
}
