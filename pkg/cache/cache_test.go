package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrymomot/datefmt/pkg/cache"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Memory: Get / Set ---

func TestMemory_GetSet(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		_, err := c.Get(context.Background(), "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored value", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", 42, time.Minute))

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, 42, val)
	})

	t.Run("overwrites existing value", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "a", 0))
		require.NoError(t, c.Set(ctx, "key", "b", 0))

		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "b", val)
		require.Equal(t, 1, c.Len())
	})
}

// --- Memory: expiry ---

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()

	t.Run("positive ttl expires", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := cache.NewMemory[string](cache.WithClock(clock.Now))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", time.Minute))

		clock.Advance(59 * time.Second)
		_, err := c.Get(ctx, "key")
		require.NoError(t, err)

		clock.Advance(2 * time.Second)
		_, err = c.Get(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
		require.Zero(t, c.Len(), "expired entry is dropped on read")
	})

	t.Run("zero ttl without default never expires", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := cache.NewMemory[string](cache.WithClock(clock.Now))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", 0))

		clock.Advance(24 * 365 * time.Hour)
		val, err := c.Get(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, "value", val)
	})

	t.Run("zero ttl uses default", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := cache.NewMemory[string](cache.WithClock(clock.Now), cache.WithDefaultTTL(time.Second))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", 0))

		clock.Advance(2 * time.Second)
		has, err := c.Has(ctx, "key")
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("negative ttl never expires", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := cache.NewMemory[string](cache.WithClock(clock.Now), cache.WithDefaultTTL(time.Second))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "key", "value", -1))

		clock.Advance(time.Hour)
		has, err := c.Has(ctx, "key")
		require.NoError(t, err)
		require.True(t, has)
	})

	t.Run("purge drops expired entries", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		c := cache.NewMemory[int](cache.WithClock(clock.Now))
		defer c.Close()

		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "short", 1, time.Second))
		require.NoError(t, c.Set(ctx, "long", 2, time.Hour))
		require.NoError(t, c.Set(ctx, "forever", 3, 0))

		clock.Advance(time.Minute)
		require.Equal(t, 1, c.Purge())
		require.Equal(t, 2, c.Len())
	})
}

// --- Memory: eviction ---

func TestMemory_MaxEntries(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[int](cache.WithMaxEntries(2))
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "c", 3, 0))
	require.Equal(t, 2, c.Len())

	_, err = c.Get(ctx, "b")
	require.ErrorIs(t, err, cache.ErrNotFound, "least recently used entry is evicted")
	for _, key := range []string{"a", "c"} {
		has, err := c.Has(ctx, key)
		require.NoError(t, err)
		require.True(t, has, key)
	}

	require.NoError(t, c.Set(ctx, "c", 30, 0))
	require.Equal(t, 2, c.Len(), "updating a key does not evict")
	require.EqualValues(t, 1, c.Stats().Evicted)
}

func TestMemory_CleanupInterval(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string](cache.WithCleanupInterval(5 * time.Millisecond))
	defer c.Close()

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, key, key, 10*time.Millisecond))
	}
	require.NoError(t, c.Set(ctx, "forever", "v", -1))

	require.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 5*time.Millisecond,
		"expired entries are removed without being read")

	has, err := c.Has(ctx, "forever")
	require.NoError(t, err)
	require.True(t, has)
}

// --- Memory: Delete / Has / Clear ---

func TestMemory_DeleteHasClear(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string]()
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))

	has, err := c.Has(ctx, "a")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, c.Delete(ctx, "a"))
	require.NoError(t, c.Delete(ctx, "missing"))

	has, err = c.Has(ctx, "a")
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, c.Clear(ctx))
	require.Zero(t, c.Len())
}

// --- Memory: Close ---

func TestMemory_Close(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string]()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "key", "value", 0))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "close is idempotent")

	require.ErrorIs(t, c.Set(ctx, "other", "value", 0), cache.ErrClosed)

	val, err := c.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, "value", val)
}

// --- Memory: Stats ---

func TestMemory_Stats(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string]()
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "key", "value", 0))

	_, _ = c.Get(ctx, "key")
	_, _ = c.Get(ctx, "key")
	_, _ = c.Get(ctx, "missing")
	_, _ = c.Has(ctx, "key")

	require.Equal(t, cache.Stats{Hits: 2, Misses: 1, Entries: 1}, c.Stats())

	var reporter cache.StatsReporter = c
	require.NotNil(t, reporter)
}

// --- Loader ---

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	t.Run("builds once and caches", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()
		loader := cache.NewLoader[string](c, 0)

		var calls atomic.Int32
		build := func(context.Context) (string, error) {
			calls.Add(1)
			return "built", nil
		}

		ctx := context.Background()
		for range 3 {
			v, err := loader.Load(ctx, "key", build)
			require.NoError(t, err)
			require.Equal(t, "built", v)
		}

		require.EqualValues(t, 1, calls.Load())
		require.Same(t, c, loader.Cache())
		require.Equal(t, cache.Stats{Hits: 2, Misses: 1, Entries: 1}, c.Stats(), "a first lookup counts one miss")
	})

	t.Run("does not store errors", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		defer c.Close()
		loader := cache.NewLoader[string](c, 0)

		errBuild := errors.New("build failed")
		var calls atomic.Int32
		build := func(context.Context) (string, error) {
			calls.Add(1)
			return "", errBuild
		}

		ctx := context.Background()
		for range 2 {
			_, err := loader.Load(ctx, "key", build)
			require.ErrorIs(t, err, errBuild)
		}

		require.EqualValues(t, 2, calls.Load())
		require.Zero(t, c.Len())
	})

	t.Run("returns value when store fails", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		require.NoError(t, c.Close())
		loader := cache.NewLoader[string](c, 0)

		v, err := loader.Load(context.Background(), "key", func(context.Context) (string, error) {
			return "built", nil
		})
		require.NoError(t, err)
		require.Equal(t, "built", v)
	})

	t.Run("concurrent misses build once", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		defer c.Close()
		loader := cache.NewLoader[int](c, 0)

		var calls atomic.Int32
		release := make(chan struct{})
		build := func(context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 7, nil
		}

		var wg sync.WaitGroup
		results := make([]int, 50)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := loader.Load(context.Background(), "key", build)
				if err == nil {
					results[i] = v
				}
			}()
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		for _, v := range results {
			require.Equal(t, 7, v)
		}
		require.EqualValues(t, 1, calls.Load())

		v, err := loader.Load(context.Background(), "key", build)
		require.NoError(t, err)
		require.Equal(t, 7, v)
		require.EqualValues(t, 1, calls.Load())
	})
}
