// Package cache provides a generic Cache interface with in-memory and Redis
// implementations, plus a Loader that fills a cache on misses.
//
// # In-Memory Cache
//
// [Memory] is an unbounded map guarded by a read-write lock. With the default
// zero TTL entries live for the lifetime of the cache, which is what a cache
// of compiled formatters wants: the set of distinct configurations an
// application uses is small and each one is expensive to build.
//
//	layouts := cache.NewMemory[datefmt.Layout]()
//
// Expiry is lazy: an expired entry is dropped when it is read, or in bulk
// with [Memory.Purge].
//
// # Redis Cache
//
// [Redis] stores values serialized by a [Marshaler] (JSON by default):
//
//	client, err := cache.DialRedis(ctx, os.Getenv("REDIS_URL"))
//	rendered := cache.NewRedis[string](client, nil,
//	    cache.WithPrefix("datefmt:out"),
//	    cache.WithRedisDefaultTTL(time.Hour),
//	)
//
// # Loader
//
// [Loader] deduplicates concurrent misses with singleflight and stores the
// value before the flight ends, so each key is built once:
//
//	loader := cache.NewLoader(layouts, 0)
//	layout, err := loader.Load(ctx, key, func(ctx context.Context) (datefmt.Layout, error) {
//	    return engine.NewLayout(locales, opts)
//	})
//
// # Error Handling
//
//   - [ErrNotFound] — key does not exist or has expired
//   - [ErrClosed] — write to a closed cache
//   - [ErrMarshal] / [ErrUnmarshal] — value serialization failed
//   - [ErrEmptyRedisURL], [ErrInvalidRedisURL], [ErrRedisUnavailable] — DialRedis failures
package cache
