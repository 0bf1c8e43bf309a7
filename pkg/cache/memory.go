package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type memoryEntry[V any] struct {
	expiresAt time.Time // zero value = never expires
	value     V
	key       string
}

func (e *memoryEntry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryOption configures the in-memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now             func() time.Time
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	maxEntries      int
}

// WithDefaultTTL sets the expiration used when Set is called with a zero TTL.
// Default: 0, entries live for the lifetime of the cache.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.defaultTTL = d
	}
}

// WithCleanupInterval starts a background janitor that removes expired
// entries every d. Close stops it.
// Default: 0, expired entries are removed when read or by Purge.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		o.cleanupInterval = d
	}
}

// WithMaxEntries bounds the cache. When full, Set evicts the least recently
// used entry. Default: 0 (unlimited).
func WithMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) {
		o.maxEntries = n
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// Memory is an in-memory cache with TTL expiration and optional LRU
// eviction when a maximum entry count is configured.
//
// A map gives O(1) lookups and a doubly-linked list keeps recency order:
// most recently used at the front, least recently used at the back.
// Without WithMaxEntries nothing is evicted to make room, which is what the
// layout cache relies on.
type Memory[V any] struct {
	items    map[string]*list.Element
	eviction *list.List
	opts     memoryOptions
	done     chan struct{}
	hits     atomic.Uint64
	misses   atomic.Uint64
	evicted  atomic.Uint64
	mu       sync.Mutex
	closed   bool
}

// NewMemory creates a new in-memory cache.
//
// Example:
//
//	layouts := cache.NewMemory[datefmt.Layout]()
//	rendered := cache.NewMemory[string](
//	    cache.WithDefaultTTL(time.Hour),
//	    cache.WithCleanupInterval(time.Minute),
//	    cache.WithMaxEntries(10000),
//	)
//	defer rendered.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Memory[V]{
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		opts:     o,
		done:     make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

// Get retrieves a value by key and marks it as recently used.
// Returns ErrNotFound if the key does not exist or has expired.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if ok {
		e := elem.Value.(*memoryEntry[V])
		if !e.expired(m.opts.now()) {
			m.eviction.MoveToFront(elem)
			m.hits.Add(1)
			return e.value, nil
		}
		m.removeElement(elem)
	}

	m.misses.Add(1)
	var zero V
	return zero, ErrNotFound
}

// Set stores a value with the given TTL.
// TTL semantics: positive = expires after duration, zero = use default TTL,
// negative = never expires.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.opts.now().Add(ttl)
	}

	if elem, ok := m.items[key]; ok {
		e := elem.Value.(*memoryEntry[V])
		e.value = value
		e.expiresAt = expiresAt
		m.eviction.MoveToFront(elem)
		return nil
	}

	if m.opts.maxEntries > 0 && len(m.items) >= m.opts.maxEntries {
		if oldest := m.eviction.Back(); oldest != nil {
			m.removeElement(oldest)
			m.evicted.Add(1)
		}
	}

	m.items[key] = m.eviction.PushFront(&memoryEntry[V]{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Delete removes a key from the cache.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if elem, ok := m.items[key]; ok {
		m.removeElement(elem)
	}
	return nil
}

// Has checks whether a key exists and has not expired.
// It does not count as a hit or a miss and does not change recency.
func (m *Memory[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return false, nil
	}
	if elem.Value.(*memoryEntry[V]).expired(m.opts.now()) {
		m.removeElement(elem)
		return false, nil
	}
	return true, nil
}

// Clear removes all entries from the cache.
func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	clear(m.items)
	m.eviction.Init()
	return nil
}

// Close stops the janitor and marks the cache as closed. Writes fail with
// ErrClosed afterwards; reads keep working. Close is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.items)
}

// Purge removes expired entries and returns how many were removed.
func (m *Memory[V]) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.now()
	removed := 0
	for elem := m.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry[V]).expired(now) {
			m.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Stats returns the counters and the current entry count.
func (m *Memory[V]) Stats() Stats {
	return Stats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Evicted: m.evicted.Load(),
		Entries: m.Len(),
	}
}

func (m *Memory[V]) janitor() {
	ticker := time.NewTicker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.Purge()
		}
	}
}

// removeElement unlinks elem. Caller must hold the mutex.
func (m *Memory[V]) removeElement(elem *list.Element) {
	m.eviction.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry[V]).key)
}

var (
	_ Cache[any]    = (*Memory[any])(nil)
	_ StatsReporter = (*Memory[any])(nil)
)
