package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeCounterStore mimics the store's TTL-on-first-increment contract with a
// manually driven clock.
type fakeCounterStore struct {
	now      time.Time
	counters map[string]*fakeCounter
	failing  bool
}

type fakeCounter struct {
	count     int64
	expiresAt time.Time
}

func newFakeCounterStore(now time.Time) *fakeCounterStore {
	return &fakeCounterStore{now: now, counters: make(map[string]*fakeCounter)}
}

func (f *fakeCounterStore) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fakeCounterStore) get(key string) *fakeCounter {
	c, ok := f.counters[key]
	if !ok || !f.now.Before(c.expiresAt) {
		return nil
	}
	return c
}

func (f *fakeCounterStore) IncrementCounter(_ context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	if f.failing {
		return 0, errors.New("store unavailable")
	}
	c := f.get(key)
	if c == nil {
		c = &fakeCounter{expiresAt: f.now.Add(ttl)}
		f.counters[key] = c
	}
	c.count += amount
	return c.count, nil
}

func (f *fakeCounterStore) CounterValue(_ context.Context, key string) (int64, error) {
	if f.failing {
		return 0, errors.New("store unavailable")
	}
	c := f.get(key)
	if c == nil {
		return 0, nil
	}
	return c.count, nil
}

func TestQuotaEnforcement(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 17, 0, 0, time.UTC)
	store := newFakeCounterStore(now)
	limiter := NewLimiter(store, 10, zap.NewNop())

	for i := 1; i <= 10; i++ {
		d := limiter.Allow(context.Background(), "1.2.3.4", now)
		require.True(t, d.Allowed, "request %d within quota must be admitted", i)
		assert.Equal(t, int64(i), d.Count)
		assert.Equal(t, int64(10-i), d.Remaining)
	}

	d := limiter.Allow(context.Background(), "1.2.3.4", now)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
	assert.Equal(t, int64(10), d.Limit)
}

func TestWindowResetsAtHourBoundary(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 17, 0, 0, time.UTC)
	store := newFakeCounterStore(now)
	limiter := NewLimiter(store, 2, zap.NewNop())

	limiter.Allow(context.Background(), "1.2.3.4", now)
	limiter.Allow(context.Background(), "1.2.3.4", now)
	d := limiter.Allow(context.Background(), "1.2.3.4", now)
	require.False(t, d.Allowed)
	assert.Equal(t, time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC), d.Reset)

	// Past the hour boundary the counter restarts at 1.
	store.advance(44 * time.Minute)
	later := now.Add(44 * time.Minute)
	d = limiter.Allow(context.Background(), "1.2.3.4", later)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Count)
	assert.Equal(t, time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), d.Reset)
}

func TestTTLAnchoredAtFirstIncrementOnly(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 50, 0, 0, time.UTC)
	store := newFakeCounterStore(now)
	limiter := NewLimiter(store, 10, zap.NewNop())

	limiter.Allow(context.Background(), "1.2.3.4", now)
	c := store.counters[keyPrefix+"1.2.3.4"]
	// First increment expires at the top of the hour.
	assert.Equal(t, time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC), c.expiresAt)

	// A later increment must not push the expiration out.
	store.advance(5 * time.Minute)
	limiter.Allow(context.Background(), "1.2.3.4", now.Add(5*time.Minute))
	assert.Equal(t, time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC), c.expiresAt)
	assert.Equal(t, int64(2), c.count)
}

func TestClientsAreIsolated(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 17, 0, 0, time.UTC)
	store := newFakeCounterStore(now)
	limiter := NewLimiter(store, 1, zap.NewNop())

	require.True(t, limiter.Allow(context.Background(), "1.2.3.4", now).Allowed)
	assert.False(t, limiter.Allow(context.Background(), "1.2.3.4", now).Allowed)
	assert.True(t, limiter.Allow(context.Background(), "5.6.7.8", now).Allowed)
}

func TestStoreFailureAdmits(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 17, 0, 0, time.UTC)
	store := newFakeCounterStore(now)
	store.failing = true
	limiter := NewLimiter(store, 10, zap.NewNop())

	d := limiter.Allow(context.Background(), "1.2.3.4", now)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(10), d.Remaining)
}

func TestSnapshotDoesNotIncrement(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 17, 0, 0, time.UTC)
	store := newFakeCounterStore(now)
	limiter := NewLimiter(store, 10, zap.NewNop())

	limiter.Allow(context.Background(), "1.2.3.4", now)
	limiter.Allow(context.Background(), "1.2.3.4", now)

	d := limiter.Snapshot(context.Background(), "1.2.3.4", now)
	assert.Equal(t, int64(2), d.Count)
	assert.Equal(t, int64(8), d.Remaining)

	// Snapshot and admission agree on the same counter and anchor.
	again := limiter.Snapshot(context.Background(), "1.2.3.4", now)
	assert.Equal(t, d, again)
}
