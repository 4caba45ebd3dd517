package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStoreDropsWithinWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(5*time.Minute, 100, WithClock(clock.Now))
	ctx := context.Background()

	dup, err := store.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, dup)

	dup, err = store.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, dup)

	clock.Advance(5 * time.Minute)
	dup, err = store.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, dup, "replay after the window is processed again")
}

func TestMemoryStoreForget(t *testing.T) {
	store := NewMemoryStore(time.Minute, 10)
	ctx := context.Background()

	_, err := store.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	require.NoError(t, store.Forget(ctx, "evt_1"))

	dup, err := store.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, dup)
}

func TestMemoryStoreSweepsPastHighWaterMark(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(time.Minute, 3, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.IsDuplicate(ctx, fmt.Sprintf("old_%d", i))
		require.NoError(t, err)
	}
	require.Equal(t, 3, store.Len())

	clock.Advance(2 * time.Minute)
	_, err := store.IsDuplicate(ctx, "fresh")
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	_, err := NewMemoryStore(0, 0).IsDuplicate(context.Background(), "")
	require.Error(t, err)
}

func TestMemoryStoreConcurrentFirstSight(t *testing.T) {
	store := NewMemoryStore(time.Minute, 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	firsts := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dup, err := store.IsDuplicate(ctx, "evt_race")
			require.NoError(t, err)
			if !dup {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, firsts)
}

type fakeRedis struct {
	keys   map[string]time.Duration
	err    error
	delErr error
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = ttl
	return true, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.keys, k)
	}
	return f.delErr
}

func (f *fakeRedis) DedupKey(scope, eventID string) string {
	return "settle:dedup:" + scope + ":" + eventID
}

func TestRedisStore(t *testing.T) {
	client := &fakeRedis{keys: map[string]time.Duration{}}
	store, err := NewRedisStore(client, "stripe", 5*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	dup, err := store.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	require.False(t, dup)
	require.Equal(t, 5*time.Minute, client.keys["settle:dedup:stripe:evt_1"])

	dup, err = store.IsDuplicate(ctx, "evt_1")
	require.NoError(t, err)
	require.True(t, dup)

	require.NoError(t, store.Forget(ctx, "evt_1"))
	require.Empty(t, client.keys)
}

func TestRedisStorePropagatesErrors(t *testing.T) {
	store, err := NewRedisStore(&fakeRedis{keys: map[string]time.Duration{}, err: errors.New("down")}, "stripe", 0)
	require.NoError(t, err)
	_, err = store.IsDuplicate(context.Background(), "evt_1")
	require.Error(t, err)

	_, err = NewRedisStore(nil, "stripe", 0)
	require.Error(t, err)
}
