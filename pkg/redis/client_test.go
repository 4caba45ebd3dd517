package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "seller-1", 2, time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, int64(1), count)
	require.Len(t, mock.expireCalls, 1)

	allowed, count, err = client.FixedWindowAllow(ctx, "seller-1", 2, time.Second)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, int64(2), count)
	require.Len(t, mock.expireCalls, 1, "expire should not be set again")

	allowed, _, err = client.FixedWindowAllow(ctx, "seller-1", 2, time.Second)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.DedupKey("stripe", "evt_1")

	first, err := client.SetNX(ctx, key, "1", time.Minute)
	require.NoError(t, err)
	require.True(t, first)

	second, err := client.SetNX(ctx, key, "1", time.Minute)
	require.NoError(t, err)
	require.False(t, second)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	require.True(t, IsNil(err))
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	require.Error(t, client.Ping(context.Background()))
	_, err := client.SetNX(context.Background(), "k", "v", time.Second)
	require.Error(t, err)
	require.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "settle:dedup:stripe:evt_1", client.DedupKey("stripe", "evt_1"))
	require.Equal(t, "settle:lock:cron", client.LockKey("cron"))
	require.Equal(t, "settle:rate_limit:seller", client.RateLimitKey("seller"))
	require.Equal(t, "settle:dedup:evt_2", client.DedupKey("", "evt_2"), "empty parts are skipped")
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(_ context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
