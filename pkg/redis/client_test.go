package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
)

func TestIncrWithTTLArmsWindowOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.RateLimitKey("user:transfer:u1")

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, key, 30*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, map[string]int64{key: 30000}, mock.expiries)
}

func TestIncrWithTTLRejectsEmptyWindow(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	_, err := client.IncrWithTTL(context.Background(), "k", 0)
	assert.Error(t, err)
}

func TestReleaseIfOwner(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.LockKey("payment_reconcile")

	ok, err := client.SetNX(ctx, key, "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := client.ReleaseIfOwner(ctx, key, "owner-b")
	require.NoError(t, err)
	assert.False(t, released)
	assert.Equal(t, "owner-a", mock.data[key])

	released, err = client.ReleaseIfOwner(ctx, key, "owner-a")
	require.NoError(t, err)
	assert.True(t, released)
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestSetNXAndDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.IdempotencyKey("razorpay_webhook", "evt_1")

	first, err := client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	second, err := client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestUninitializedClient(t *testing.T) {
	var client *Client
	assert.ErrorIs(t, client.Ping(context.Background()), errNotInitialized)
	assert.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "wg:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	assert.Equal(t, "wg:rate_limit:scope", client.RateLimitKey("scope"))
	assert.Equal(t, "wg:lock:payment_reconcile", client.LockKey("payment_reconcile"))
	assert.Equal(t, "wg:session:access:abc", client.AccessSessionKey("abc"))
	assert.Equal(t, "wg:idempotency:scope", client.IdempotencyKey("scope", ""))

	staging := Keys{Namespace: "wg-staging"}
	assert.Equal(t, "wg-staging:lock:cron", staging.LockKey("cron"))
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	_, err = optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)
}

type mockCmdable struct {
	data     map[string]string
	counters map[string]int64
	expiries map[string]int64
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:     make(map[string]string),
		counters: make(map[string]int64),
		expiries: make(map[string]int64),
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

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval emulates the two scripts the client ships.
func (m *mockCmdable) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	switch script {
	case incrWindowScript:
		m.counters[key]++
		if m.counters[key] == 1 {
			m.expiries[key] = args[0].(int64)
		}
		return redis.NewCmdResult(m.counters[key], nil)
	case releaseOwnedScript:
		if v, ok := m.data[key]; ok && v == args[0] {
			delete(m.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
}
