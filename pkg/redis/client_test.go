package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newFakeRedis()
	client := &Client{store: mock}

	for i := int64(1); i <= 2; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "public:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, count)
	}
	allowed, count, err := client.FixedWindowAllow(ctx, "public:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.EqualValues(t, 3, count)

	assert.Equal(t, []string{"dropship:rate_limit:public:1.2.3.4"}, mock.expired)
}

func TestIncrWithTTLRejectsZeroTTL(t *testing.T) {
	client := &Client{store: newFakeRedis()}
	_, err := client.IncrWithTTL(context.Background(), "k", 0)
	assert.Error(t, err)
}

func TestScriptFallsBackToEvalWhenNotCached(t *testing.T) {
	mock := newFakeRedis()
	mock.noScriptCache = true
	client := &Client{store: mock}

	n, err := client.IncrWithTTL(context.Background(), "k", time.Second)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, 1, mock.evalCalls)
}

func TestCompareAndDeleteOnlyRemovesOwnValue(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeRedis()}

	ok, err := client.SetNX(ctx, "lease", "worker-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	removed, err := client.CompareAndDelete(ctx, "lease", "worker-b")
	require.NoError(t, err)
	assert.False(t, removed)
	v, err := client.Get(ctx, "lease")
	require.NoError(t, err)
	assert.Equal(t, "worker-a", v)

	removed, err = client.CompareAndDelete(ctx, "lease", "worker-a")
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = client.Get(ctx, "lease")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	assert.Error(t, client.Ping(context.Background()))
	_, err := client.CompareAndDelete(context.Background(), "k", "v")
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "dropship:idempotency:POST /api/orders:abc", client.IdempotencyKey("POST /api/orders", "abc"))
	assert.Equal(t, "dropship:rate_limit:admin-login", client.RateLimitKey("admin-login"))
	assert.Equal(t, "dropship:lock:prod:cron-worker", client.LockKey("prod", "cron-worker"))
	assert.Equal(t, "dropship:lock:cron-worker", client.LockKey(" ", "cron-worker"))
}

// fakeRedis understands the two Lua scripts by their SHA.
type fakeRedis struct {
	data          map[string]string
	expired       []string
	noScriptCache bool
	evalCalls     int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeRedis) Eval(ctx context.Context, src string, keys []string, args ...any) *redis.Cmd {
	f.evalCalls++
	return f.run(redis.NewScript(src).Hash(), keys, args)
}

func (f *fakeRedis) EvalSha(_ context.Context, sha string, keys []string, args ...any) *redis.Cmd {
	if f.noScriptCache {
		return redis.NewCmdResult(nil, errors.New("NOSCRIPT No matching script"))
	}
	return f.run(sha, keys, args)
}

func (f *fakeRedis) run(sha string, keys []string, args []any) *redis.Cmd {
	key := keys[0]
	switch sha {
	case incrExpire.sha:
		var n int64
		if v, ok := f.data[key]; ok {
			fmt.Sscan(v, &n)
		}
		n++
		f.data[key] = fmt.Sprint(n)
		if n == 1 {
			f.expired = append(f.expired, key)
		}
		return redis.NewCmdResult(n, nil)
	case compareAndDelete.sha:
		if v, ok := f.data[key]; ok && v == fmt.Sprint(args[0]) {
			delete(f.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unknown script %s", sha))
}
