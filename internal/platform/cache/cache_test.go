package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, "test", time.Minute), mr
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls int32
	loader := func(context.Context) (any, error) {
		n := atomic.AddInt32(&calls, 1)
		return []int{int(n)}, nil
	}

	var first []int
	require.NoError(t, c.FetchJSON(ctx, []string{"list"}, &first, loader))
	var second []int
	require.NoError(t, c.FetchJSON(ctx, []string{"list"}, &second, loader))
	assert.Equal(t, []int{1}, first)
	assert.Equal(t, first, second)

	require.NoError(t, c.Bump(ctx))
	var third []int
	require.NoError(t, c.FetchJSON(ctx, []string{"list"}, &third, loader))
	assert.Equal(t, []int{2}, third)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchJSONFallsBackWhenRedisDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	var out map[string]string
	err := c.FetchJSON(context.Background(), []string{"k"}, &out, func(context.Context) (any, error) {
		return map[string]string{"ok": "yes"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "yes", out["ok"])
}

func TestFetchJSONPropagatesLoaderError(t *testing.T) {
	c, _ := newTestCache(t)
	boom := errors.New("boom")
	var out []int
	err := c.FetchJSON(context.Background(), []string{"k"}, &out, func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestFetchJSONNilClientPassesThrough(t *testing.T) {
	c := NewCache(nil, "test", time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out string
			assert.NoError(t, c.FetchJSON(context.Background(), []string{"k"}, &out, func(context.Context) (any, error) {
				return "v", nil
			}))
			assert.Equal(t, "v", out)
		}()
	}
	wg.Wait()
}

func TestNewFailsFastWhenRedisStalls(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	opts := client.Options()
	assert.Equal(t, dialTimeout, opts.DialTimeout)
	assert.Equal(t, ioTimeout, opts.ReadTimeout)
	assert.Equal(t, maxRetries, opts.MaxRetries)

	c := NewCache(client, "test", time.Minute)
	mr.SetError("LOADING")
	start := time.Now()
	var out []int
	err = c.FetchJSON(context.Background(), []string{"k"}, &out, func(context.Context) (any, error) {
		return []int{1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, out)
	assert.Less(t, time.Since(start), time.Second)
}
