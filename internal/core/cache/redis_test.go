package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return New(mr.Addr(), "", 0), mr
}

func TestGetOrLoadCachesResult(t *testing.T) {
	c, _ := newTestCache(t)
	var calls int32

	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("v"), nil
	}

	b, err := c.GetOrLoad(context.Background(), "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), b)

	b, err = c.GetOrLoad(context.Background(), "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), b)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetOrLoadPropagatesError(t *testing.T) {
	c, _ := newTestCache(t)
	boom := errors.New("boom")
	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestGetOrLoadSingleflight(t *testing.T) {
	c, _ := newTestCache(t)
	var calls int32
	var wg sync.WaitGroup

	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return []byte("v"), nil
	}

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := c.GetOrLoad(context.Background(), "hot", time.Minute, load)
			assert.NoError(t, err)
			assert.Equal(t, []byte("v"), b)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDeleteInvalidates(t *testing.T) {
	c, _ := newTestCache(t)
	var calls int32
	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("v"), nil
	}

	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, load)
	require.NoError(t, err)
	require.NoError(t, c.Delete(context.Background(), "k"))
	_, err = c.GetOrLoad(context.Background(), "k", time.Minute, load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

type permProfile struct {
	UserID string   `json:"userId"`
	Perms  []string `json:"perms"`
}

func TestGetOrLoadJSON(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := GetOrLoadJSON(c, context.Background(), "p:u1", time.Minute,
		func(context.Context) (*permProfile, error) {
			return &permProfile{UserID: "u1", Perms: []string{"manage_users"}}, nil
		})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)

	// 负缓存：回源返回 nil 时透传 nil
	got, err = GetOrLoadJSON(c, context.Background(), "p:none", time.Minute,
		func(context.Context) (*permProfile, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKeyAdminPerms(t *testing.T) {
	assert.Equal(t, "authz:admin:u1", KeyAdminPerms("u1"))
}
