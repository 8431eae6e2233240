package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryResponseStore_Lifecycle(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := newMemoryResponseStore(clock.Now, time.Hour)
	defer store.Close()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = store.Reserve(ctx, "k1", time.Minute)
	assert.False(t, ok)

	resp, err := store.Lookup(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, resp)

	body := []byte(`{"success":true}`)
	require.NoError(t, store.Complete(ctx, "k1", shared.StoredResponse{StatusCode: 201, Body: body}, time.Minute))
	body[0] = 'X'

	resp, err = store.Lookup(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, `{"success":true}`, string(resp.Body), "stored body is a copy")

	require.NoError(t, store.Release(ctx, "k1"))
	resp, _ = store.Lookup(ctx, "k1")
	assert.NotNil(t, resp)

	clock.Advance(time.Minute)
	resp, _ = store.Lookup(ctx, "k1")
	assert.Nil(t, resp, "expired")
	ok, _ = store.Reserve(ctx, "k1", time.Minute)
	assert.True(t, ok)

	require.NoError(t, store.Release(ctx, "k1"))
	assert.Zero(t, store.Size())
}

func TestMemoryResponseStore_Sweep(t *testing.T) {
	clock := &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := newMemoryResponseStore(clock.Now, time.Hour)
	defer store.Close()
	ctx := context.Background()

	_, _ = store.Reserve(ctx, "short", time.Second)
	_, _ = store.Reserve(ctx, "long", time.Hour)
	clock.Advance(time.Minute)
	store.sweep()
	assert.Equal(t, 1, store.Size())
}

func TestMemoryResponseStore_SingleWinner(t *testing.T) {
	store := NewMemoryResponseStore()
	defer store.Close()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Reserve(context.Background(), "race", time.Minute); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
