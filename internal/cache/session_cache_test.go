package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"shopbridge/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseCache(t *testing.T, c SessionCache, id string) {
	t.Helper()
	ctx := context.Background()

	_, err := c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Put(ctx, domain.SessionResult{SessionID: id, Status: domain.SessionStatusOpen}))
	_, err = c.Get(ctx, id)
	assert.ErrorIs(t, err, ErrMiss, "open results are not cached")

	require.NoError(t, c.Put(ctx, domain.SessionResult{SessionID: id, Status: domain.SessionStatusCompleted, Principal: "user-1"}))
	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, got.Status)
	assert.Equal(t, "user-1", got.Principal)
}

func TestMemorySessionCache(t *testing.T) {
	exerciseCache(t, NewMemorySessionCache(), "cs_1")
}

func TestRedisSessionCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb, err := Connect(context.Background(), addr, "", 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	exerciseCache(t, NewRedisSessionCache(rdb, time.Minute, nil), "cs_"+uuid.NewString())
}
