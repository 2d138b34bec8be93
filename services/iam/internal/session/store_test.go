package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb), mr
}

func TestStore_SetGetDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, PendingUserPrefix+"a@x.com", "blob", time.Minute))

	v, ok, err := store.Get(ctx, PendingUserPrefix+"a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "blob", v)

	require.NoError(t, store.Delete(ctx, PendingUserPrefix+"a@x.com"))

	_, ok, err = store.Get(ctx, PendingUserPrefix+"a@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_TTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, OTPPrefix+"a@x.com", "123456|0", 10*time.Minute))

	ttl, ok, err := store.TTL(ctx, OTPPrefix+"a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, ttl, 9*time.Minute)

	mr.FastForward(11 * time.Minute)

	_, ok, err = store.Get(ctx, OTPPrefix+"a@x.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SetNX(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ok, err := store.SetNX(ctx, DenylistPrefix+"jti-1", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetNX(ctx, DenylistPrefix+"jti-1", "1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ConsumeCode_SucceedsExactlyOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	key := OTPPrefix + "a@x.com"

	require.NoError(t, store.SetCode(ctx, key, "482910", 5*time.Minute))

	res, err := store.ConsumeCode(ctx, key, "482910", 5)
	require.NoError(t, err)
	assert.Equal(t, ConsumeOK, res)

	res, err = store.ConsumeCode(ctx, key, "482910", 5)
	require.NoError(t, err)
	assert.Equal(t, ConsumeNotFound, res)
}

func TestStore_ConsumeCode_MismatchKeepsCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	key := OTPPrefix + "a@x.com"

	require.NoError(t, store.SetCode(ctx, key, "482910", 5*time.Minute))

	res, err := store.ConsumeCode(ctx, key, "000000", 5)
	require.NoError(t, err)
	assert.Equal(t, ConsumeMismatch, res)

	// The correct code still works after a failed attempt.
	res, err = store.ConsumeCode(ctx, key, "482910", 5)
	require.NoError(t, err)
	assert.Equal(t, ConsumeOK, res)
}

func TestStore_ConsumeCode_AttemptBudget(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	key := OTPPrefix + "a@x.com"

	require.NoError(t, store.SetCode(ctx, key, "482910", 5*time.Minute))

	for i := 0; i < 4; i++ {
		res, err := store.ConsumeCode(ctx, key, "000000", 5)
		require.NoError(t, err)
		assert.Equal(t, ConsumeMismatch, res)
	}

	res, err := store.ConsumeCode(ctx, key, "000000", 5)
	require.NoError(t, err)
	assert.Equal(t, ConsumeAttemptsExceeded, res)

	// Challenge is burned, even for the correct code.
	res, err = store.ConsumeCode(ctx, key, "482910", 5)
	require.NoError(t, err)
	assert.Equal(t, ConsumeNotFound, res)
}

func TestStore_ConsumeCode_ExpiredKey(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	key := OTPPrefix + "a@x.com"

	require.NoError(t, store.SetCode(ctx, key, "482910", time.Minute))
	mr.FastForward(2 * time.Minute)

	res, err := store.ConsumeCode(ctx, key, "482910", 5)
	require.NoError(t, err)
	assert.Equal(t, ConsumeNotFound, res)
}

func TestRedactKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "otp:*", redactKey("otp:alice@example.com"))
	assert.Equal(t, "plain", redactKey("plain"))
}
