package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ordermesh/courier/pkg/courier/auth"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*auth.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return auth.NewRedisStore(client), mr
}

func TestRedisStore_PutGet(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	cred := auth.Credential{
		Provider:  "shiprocket",
		Token:     "sr-token-1",
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.Put(ctx, cred))

	got, ok, err := store.Get(ctx, "shiprocket")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cred.Token, got.Token)
	assert.True(t, cred.ExpiresAt.Equal(got.ExpiresAt))
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := newRedisStore(t)

	_, ok, err := store.Get(context.Background(), "nimbuspost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, auth.Credential{
		Provider:  "shiprocket",
		Token:     "sr-token-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.Delete(ctx, "shiprocket"))

	_, ok, err := store.Get(ctx, "shiprocket")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_EntryExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, auth.Credential{
		Provider:  "shiprocket",
		Token:     "sr-token-1",
		ExpiresAt: time.Now().Add(30 * time.Second),
	}))

	mr.FastForward(time.Minute)

	_, ok, err := store.Get(ctx, "shiprocket")
	require.NoError(t, err)
	assert.False(t, ok, "entry must fall out of redis at credential expiry")
}
