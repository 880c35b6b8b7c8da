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

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisStore_MarkAndGet(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Mark(ctx, "sess-1", FormSubmittedKey, "contact_form"))

	got, err := store.Get(ctx, "sess-1", FormSubmittedKey)
	require.NoError(t, err)
	assert.Equal(t, "contact_form", got)
	assert.Equal(t, time.Minute, mr.TTL("session:sess-1:form_submitted"))

	require.NoError(t, store.Mark(ctx, "sess-1", FormSubmittedKey, "demo_popup_form"))
	got, err = store.Get(ctx, "sess-1", FormSubmittedKey)
	require.NoError(t, err)
	assert.Equal(t, "demo_popup_form", got)
}

func TestRedisStore_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Mark(ctx, "sess-2", FormSubmittedKey, "contact_form"))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "sess-2", FormSubmittedKey)
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestRedisStore_Errors(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, 0)
	ctx := context.Background()
	assert.Equal(t, 30*time.Minute, store.ttl)

	assert.ErrorIs(t, store.Mark(ctx, "", FormSubmittedKey, "x"), ErrMissingSession)
	_, err := store.Get(ctx, "", FormSubmittedKey)
	assert.ErrorIs(t, err, ErrMissingSession)

	_, err = store.Get(ctx, "unknown", FormSubmittedKey)
	assert.ErrorIs(t, err, ErrMarkerNotFound)

	mr.Close()
	err = store.Mark(ctx, "sess-3", FormSubmittedKey, "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMarkerNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	t.Cleanup(store.Stop)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Mark(ctx, "sess-1", FormSubmittedKey, "contact_form"))
	got, err := store.Get(ctx, "sess-1", FormSubmittedKey)
	require.NoError(t, err)
	assert.Equal(t, "contact_form", got)

	_, err = store.Get(ctx, "sess-2", FormSubmittedKey)
	assert.ErrorIs(t, err, ErrMarkerNotFound, "markers are scoped per session")

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "sess-1", FormSubmittedKey)
	assert.ErrorIs(t, err, ErrMarkerNotFound)

	assert.ErrorIs(t, store.Mark(ctx, "", FormSubmittedKey, "x"), ErrMissingSession)
}

func TestMemoryStore_NoTTL(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()
	require.NoError(t, store.Mark(ctx, "s", "k", "v"))
	store.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	got, err := store.Get(ctx, "s", "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestMemoryStore_SweepEvictsUnreadMarkers(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	t.Cleanup(store.Stop)
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }
	ctx := context.Background()

	require.NoError(t, store.Mark(ctx, "old", FormSubmittedKey, "contact_form"))
	store.now = func() time.Time { return start.Add(30 * time.Minute) }
	require.NoError(t, store.Mark(ctx, "fresh", FormSubmittedKey, "demo_popup_form"))

	assert.Equal(t, 1, store.sweep(start.Add(time.Hour)))
	assert.Equal(t, 0, store.sweep(start.Add(time.Hour)))

	store.mu.RLock()
	_, oldLeft := store.markers[markerKey("old", FormSubmittedKey)]
	_, freshLeft := store.markers[markerKey("fresh", FormSubmittedKey)]
	store.mu.RUnlock()
	assert.False(t, oldLeft)
	assert.True(t, freshLeft)
}

func TestMemoryStore_StopIsIdempotent(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	store.Stop()
	store.Stop()
}
