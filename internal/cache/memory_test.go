package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/bookingadmin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore_Lifecycle(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session := &domain.Session{ID: "s1", Admin: domain.Admin{ID: "u1", Email: "admin@example.com"}, AccessToken: "at"}
	require.NoError(t, store.Save(ctx, session, time.Hour))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, *session, *got)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Session{ID: "s1"}, 20*time.Millisecond))
	require.NoError(t, store.Save(ctx, &domain.Session{ID: "s2"}, time.Hour))

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, "s1")
		return err == ErrSessionNotFound
	}, time.Second, 5*time.Millisecond)

	_, err := store.Get(ctx, "s2")
	assert.NoError(t, err)
}

func TestMemorySessionStore_ReadsDoNotExtendTTL(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Session{ID: "s1"}, 100*time.Millisecond))
	before := store.sessions.Get("s1").ExpiresAt()

	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, before, store.sessions.Get("s1").ExpiresAt())
}

func TestMemorySessionStore_Sweep(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		expired []string
	)
	unregister := store.OnExpire(func(id string) {
		mu.Lock()
		defer mu.Unlock()
		expired = append(expired, id)
	})

	require.NoError(t, store.Save(ctx, &domain.Session{ID: "short"}, 10*time.Millisecond))
	require.NoError(t, store.Save(ctx, &domain.Session{ID: "long"}, time.Hour))
	require.NoError(t, store.Save(ctx, &domain.Session{ID: "forever"}, 0))
	time.Sleep(30 * time.Millisecond)

	store.Sweep()
	unregister()

	assert.Equal(t, []string{"short"}, expired)
	assert.Equal(t, 2, store.Len())
	assert.ElementsMatch(t, []string{"long", "forever"}, store.sessions.Keys())
}

func TestMemorySessionStore_RunSweeper(t *testing.T) {
	store := NewMemorySessionStore()
	ctx, cancel := context.WithCancel(context.Background())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, &domain.Session{ID: id}, 10*time.Millisecond))
	}

	done := make(chan struct{})
	go func() {
		store.RunSweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return store.sessions.Metrics().Evictions == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestMemorySessionStore_GetReturnsCopy(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.Session{ID: "s1", AccessToken: "at"}, time.Hour))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	got.AccessToken = "mutated"

	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "at", again.AccessToken)
}
