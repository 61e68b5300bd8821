package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	session := StoredSession{
		AccessToken: "tok",
		UserID:      3,
		Role:        "student",
		Expiry:      time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, "kiosk-1", session))

	loaded, err := store.Load(ctx, "kiosk-1")
	require.NoError(t, err)
	require.Equal(t, session.AccessToken, loaded.AccessToken)
	require.Equal(t, session.UserID, loaded.UserID)
	require.Equal(t, session.Role, loaded.Role)
}

func TestInMemoryStoreSaveOverwrites(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "kiosk-1", StoredSession{AccessToken: "first"}))
	require.NoError(t, store.Save(ctx, "kiosk-1", StoredSession{AccessToken: "second"}))

	loaded, err := store.Load(ctx, "kiosk-1")
	require.NoError(t, err)
	require.Equal(t, "second", loaded.AccessToken)
}

func TestInMemoryStoreLoadMissing(t *testing.T) {
	store := NewInMemorySessionStore()

	_, err := store.Load(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestInMemoryStoreDelete(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "kiosk-1", StoredSession{AccessToken: "tok"}))
	require.NoError(t, store.Delete(ctx, "kiosk-1"))

	_, err := store.Load(ctx, "kiosk-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestInMemoryStoreDeleteMissing(t *testing.T) {
	store := NewInMemorySessionStore()

	err := store.Delete(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestInMemoryStoreProfilesAreIsolated(t *testing.T) {
	store := NewInMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "kiosk-1", StoredSession{AccessToken: "one"}))
	require.NoError(t, store.Save(ctx, "kiosk-2", StoredSession{AccessToken: "two"}))
	require.NoError(t, store.Delete(ctx, "kiosk-1"))

	loaded, err := store.Load(ctx, "kiosk-2")
	require.NoError(t, err)
	require.Equal(t, "two", loaded.AccessToken)
}

func TestSessionKeyIsNamespaced(t *testing.T) {
	require.Equal(t, "attendance:session:kiosk-1", sessionKey("attendance", "kiosk-1"))
}
