package main

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, userID int, role string, expiry time.Time) string {
	t.Helper()

	claims := AccessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseAccessTokenReadsClaims(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, 17, "student", expiry)

	claims, err := ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, 17, claims.UserID)
	require.Equal(t, "student", claims.Role)
	require.True(t, claims.Expiry().Equal(expiry))
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
	_, err := ParseAccessToken("not.a.jwt")
	require.Error(t, err)
}

func TestSessionStartStoresClaims(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewSessionManager(&fakeAPI{}, store, "kiosk-1")

	expiry := time.Now().Add(time.Hour)
	token := signedToken(t, 5, "student", expiry)
	require.NoError(t, manager.Start(context.Background(), token))

	session, err := store.Load(context.Background(), "kiosk-1")
	require.NoError(t, err)
	require.Equal(t, token, session.AccessToken)
	require.Equal(t, 5, session.UserID)
	require.Equal(t, "student", session.Role)
}

func TestSessionStartRejectsExpiredToken(t *testing.T) {
	manager := NewSessionManager(&fakeAPI{}, NewInMemorySessionStore(), "kiosk-1")

	token := signedToken(t, 5, "student", time.Now().Add(-time.Minute))
	err := manager.Start(context.Background(), token)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestAccessTokenReturnedWithoutRefreshWhenFresh(t *testing.T) {
	api := &fakeAPI{}
	manager := NewSessionManager(api, NewInMemorySessionStore(), "kiosk-1")

	token := signedToken(t, 5, "student", time.Now().Add(time.Hour))
	require.NoError(t, manager.Start(context.Background(), token))

	got, err := manager.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, token, got)
	require.Empty(t, api.calls)
}

func TestAccessTokenRefreshedCloseToExpiry(t *testing.T) {
	fresh := signedToken(t, 5, "student", time.Now().Add(time.Hour))
	api := &fakeAPI{refreshedToken: fresh}
	store := NewInMemorySessionStore()
	manager := NewSessionManager(api, store, "kiosk-1")

	old := signedToken(t, 5, "student", time.Now().Add(2*time.Minute))
	require.NoError(t, manager.Start(context.Background(), old))

	got, err := manager.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, fresh, got)
	require.Equal(t, []string{"RefreshToken"}, api.calls)

	// The refreshed token and its new expiry were persisted.
	session, err := store.Load(context.Background(), "kiosk-1")
	require.NoError(t, err)
	require.Equal(t, fresh, session.AccessToken)
	require.Greater(t, time.Until(session.Expiry), 30*time.Minute)
}

func TestAccessTokenRefreshFailureKeepsCurrentToken(t *testing.T) {
	api := &fakeAPI{refreshErr: &APIError{StatusCode: 401, Detail: "refresh rejected"}}
	manager := NewSessionManager(api, NewInMemorySessionStore(), "kiosk-1")

	old := signedToken(t, 5, "student", time.Now().Add(2*time.Minute))
	require.NoError(t, manager.Start(context.Background(), old))

	got, err := manager.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, old, got)
}

func TestAccessTokenExpiredSessionIsRemoved(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewSessionManager(&fakeAPI{}, store, "kiosk-1")

	token := signedToken(t, 5, "student", time.Now().Add(time.Hour))
	require.NoError(t, manager.Start(context.Background(), token))

	// Jump the clock past expiry.
	manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := manager.AccessToken(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	_, err = store.Load(context.Background(), "kiosk-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAccessTokenWithoutSession(t *testing.T) {
	manager := NewSessionManager(&fakeAPI{}, NewInMemorySessionStore(), "kiosk-1")

	_, err := manager.AccessToken(context.Background())
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEndRemovesSession(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewSessionManager(&fakeAPI{}, store, "kiosk-1")

	token := signedToken(t, 5, "student", time.Now().Add(time.Hour))
	require.NoError(t, manager.Start(context.Background(), token))
	require.NoError(t, manager.End(context.Background()))

	_, err := store.Load(context.Background(), "kiosk-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
