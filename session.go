package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AccessClaims is the payload of the server-issued access token, decoded
// WITHOUT signature verification. It is used only to read role/user_id for
// display and to schedule refreshes; authorization stays server-enforced.
type AccessClaims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ParseAccessToken decodes the token payload into typed claims. The
// signature is not checked; the server remains the only verifier.
func ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	return claims, nil
}

// Expiry returns the token's expiry time, or the zero time when the token
// carries no exp claim.
func (c *AccessClaims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Refresh policy: tokens are swapped for fresh ones when less than
// RefreshAhead of validity remains, re-checked every RefreshInterval.
const (
	RefreshAhead    = 5 * time.Minute
	RefreshInterval = 5 * time.Minute
)

var ErrSessionExpired = errors.New("session expired; please log in again")

// SessionManager owns the agent's bearer session: it validates the token's
// claims, keeps the token in the SessionStore, and refreshes it before it
// expires. Created at login, destroyed at logout.
type SessionManager struct {
	api       AttendanceAPI
	store     SessionStore
	profileID string
	now       func() time.Time
}

func NewSessionManager(api AttendanceAPI, store SessionStore, profileID string) *SessionManager {
	return &SessionManager{api: api, store: store, profileID: profileID, now: time.Now}
}

// Start validates the token and stores it as the active session. An already
// expired token is rejected.
func (m *SessionManager) Start(ctx context.Context, accessToken string) error {
	claims, err := ParseAccessToken(accessToken)
	if err != nil {
		return err
	}
	if exp := claims.Expiry(); !exp.IsZero() && !m.now().Before(exp) {
		return ErrSessionExpired
	}

	session := StoredSession{
		AccessToken: accessToken,
		UserID:      claims.UserID,
		Role:        claims.Role,
		Expiry:      claims.Expiry(),
	}
	if err := m.store.Save(ctx, m.profileID, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	slog.Info("Session started", "profile_id", m.profileID, "user_id", claims.UserID, "role", claims.Role)
	return nil
}

// AccessToken returns the current token, refreshing it first when it is
// within RefreshAhead of expiry. An expired session is removed from the
// store and reported as ErrSessionExpired.
func (m *SessionManager) AccessToken(ctx context.Context) (string, error) {
	session, err := m.store.Load(ctx, m.profileID)
	if err != nil {
		return "", err
	}

	now := m.now()
	if !session.Expiry.IsZero() && !now.Before(session.Expiry) {
		slog.Warn("Session expired, removing", "profile_id", m.profileID)
		if err := m.store.Delete(ctx, m.profileID); err != nil {
			slog.Error("Failed to remove expired session", "error", err)
		}
		return "", ErrSessionExpired
	}

	if session.Expiry.IsZero() || session.Expiry.Sub(now) >= RefreshAhead {
		return session.AccessToken, nil
	}

	slog.Info("Access token close to expiry, refreshing", "profile_id", m.profileID,
		"remaining", session.Expiry.Sub(now))
	fresh, err := m.api.RefreshToken(ctx, session.AccessToken)
	if err != nil {
		// The old token is still valid for a few minutes; keep using it.
		slog.Warn("Token refresh failed, keeping current token", "error", err)
		return session.AccessToken, nil
	}

	claims, err := ParseAccessToken(fresh)
	if err != nil {
		return "", fmt.Errorf("refreshed token is malformed: %w", err)
	}
	session.AccessToken = fresh
	session.Expiry = claims.Expiry()
	if err := m.store.Save(ctx, m.profileID, session); err != nil {
		return "", fmt.Errorf("failed to store refreshed session: %w", err)
	}
	return fresh, nil
}

// Session returns the stored session without triggering a refresh.
func (m *SessionManager) Session(ctx context.Context) (StoredSession, error) {
	return m.store.Load(ctx, m.profileID)
}

// End removes the session from the store (logout).
func (m *SessionManager) End(ctx context.Context) error {
	slog.Info("Session ended", "profile_id", m.profileID)
	return m.store.Delete(ctx, m.profileID)
}

// RunRefreshLoop re-checks the session every RefreshInterval until ctx is
// done, mirroring the periodic token check the dashboard performs.
func (m *SessionManager) RunRefreshLoop(ctx context.Context) {
	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.AccessToken(ctx); err != nil {
				slog.Warn("Periodic session check failed", "error", err)
			}
		}
	}
}
