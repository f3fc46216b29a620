package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided refresh token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired indicates the refresh token has expired and cannot be used.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrTokenRevoked indicates the access token was revoked by a logout.
	ErrTokenRevoked = errors.New("access token revoked")
)

// SessionStore persists issued refresh tokens so they can survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Find(ctx context.Context, refreshToken string) (Session, error)
	Delete(ctx context.Context, refreshToken string) error
	DeleteForUser(ctx context.Context, userID string) error
}

// UserLookup resolves the identity claims embedded in refreshed access tokens.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Revocations records revoked access token ids.
type Revocations interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Session represents a refresh token issued to a user.
type Session struct {
	RefreshToken string
	UserID       string
	ExpiresAt    time.Time
}

// Manager manages the lifecycle of issued session tokens backed by a persistent store.
type Manager struct {
	tokens     *TokenManager
	refreshTTL time.Duration

	store   SessionStore
	users   UserLookup
	revoked Revocations
}

// NewManager constructs a Manager that issues signed access tokens and opaque
// refresh tokens. revoked may be nil, in which case logouts only clear the
// refresh token.
func NewManager(tokens *TokenManager, refreshTTL time.Duration, store SessionStore, users UserLookup, revoked Revocations) *Manager {
	if tokens == nil || store == nil || users == nil {
		panic("auth: token manager, session store and user lookup must not be nil")
	}
	return &Manager{
		tokens:     tokens,
		refreshTTL: refreshTTL,
		store:      store,
		users:      users,
		revoked:    revoked,
	}
}

// Issue creates a new pair of access and refresh tokens for the user,
// replacing any refresh token the user held before.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	if user.ID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	accessToken, principal, err := m.tokens.Issue(user.ID, user.Username, user.Email)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, err := randomToken()
	if err != nil {
		return models.SessionTokens{}, err
	}

	tokens := models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  principal.ExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: time.Now().UTC().Add(m.refreshTTL),
	}

	if err := m.store.Save(ctx, Session{
		RefreshToken: refreshToken,
		UserID:       user.ID,
		ExpiresAt:    tokens.RefreshExpiresAt,
	}); err != nil {
		return models.SessionTokens{}, err
	}

	return tokens, nil
}

// Refresh exchanges a refresh token for a new session token pair.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, refreshToken)
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}

	user, err := m.users.FindByID(ctx, session.UserID)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("load session user: %w", err)
	}

	return m.Issue(ctx, user)
}

// Authenticate verifies an access token and checks it has not been revoked.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	principal, err := m.tokens.Parse(accessToken)
	if err != nil {
		return Principal{}, err
	}
	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, principal.TokenID)
		if err != nil {
			// Fail open when the revocation store is unreachable.
			logging.FromContext(ctx).Warn("token revocation lookup failed", "error", err)
		} else if revoked {
			return Principal{}, ErrTokenRevoked
		}
	}
	return principal, nil
}

// Revoke ends the principal's session: the stored refresh token is cleared
// and the access token is blacklisted until it expires.
func (m *Manager) Revoke(ctx context.Context, principal Principal) error {
	if err := m.store.DeleteForUser(ctx, principal.UserID); err != nil {
		return err
	}
	if m.revoked != nil && principal.TokenID != "" {
		if err := m.revoked.Revoke(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}
	return nil
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
