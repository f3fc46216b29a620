package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indicates an access token failed signature or claim validation.
var ErrInvalidToken = errors.New("invalid access token")

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type accessClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// NewTokenManager constructs a TokenManager. The secret must not be empty.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if secret == "" {
		panic("auth: token secret must not be empty")
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs an access token for the identity and returns the principal it encodes.
func (m *TokenManager) Issue(userID, username, email string) (string, Principal, error) {
	now := m.now().UTC()
	jti := uuid.NewString()
	claims := accessClaims{
		UserID:   userID,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Principal{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, Principal{
		UserID:    userID,
		Username:  username,
		Email:     email,
		TokenID:   jti,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse validates signature, issuer and expiry and returns the encoded principal.
func (m *TokenManager) Parse(raw string) (Principal, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return Principal{}, ErrInvalidToken
	}

	return Principal{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// TTL reports the lifetime of issued access tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}
