package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// PasswordHasher hashes new passwords with the configured algorithm and
// verifies stored hashes of either supported algorithm.
type PasswordHasher struct {
	algorithm string
	cost      int
	params    *argon2id.Params
}

// NewPasswordHasher returns a hasher for algorithm (bcrypt or argon2id).
func NewPasswordHasher(algorithm string) (*PasswordHasher, error) {
	switch strings.ToLower(algorithm) {
	case "", AlgorithmBcrypt:
		return &PasswordHasher{algorithm: AlgorithmBcrypt, cost: bcrypt.DefaultCost}, nil
	case AlgorithmArgon2id:
		return &PasswordHasher{algorithm: AlgorithmArgon2id, params: argon2id.DefaultParams}, nil
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}
}

// Hash returns an encoded hash suitable for storage.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		hash, err := argon2id.CreateHash(plain, h.params)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		return hash, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches the stored hash.
func (h *PasswordHasher) Verify(plain, encoded string) (bool, error) {
	if strings.HasPrefix(encoded, "$argon2id$") {
		return argon2id.ComparePasswordAndHash(plain, encoded)
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	return true, nil
}
