package auth

import (
	"context"
	"time"
)

// KV is the subset of a key/value cache used for token revocation.
type KV interface {
	SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Blacklist marks access tokens as revoked until they expire.
type Blacklist struct {
	kv     KV
	prefix string
}

// NewBlacklist constructs a revocation list over kv.
func NewBlacklist(kv KV) *Blacklist {
	return &Blacklist{kv: kv, prefix: "vidhub:revoked:"}
}

// Revoke records the token id as revoked until exp.
func (b *Blacklist) Revoke(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		ttl = time.Minute
	}
	_, err := b.kv.SetNX(ctx, b.prefix+jti, []byte("1"), ttl)
	return err
}

// IsRevoked reports whether the token id was revoked.
func (b *Blacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return b.kv.Exists(ctx, b.prefix+jti)
}
