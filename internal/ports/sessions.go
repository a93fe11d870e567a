package ports

import (
	"context"
	"time"

	"tradepost/internal/domain"
)

// TokenRecord is a stored bearer token. Only the SHA-256 hash of the opaque
// token ever reaches storage.
type TokenRecord struct {
	Hash      string
	Principal domain.PrincipalRef
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// TokenRepository supports minting, resolving and revoking bearer tokens.
type TokenRepository interface {
	InsertToken(ctx context.Context, rec TokenRecord) error
	LookupToken(ctx context.Context, hash string) (rec TokenRecord, found bool, err error)
	RevokeToken(ctx context.Context, hash string) error

	// RevokeOtherTokens invalidates every live token of principal except the
	// one with keepHash. Used by the change-password flow.
	RevokeOtherTokens(ctx context.Context, principal domain.PrincipalRef, keepHash string) error

	// PurgeExpiredTokens deletes tokens that expired or were revoked before
	// the cutoff and reports how many went. Revoked tokens are kept until the
	// cutoff so a resolve can still distinguish "revoked" from "unknown".
	PurgeExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}
