package repo

import (
	"context"
	"time"
)

// TokenRepo is a deny list for access tokens revoked before their natural
// expiry (logout). Keys are digests of the raw token, not the token itself.
type TokenRepo interface {
	RevokeAccess(ctx context.Context, digest string, expiresAt time.Time) error

	IsAccessRevoked(ctx context.Context, digest string) (bool, error)
}
