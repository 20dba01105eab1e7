// Package refreshtokens declares the revocation list for refresh tokens.
// Refresh tokens are stateless JWTs; only revoked token ids are stored.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository records and queries revoked refresh token ids.
type Repository interface {
	// Revoke adds tokenID to the list. Revoking twice is not an error.
	Revoke(ctx context.Context, tokenID, userID string, expiresAt time.Time) error

	// IsRevoked reports whether tokenID is on the list.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// Find returns the revocation entry for tokenID or common.ErrorNotFound.
	Find(ctx context.Context, tokenID string) (*models.RevokedToken, error)

	// DeleteExpired drops entries whose token would have expired anyway.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
