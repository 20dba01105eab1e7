package models

import "time"

// RevokedToken is an entry of the refresh-token revocation list, keyed by the
// token's jti. Rows can be purged once ExpiresAt has passed.
type RevokedToken struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
