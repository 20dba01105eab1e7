// Package passwordhistory persists the bounded list of digests a user has
// set, used to refuse recent reuse.
package passwordhistory

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// LoadRecent returns up to limit digests, most recently recorded first.
	LoadRecent(ctx context.Context, userID string, limit int) ([]models.PreviousPassword, error)

	// Append records digest and evicts everything beyond the newest keep rows.
	Append(ctx context.Context, userID, digest string, keep int) error
}
