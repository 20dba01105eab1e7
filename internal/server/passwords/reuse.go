package passwords

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// HistoryLimit is how many previous digests are kept and checked.
const HistoryLimit = 6

// ReuseGuard rejects a new password that matches one of the user's recent
// digests. Only privileged users are checked.
type ReuseGuard struct {
	pool  *Pool
	limit int
}

func NewReuseGuard(pool *Pool) *ReuseGuard {
	return &ReuseGuard{pool: pool, limit: HistoryLimit}
}

// Check verifies candidate against history one digest at a time and returns
// common.ErrReuseViolation on the first match. history is most recent first.
func (g *ReuseGuard) Check(ctx context.Context, candidate string, privileged bool, history []models.PreviousPassword) error {
	if !privileged {
		return nil
	}
	if len(history) > g.limit {
		history = history[:g.limit]
	}
	for _, prev := range history {
		ok, err := g.pool.Verify(ctx, candidate, prev.Digest)
		if err != nil {
			return err
		}
		if ok {
			return common.ErrReuseViolation
		}
	}
	return nil
}

// Record returns a new history with digest in front and the oldest entries
// beyond the limit dropped. The input slice is not modified.
func (g *ReuseGuard) Record(history []models.PreviousPassword, digest string, at time.Time) []models.PreviousPassword {
	n := len(history) + 1
	if n > g.limit {
		n = g.limit
	}
	out := make([]models.PreviousPassword, 0, n)
	out = append(out, models.PreviousPassword{Digest: digest, RecordedAt: at})
	for _, prev := range history {
		if len(out) == n {
			break
		}
		out = append(out, prev)
	}
	return out
}
