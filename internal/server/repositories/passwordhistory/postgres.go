package passwordhistory

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// PostgresRepository orders history by the bigserial id, so eviction follows
// insertion order rather than timestamps.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) LoadRecent(ctx context.Context, userID string, limit int) ([]models.PreviousPassword, error) {
	query := `
		SELECT digest, recorded_at
		FROM previous_passwords
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	history := make([]models.PreviousPassword, 0, limit)
	for rows.Next() {
		var p models.PreviousPassword
		if err := rows.Scan(&p.Digest, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		history = append(history, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return history, nil
}

func (r *PostgresRepository) Append(ctx context.Context, userID, digest string, keep int) error {
	insert := `
		INSERT INTO previous_passwords (user_id, digest)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, insert, userID, digest); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	evict := `
		DELETE FROM previous_passwords
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM previous_passwords
			WHERE user_id = $1
			ORDER BY id DESC
			LIMIT $2
		)
	`
	if _, err := r.db.ExecContext(ctx, evict, userID, keep); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
