package audiences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByToken matches the token byte for byte.
func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.Audience, error) {
	query := `
		SELECT id, name, token, created_at
		FROM audiences
		WHERE token = $1
	`
	a := &models.Audience{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&a.ID, &a.Name, &a.Token, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Audience) (*models.Audience, error) {
	query := `
		INSERT INTO audiences (name, token)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, a.Name, a.Token).Scan(&a.ID, &a.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Audience, error) {
	query := `
		SELECT id, name, token, created_at
		FROM audiences
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Audience
	for rows.Next() {
		var a models.Audience
		if err := rows.Scan(&a.ID, &a.Name, &a.Token, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
