package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Unique-violation errors; both match common.ErrorAlreadyExists.
var (
	ErrEmailTaken    = fmt.Errorf("email %w", common.ErrorAlreadyExists)
	ErrUsernameTaken = fmt.Errorf("username %w", common.ErrorAlreadyExists)
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user and its roles. Unique violations come back as
// ErrEmailTaken or ErrUsernameTaken. Run it inside a transaction so the
// roles land atomically with the user.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, username, password_digest, two_factor_enabled, two_factor_seed, notification_channel, provider)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.UserName, user.PasswordDigest, user.TwoFactorEnabled,
		user.TwoFactorSeed, user.NotificationChannel, user.Provider,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if taken := uniqueError(err); taken != nil {
			return nil, taken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.ReplaceRoles(ctx, user.ID, user.Roles); err != nil {
		return nil, err
	}

	return user, nil
}

const selectUser = `SELECT id, email, username, password_digest, two_factor_enabled, two_factor_seed,
		 notification_channel, provider, created_at, updated_at FROM users
		 `

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, selectUser+`WHERE email = $1`, email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, selectUser+`WHERE id = $1`, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.UserName, &user.PasswordDigest, &user.TwoFactorEnabled,
		&user.TwoFactorSeed, &user.NotificationChannel, &user.Provider, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Roles, err = r.roles(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *PostgresRepository) roles(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT role FROM user_roles
		 WHERE user_id = $1
		 ORDER BY position
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return roles, nil
}

// Update writes the mutable columns of user. Roles are managed by
// ReplaceRoles.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET email = $2, username = $3, password_digest = $4, two_factor_enabled = $5,
		 two_factor_seed = $6, notification_channel = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.UserName, user.PasswordDigest, user.TwoFactorEnabled,
		user.TwoFactorSeed, user.NotificationChannel,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if taken := uniqueError(err); taken != nil {
			return taken
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// ReplaceRoles stores roles in the given order, dropping duplicates.
func (r *PostgresRepository) ReplaceRoles(ctx context.Context, userID string, roles []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO user_roles (user_id, role, position)
		 VALUES ($1, $2, $3)
		 `

	for i, role := range models.NormalizeRoles(roles) {
		if _, err := r.db.ExecContext(ctx, query, userID, role, i); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func uniqueError(err error) error {
	switch {
	case dbx.IsUniqueViolation(err, "users_username_key"):
		return ErrUsernameTaken
	case dbx.IsUniqueViolation(err, ""):
		return ErrEmailTaken
	}
	return nil
}
