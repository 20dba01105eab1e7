// Package session persists the CLI's token pair between invocations in a
// local SQLite file.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	_ "modernc.org/sqlite"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyEmail        = "email"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);`

// Store is a key/value table holding the current session.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the session database at dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init session schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func get(ctx context.Context, db dbx.DBTX, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key, value string) error {
	if value == "" {
		_, err := db.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, key)
		if err != nil {
			return fmt.Errorf("failed to delete session[%s]: %w", key, err)
		}
		return nil
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", key, err)
	}
	return nil
}

// Tokens returns the saved pair; both fields are empty when logged out.
func (s *Store) Tokens(ctx context.Context) (client.Tokens, error) {
	access, err := get(ctx, s.db, keyAccessToken)
	if err != nil {
		return client.Tokens{}, err
	}
	refresh, err := get(ctx, s.db, keyRefreshToken)
	if err != nil {
		return client.Tokens{}, err
	}
	return client.Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// SaveTokens replaces the saved pair atomically. An empty pair clears it.
func (s *Store) SaveTokens(ctx context.Context, t client.Tokens) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, keyAccessToken, t.AccessToken); err != nil {
			return err
		}
		return set(ctx, tx, keyRefreshToken, t.RefreshToken)
	})
}

// Email is the account the session belongs to.
func (s *Store) Email(ctx context.Context) (string, error) {
	return get(ctx, s.db, keyEmail)
}

func (s *Store) SetEmail(ctx context.Context, email string) error {
	return set(ctx, s.db, keyEmail, email)
}

// Clear forgets everything.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
