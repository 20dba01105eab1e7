// Package users is the credential lifecycle facade: login, refresh exchange,
// registration, password changes and two-factor preferences.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/audiences"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/passwords"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/twofactor"
)

const (
	minUserNameLength = 3
	maxUserNameLength = 150
)

// TokenPair bundles an access token and the audience-bound refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput is what a new account needs.
type RegisterInput struct {
	Email    string
	UserName string
	Password string
}

// Service wires the audience registry, hashing pool, reuse guard, token
// issuer and seed manager over the repositories.
type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	audiences   *audiences.Registry
	issuer      *auth.Issuer
	hashing     *passwords.Pool
	guard       *passwords.ReuseGuard
	seeds       *twofactor.Manager
	privileged  models.RoleSet
	logger      logging.Logger
	now         func() time.Time
}

// NewService constructs the facade. privileged is the role set whose members
// are subject to password reuse checks.
func NewService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	registry *audiences.Registry,
	issuer *auth.Issuer,
	pool *passwords.Pool,
	privileged models.RoleSet,
	logger logging.Logger,
) *Service {
	return &Service{
		db:          db,
		repomanager: m,
		audiences:   registry,
		issuer:      issuer,
		hashing:     pool,
		guard:       passwords.NewReuseGuard(pool),
		seeds:       twofactor.NewManager(),
		privileged:  privileged,
		logger:      logger.With("module", "users"),
		now:         time.Now,
	}
}

// Login verifies credentials for the audience behind audienceToken and
// returns a token pair. Every failure is reported as common.ErrDenied.
func (s *Service) Login(ctx context.Context, email, password, audienceToken string) (*TokenPair, error) {
	pair, err := s.login(ctx, normalizeEmail(email), password, audienceToken)
	if err != nil {
		return nil, s.deny(ctx, "login", err)
	}
	return pair, nil
}

func (s *Service) login(ctx context.Context, email, password, audienceToken string) (*TokenPair, error) {
	audienceID, err := s.audiences.Resolve(ctx, audienceToken)
	if err != nil {
		return nil, deniedBy(reasonAudience, err)
	}

	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil {
		// Unknown and unreadable accounts cost the same as a wrong password.
		if verr := s.hashing.VerifyAbsent(ctx); verr != nil {
			return nil, deniedBy(reasonCanceled, verr)
		}
		if errors.Is(err, common.ErrorNotFound) {
			return nil, deniedBy(reasonUnknownUser, err)
		}
		return nil, deniedBy(reasonStore, err)
	}

	ok, err := s.hashing.Verify(ctx, password, user.PasswordDigest)
	if err != nil {
		return nil, deniedBy(reasonCanceled, err)
	}
	if !ok {
		return nil, deniedBy(reasonWrongPassword, nil)
	}

	access, err := s.issuer.IssueAccess(user)
	if err != nil {
		return nil, deniedBy(reasonIssue, err)
	}
	refresh, err := s.issuer.IssueRefresh(user, audienceID)
	if err != nil {
		return nil, deniedBy(reasonIssue, err)
	}

	s.logger.Info(ctx, "login succeeded", "user_id", user.ID, "audience_id", audienceID)
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Exchange trades a refresh token for a new access token. The refresh
// token is returned unchanged. Every failure is common.ErrDenied.
func (s *Service) Exchange(ctx context.Context, refreshToken, audienceToken string) (*TokenPair, error) {
	audienceID, err := s.audiences.Resolve(ctx, audienceToken)
	if err != nil {
		return nil, s.deny(ctx, "exchange", deniedBy(reasonAudience, err))
	}

	access, err := s.issuer.Exchange(ctx, refreshToken, audienceID,
		s.repomanager.Users(s.db), s.repomanager.RefreshTokens(s.db))
	if err != nil {
		return nil, s.deny(ctx, "exchange", deniedBy(reasonToken, err))
	}

	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Register validates input, hashes the password and creates the account with
// the default role. Field problems come back as *common.ValidationError.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)

	v := common.NewValidationError()
	if !validEmail(email) {
		v.Add("email", "invalid")
	}
	if n := utf8.RuneCountInString(in.UserName); n < minUserNameLength || n > maxUserNameLength {
		v.Add("username", "invalid_length")
	}
	if rules := passwords.Violations(in.Password); len(rules) > 0 {
		v.Add("password", rules...)
	}
	if v.HasErrors() {
		return nil, v
	}

	// Optimistic; the unique index has the final word.
	if _, err := s.repomanager.Users(s.db).FindByEmail(ctx, email); err == nil {
		v.Add("email", "taken")
		return nil, v
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	digest, err := s.hashing.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:          email,
		UserName:       in.UserName,
		PasswordDigest: digest,
		Roles:          []string{models.RoleUser},
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.PasswordHistory(tx).Append(ctx, user.ID, digest, passwords.HistoryLimit)
	})
	if err != nil {
		switch {
		case errors.Is(err, usersrepo.ErrUsernameTaken):
			v.Add("username", "taken")
			return nil, v
		case errors.Is(err, common.ErrorAlreadyExists):
			v.Add("email", "taken")
			return nil, v
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	user.PreviousPasswords = s.guard.Record(nil, digest, s.now())
	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
// Privileged users may not reuse any of their last six passwords.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := passwords.Validate("new_password", next); err != nil {
		return err
	}

	ok, err := s.hashing.Verify(ctx, current, user.PasswordDigest)
	if err != nil {
		return err
	}
	if !ok {
		v := common.NewValidationError()
		v.Add("current_password", "mismatch")
		return v
	}

	return s.setPassword(ctx, user, next)
}

// ResetPassword sets a password without knowing the current one. It is an
// operator action and still honours the policy and the reuse guard.
func (s *Service) ResetPassword(ctx context.Context, email, next string) error {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if err := passwords.Validate("new_password", next); err != nil {
		return err
	}
	return s.setPassword(ctx, user, next)
}

func (s *Service) setPassword(ctx context.Context, user *models.User, next string) error {
	history, err := s.repomanager.PasswordHistory(s.db).LoadRecent(ctx, user.ID, passwords.HistoryLimit)
	if err != nil {
		return fmt.Errorf("load password history: %w", err)
	}

	if err := s.guard.Check(ctx, next, s.privileged.IsPrivileged(user), history); err != nil {
		return err
	}

	digest, err := s.hashing.Hash(ctx, next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	updated := *user
	updated.PasswordDigest = digest

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Update(ctx, &updated); err != nil {
			return err
		}
		return s.repomanager.PasswordHistory(tx).Append(ctx, user.ID, digest, passwords.HistoryLimit)
	})
	if err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	updated.PreviousPasswords = s.guard.Record(history, digest, s.now())
	*user = updated
	s.logger.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// UpdatePreferences applies a partial preference change and keeps the
// two-factor seed consistent with it.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, p twofactor.Preferences) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := *user
	seedChanged, err := s.seeds.Apply(&updated, p)
	if err != nil {
		return nil, err
	}

	if err := repo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("store preferences: %w", err)
	}

	s.logger.Info(ctx, "preferences updated", "user_id", userID,
		"two_factor_enabled", updated.TwoFactorEnabled, "seed_changed", seedChanged)
	return &updated, nil
}

// AssignRoles replaces the roles of the user with the given email.
func (s *Service) AssignRoles(ctx context.Context, email string, roles []string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if err := repo.ReplaceRoles(ctx, user.ID, roles); err != nil {
		return nil, err
	}
	user.Roles = models.NormalizeRoles(roles)

	s.logger.Info(ctx, "roles assigned", "user_id", user.ID, "roles", user.Roles)
	return user, nil
}

// Revoke puts a refresh token on the revocation list. Tokens that already
// expired need no entry and are accepted silently.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.issuer.DecodeAndVerify(refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil
		}
		return common.ErrInvalidToken
	}
	if claims.Kind != auth.KindRefresh || claims.ID == "" {
		return common.ErrInvalidToken
	}

	if err := s.repomanager.RefreshTokens(s.db).Revoke(ctx, claims.ID, claims.Subject, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.logger.Info(ctx, "refresh token revoked", "user_id", claims.Subject, "token_id", claims.ID)
	return nil
}

// PurgeRevocations drops revocation entries for tokens past their expiry.
func (s *Service) PurgeRevocations(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
