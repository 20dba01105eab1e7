// Package auth signs and verifies the service's bearer tokens (JWT, HS256)
// and performs the refresh-for-access exchange.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 7 * 24 * time.Hour
	DefaultRefreshTTL = 4 * 7 * 24 * time.Hour
)

// Subjects loads the current state of a token subject.
type Subjects interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RevocationList answers whether a refresh token id was revoked.
type RevocationList interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Issuer mints and verifies tokens with one process-wide HMAC secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	newID      func() string
}

// NewIssuer returns common.ErrConfiguration when secret is empty.
// Non-positive TTLs fall back to the defaults.
func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty token signing secret", common.ErrConfiguration)
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Issuer{
		secret:     append([]byte(nil), secret...),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		newID:      uuid.NewString,
	}, nil
}

// IssueAccess mints an access token whose scope is the user's role names.
func (i *Issuer) IssueAccess(user *models.User) (string, error) {
	scope := append([]string{}, user.Roles...)
	return i.sign(&Claims{
		Subject: user.ID,
		Kind:    KindAccess,
		Scope:   scope,
	}, i.accessTTL)
}

// IssueRefresh mints a refresh token bound to audienceID.
func (i *Issuer) IssueRefresh(user *models.User, audienceID string) (string, error) {
	return i.sign(&Claims{
		Subject:  user.ID,
		Kind:     KindRefresh,
		Audience: audienceID,
	}, i.refreshTTL)
}

func (i *Issuer) sign(c *Claims, ttl time.Duration) (string, error) {
	now := i.now()
	c.ID = i.newID()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// DecodeAndVerify checks signature, expiry and shape. Errors are one of
// common.ErrInvalidSignature, common.ErrTokenExpired or common.ErrMalformedToken.
func (i *Issuer) DecodeAndVerify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, common.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, common.ErrTokenExpired
	default:
		return nil, common.ErrMalformedToken
	}

	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, common.ErrMalformedToken
	}
	switch claims.Kind {
	case KindAccess:
	case KindRefresh:
		if claims.Audience == "" {
			return nil, common.ErrMalformedToken
		}
	default:
		return nil, common.ErrMalformedToken
	}
	return claims, nil
}

// VerifyAccess is DecodeAndVerify restricted to access tokens.
func (i *Issuer) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := i.DecodeAndVerify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != KindAccess {
		return nil, common.ErrTokenKindMismatch
	}
	return claims, nil
}

// Exchange turns a refresh token issued for audienceID into a new access
// token carrying the subject's current roles. The refresh token itself is
// left valid. revocations may be nil.
func (i *Issuer) Exchange(ctx context.Context, refreshToken, audienceID string, subjects Subjects, revocations RevocationList) (string, error) {
	claims, err := i.DecodeAndVerify(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Kind != KindRefresh {
		return "", common.ErrTokenKindMismatch
	}
	if claims.Audience != audienceID {
		return "", common.ErrAudienceMismatch
	}

	if revocations != nil && claims.ID != "" {
		revoked, err := revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return "", fmt.Errorf("revocation lookup: %w", err)
		}
		if revoked {
			return "", common.ErrTokenRevoked
		}
	}

	user, err := subjects.FindByID(ctx, claims.Subject)
	if err != nil {
		return "", fmt.Errorf("load subject: %w", err)
	}
	return i.IssueAccess(user)
}
