package auth

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

type fakeSubjects map[string]*models.User

func (f fakeSubjects) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeRevocations map[string]bool

func (f fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	return f[id], nil
}

func newTestIssuer(t *testing.T, secret string, now time.Time) *Issuer {
	t.Helper()
	i, err := NewIssuer([]byte(secret), 0, 0)
	if err != nil {
		t.Fatalf("NewIssuer error: %v", err)
	}
	i.now = func() time.Time { return now }
	return i
}

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func TestIssueAccess_RoundTrip(t *testing.T) {
	t.Parallel()

	i := newTestIssuer(t, "super-secret", testNow)
	user := &models.User{ID: "user-123", Roles: []string{"admin", "user"}}

	tok, err := i.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	c, err := i.DecodeAndVerify(tok)
	if err != nil {
		t.Fatalf("DecodeAndVerify error: %v", err)
	}
	if c.Subject != "user-123" || c.Kind != KindAccess {
		t.Fatalf("unexpected claims: %+v", c)
	}
	if !reflect.DeepEqual(c.Scope, []string{"admin", "user"}) {
		t.Fatalf("scope mismatch: %v", c.Scope)
	}
	if c.Audience != "" {
		t.Fatalf("access token must not carry aud, got %q", c.Audience)
	}
	if got := c.ExpiresAt.Sub(c.IssuedAt.Time); got != 7*24*time.Hour {
		t.Fatalf("access ttl = %v", got)
	}
	if c.ID == "" {
		t.Fatal("jti must be set")
	}
}

func TestIssueRefresh_CarriesAudience(t *testing.T) {
	t.Parallel()

	i := newTestIssuer(t, "super-secret", testNow)
	tok, err := i.IssueRefresh(&models.User{ID: "u1", Roles: []string{"admin"}}, "aud-1")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}

	c, err := i.DecodeAndVerify(tok)
	if err != nil {
		t.Fatalf("DecodeAndVerify error: %v", err)
	}
	if c.Kind != KindRefresh || c.Audience != "aud-1" || len(c.Scope) != 0 {
		t.Fatalf("unexpected claims: %+v", c)
	}
	if got := c.ExpiresAt.Sub(c.IssuedAt.Time); got != 28*24*time.Hour {
		t.Fatalf("refresh ttl = %v", got)
	}
}

func TestIssueRefresh_AudIsPlainString(t *testing.T) {
	t.Parallel()

	i := newTestIssuer(t, "s", testNow)
	tok, err := i.IssueRefresh(&models.User{ID: "u1"}, "aud-1")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}

	raw := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, raw); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if aud, ok := raw["aud"].(string); !ok || aud != "aud-1" {
		t.Fatalf("aud should be a string claim, got %#v", raw["aud"])
	}
	if _, ok := raw["scope"]; ok {
		t.Fatal("refresh token must not carry scope")
	}
}

func TestDecodeAndVerify_Failures(t *testing.T) {
	t.Parallel()

	i := newTestIssuer(t, "right-secret", testNow)
	user := &models.User{ID: "u2"}

	wrong := newTestIssuer(t, "wrong-secret", testNow)
	forged, _ := wrong.IssueAccess(user)

	old := newTestIssuer(t, "right-secret", testNow.Add(-8*24*time.Hour))
	expired, _ := old.IssueAccess(user)

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u2", "kind": "access", "iat": testNow.Unix(), "exp": testNow.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "u2", "kind": "access", "iat": testNow.Unix(), "exp": testNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("right-secret"))

	noKind, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u2", "iat": testNow.Unix(), "exp": testNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("right-secret"))

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u2", "kind": "access", "iat": testNow.Unix(),
	}).SignedString([]byte("right-secret"))

	refreshNoAud, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u2", "kind": "refresh", "iat": testNow.Unix(), "exp": testNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("right-secret"))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"wrong secret", forged, common.ErrInvalidSignature},
		{"alg none", none, common.ErrInvalidSignature},
		{"other hmac alg", hs512, common.ErrInvalidSignature},
		{"expired", expired, common.ErrTokenExpired},
		{"garbage", "not-a-jwt", common.ErrMalformedToken},
		{"empty", "", common.ErrMalformedToken},
		{"missing kind", noKind, common.ErrMalformedToken},
		{"missing exp", noExp, common.ErrMalformedToken},
		{"refresh without aud", refreshNoAud, common.ErrMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := i.DecodeAndVerify(tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVerifyAccess_RejectsRefresh(t *testing.T) {
	t.Parallel()

	i := newTestIssuer(t, "s", testNow)
	tok, _ := i.IssueRefresh(&models.User{ID: "u"}, "aud")

	if _, err := i.VerifyAccess(tok); !errors.Is(err, common.ErrTokenKindMismatch) {
		t.Fatalf("want ErrTokenKindMismatch, got %v", err)
	}
}

func TestExchange(t *testing.T) {
	t.Parallel()

	i := newTestIssuer(t, "s", testNow)
	user := &models.User{ID: "u1", Roles: []string{"user"}}
	subjects := fakeSubjects{"u1": user}

	refresh, err := i.IssueRefresh(user, "aud-1")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	access, _ := i.IssueAccess(user)

	// Roles changed after the refresh token was issued.
	user.Roles = []string{"user", "staff"}

	t.Run("success uses current roles", func(t *testing.T) {
		tok, err := i.Exchange(context.Background(), refresh, "aud-1", subjects, nil)
		if err != nil {
			t.Fatalf("Exchange error: %v", err)
		}
		c, err := i.DecodeAndVerify(tok)
		if err != nil {
			t.Fatalf("DecodeAndVerify error: %v", err)
		}
		if c.Kind != KindAccess || c.Subject != "u1" || !reflect.DeepEqual(c.Scope, []string{"user", "staff"}) {
			t.Fatalf("unexpected claims: %+v", c)
		}
	})

	t.Run("refresh stays usable", func(t *testing.T) {
		for n := 0; n < 2; n++ {
			if _, err := i.Exchange(context.Background(), refresh, "aud-1", subjects, nil); err != nil {
				t.Fatalf("exchange #%d: %v", n, err)
			}
		}
	})

	t.Run("other audience", func(t *testing.T) {
		_, err := i.Exchange(context.Background(), refresh, "aud-2", subjects, nil)
		if !errors.Is(err, common.ErrAudienceMismatch) {
			t.Fatalf("want ErrAudienceMismatch, got %v", err)
		}
	})

	t.Run("access token presented", func(t *testing.T) {
		_, err := i.Exchange(context.Background(), access, "aud-1", subjects, nil)
		if !errors.Is(err, common.ErrTokenKindMismatch) {
			t.Fatalf("want ErrTokenKindMismatch, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		old := newTestIssuer(t, "s", testNow.Add(-29*24*time.Hour))
		stale, _ := old.IssueRefresh(user, "aud-1")
		_, err := i.Exchange(context.Background(), stale, "aud-1", subjects, nil)
		if !errors.Is(err, common.ErrTokenExpired) {
			t.Fatalf("want ErrTokenExpired, got %v", err)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		c, _ := i.DecodeAndVerify(refresh)
		_, err := i.Exchange(context.Background(), refresh, "aud-1", subjects, fakeRevocations{c.ID: true})
		if !errors.Is(err, common.ErrTokenRevoked) {
			t.Fatalf("want ErrTokenRevoked, got %v", err)
		}
	})

	t.Run("subject gone", func(t *testing.T) {
		_, err := i.Exchange(context.Background(), refresh, "aud-1", fakeSubjects{}, nil)
		if !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want ErrorNotFound, got %v", err)
		}
	})
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer(nil, time.Hour, time.Hour); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}
