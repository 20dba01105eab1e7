package users

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/audiences"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/passwords"
	audiencesrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/audiences"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/passwordhistory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

const (
	testAudienceToken = "aud-token"
	testAudienceID    = "aud-1"
)

type nopLogger struct{}

func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// fakeHasher stores passwords behind a marker prefix and counts derivations.
type fakeHasher struct {
	mu       sync.Mutex
	hashes   int
	verifies int
	absent   int
}

func (f *fakeHasher) Hash(password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hashes++
	return "fake$" + password, nil
}

func (f *fakeHasher) Verify(password, digest string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifies++
	return strings.HasPrefix(digest, "fake$") && digest == "fake$"+password
}

func (f *fakeHasher) VerifyAbsent() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.absent++
	return false
}

func (f *fakeHasher) derivations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifies + f.absent
}

type memUsers struct {
	byID      map[string]*models.User
	nextID    int
	findErr   error
	createErr error
	updateErr error
	updates   int
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*models.User{}} }

func (m *memUsers) put(u *models.User) *models.User {
	cp := *u
	m.byID[u.ID] = &cp
	return u
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	u.ID = fmt.Sprintf("u%d", m.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.put(u)
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.byID[u.ID]; !ok {
		return common.ErrorNotFound
	}
	m.updates++
	m.put(u)
	return nil
}

func (m *memUsers) ReplaceRoles(_ context.Context, userID string, roles []string) error {
	u, ok := m.byID[userID]
	if !ok {
		return common.ErrorNotFound
	}
	u.Roles = models.NormalizeRoles(roles)
	return nil
}

type memHistory struct {
	byUser    map[string][]models.PreviousPassword
	appendErr error
}

func newMemHistory() *memHistory {
	return &memHistory{byUser: map[string][]models.PreviousPassword{}}
}

func (m *memHistory) LoadRecent(_ context.Context, userID string, limit int) ([]models.PreviousPassword, error) {
	h := m.byUser[userID]
	if len(h) > limit {
		h = h[:limit]
	}
	return append([]models.PreviousPassword(nil), h...), nil
}

func (m *memHistory) Append(_ context.Context, userID, digest string, keep int) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	h := append([]models.PreviousPassword{{Digest: digest, RecordedAt: time.Now()}}, m.byUser[userID]...)
	if len(h) > keep {
		h = h[:keep]
	}
	m.byUser[userID] = h
	return nil
}

func (m *memHistory) digests(userID string) []string {
	out := make([]string, 0, len(m.byUser[userID]))
	for _, p := range m.byUser[userID] {
		out = append(out, p.Digest)
	}
	return out
}

type memRevocations struct {
	entries map[string]models.RevokedToken
}

func newMemRevocations() *memRevocations {
	return &memRevocations{entries: map[string]models.RevokedToken{}}
}

func (m *memRevocations) Revoke(_ context.Context, tokenID, userID string, expiresAt time.Time) error {
	m.entries[tokenID] = models.RevokedToken{TokenID: tokenID, UserID: userID, ExpiresAt: expiresAt, RevokedAt: time.Now()}
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := m.entries[tokenID]
	return ok, nil
}

func (m *memRevocations) Find(_ context.Context, tokenID string) (*models.RevokedToken, error) {
	e, ok := m.entries[tokenID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &e, nil
}

func (m *memRevocations) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, e := range m.entries {
		if !e.ExpiresAt.After(now) {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

type memAudiences struct {
	byToken map[string]*models.Audience
}

func (m *memAudiences) FindByToken(_ context.Context, token string) (*models.Audience, error) {
	a, ok := m.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

func (m *memAudiences) Create(_ context.Context, a *models.Audience) (*models.Audience, error) {
	m.byToken[a.Token] = a
	return a, nil
}

func (m *memAudiences) List(context.Context) ([]models.Audience, error) {
	out := make([]models.Audience, 0, len(m.byToken))
	for _, a := range m.byToken {
		out = append(out, *a)
	}
	return out, nil
}

type fakeRepoManager struct {
	users     *memUsers
	history   *memHistory
	revoked   *memRevocations
	audiences *memAudiences
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                 { return m.users }
func (m *fakeRepoManager) Audiences(dbx.DBTX) audiencesrepo.Repository         { return m.audiences }
func (m *fakeRepoManager) PasswordHistory(dbx.DBTX) passwordhistory.Repository { return m.history }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository     { return m.revoked }

type fixture struct {
	svc    *Service
	rm     *fakeRepoManager
	hasher *fakeHasher
	issuer *auth.Issuer
	mock   sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rm := &fakeRepoManager{
		users:   newMemUsers(),
		history: newMemHistory(),
		revoked: newMemRevocations(),
		audiences: &memAudiences{byToken: map[string]*models.Audience{
			testAudienceToken: {ID: testAudienceID, Name: "web", Token: testAudienceToken},
		}},
	}

	issuer, err := auth.NewIssuer([]byte("test-secret"), 0, 0)
	if err != nil {
		t.Fatalf("NewIssuer error: %v", err)
	}

	hasher := &fakeHasher{}
	pool := passwords.NewPool(hasher, 2)
	registry := audiences.NewRegistry(rm.audiences, nil, nopLogger{})

	svc := NewService(db, rm, registry, issuer, pool, models.DefaultPrivilegedRoles(), nopLogger{})
	return &fixture{svc: svc, rm: rm, hasher: hasher, issuer: issuer, mock: mock}
}

// seedUser stores a user whose password is pw.
func (f *fixture) seedUser(id, email, pw string, roles ...string) *models.User {
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}
	return f.rm.users.put(&models.User{
		ID:             id,
		Email:          email,
		UserName:       id,
		PasswordDigest: "fake$" + pw,
		Roles:          roles,
	})
}
