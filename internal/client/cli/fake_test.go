package cli

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type fakeClient struct {
	tokens    client.Tokens
	onRefresh func(client.Tokens)

	loginErr error
	changes  [][2]string
	prefs    *pb.UpdatePreferencesRequest
	closed   bool
}

func (f *fakeClient) Close() error { f.closed = true; return nil }

func (f *fakeClient) set(t client.Tokens) {
	f.tokens = t
	f.onRefresh(t)
}

func (f *fakeClient) Login(ctx context.Context, email, password string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	if password != "Str0ng!Pass" {
		return client.ErrUnauthorized
	}
	f.set(client.Tokens{AccessToken: "A-" + email, RefreshToken: "R-" + email})
	return nil
}

func (f *fakeClient) Exchange(ctx context.Context) error {
	if f.tokens.RefreshToken == "" {
		return client.ErrNoSession
	}
	f.set(client.Tokens{AccessToken: "A-renewed", RefreshToken: f.tokens.RefreshToken})
	return nil
}

func (f *fakeClient) Register(ctx context.Context, email, userName, password string) (string, error) {
	if len(password) < 8 {
		v := common.NewValidationError()
		v.Add("password", "too_short")
		return "", v
	}
	return "id-" + userName, nil
}

func (f *fakeClient) ChangePassword(ctx context.Context, current, next string) error {
	if f.tokens.AccessToken == "" {
		return client.ErrNoSession
	}
	f.changes = append(f.changes, [2]string{current, next})
	return nil
}

func (f *fakeClient) UpdatePreferences(ctx context.Context, twoFactor *bool, channel *string) (*pb.PreferencesResponse, error) {
	f.prefs = &pb.UpdatePreferencesRequest{TwoFactorEnabled: twoFactor, NotificationChannel: channel}
	resp := &pb.PreferencesResponse{NotificationChannel: "email"}
	if twoFactor != nil {
		resp.TwoFactorEnabled = *twoFactor
	}
	if channel != nil {
		resp.NotificationChannel = *channel
	}
	return resp, nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	if f.tokens.RefreshToken == "" {
		return client.ErrNoSession
	}
	f.set(client.Tokens{})
	return nil
}

func (f *fakeClient) Tokens() client.Tokens { return f.tokens }

type fakeAdmin struct {
	migrated  bool
	audiences []models.Audience
	resets    map[string]string
	roles     map[string][]string
	closed    bool
	err       error
}

func (f *fakeAdmin) Migrate(ctx context.Context) error {
	f.migrated = true
	return f.err
}

func (f *fakeAdmin) RegisterAudience(ctx context.Context, name string) (*models.Audience, error) {
	if f.err != nil {
		return nil, f.err
	}
	a := models.Audience{ID: "aud-" + name, Name: name, Token: "tok-" + name}
	f.audiences = append(f.audiences, a)
	return &a, nil
}

func (f *fakeAdmin) ListAudiences(ctx context.Context) ([]models.Audience, error) {
	return f.audiences, f.err
}

func (f *fakeAdmin) ResetPassword(ctx context.Context, email, password string) error {
	if f.err != nil {
		return f.err
	}
	if f.resets == nil {
		f.resets = map[string]string{}
	}
	f.resets[email] = password
	return nil
}

func (f *fakeAdmin) AssignRoles(ctx context.Context, email string, roles []string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.roles == nil {
		f.roles = map[string][]string{}
	}
	f.roles[email] = roles
	return &models.User{Email: email, Roles: models.NormalizeRoles(roles)}, nil
}

func (f *fakeAdmin) Close() error {
	f.closed = true
	return nil
}

type harness struct {
	app    *App
	out    *bytes.Buffer
	remote *fakeClient
	admin  *fakeAdmin
	dials  int
}

func newHarness(t *testing.T, stdin string) *harness {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SessionFile = filepath.Join(t.TempDir(), "session.db")
	cfg.AudienceToken = "aud"
	cfg.RequestTimeout = 5 * time.Second

	h := &harness{out: &bytes.Buffer{}, admin: &fakeAdmin{}}
	h.app = &App{
		cfg: cfg,
		in:  bufio.NewReader(strings.NewReader(stdin)),
		out: h.out,
		dial: func(_ *config.Config, tokens client.Tokens, onRefresh func(client.Tokens)) (client.Client, error) {
			h.dials++
			h.remote = &fakeClient{tokens: tokens, onRefresh: onRefresh}
			return h.remote, nil
		},
		openAdmin: func(context.Context) (Admin, error) { return h.admin, nil },
	}
	return h
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	return h.app.Execute(context.Background(), args)
}
