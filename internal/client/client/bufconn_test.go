package client

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// stubServer accepts "A1" until it is told the token expired, then only "A2".
type stubServer struct {
	mu        sync.Mutex
	expired   bool
	exchanges int
	changes   int
}

func (s *stubServer) Login(ctx context.Context, in *pb.LoginRequest) (*pb.TokenResponse, error) {
	if in.Password != "Str0ng!Pass" || in.AudienceToken != "aud" {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	return &pb.TokenResponse{AccessToken: "A1", RefreshToken: "R1"}, nil
}

func (s *stubServer) Exchange(ctx context.Context, in *pb.ExchangeRequest) (*pb.TokenResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges++
	return &pb.TokenResponse{AccessToken: "A2", RefreshToken: in.RefreshToken}, nil
}

func (s *stubServer) Register(ctx context.Context, in *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	return &pb.RegisterResponse{UserID: "id-" + in.Username}, nil
}

func (s *stubServer) ChangePassword(ctx context.Context, in *pb.ChangePasswordRequest) (*pb.Empty, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	auth := strings.Join(md.Get(common.AccessTokenHeaderName), "")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expired && auth != "Bearer A2" {
		return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}
	s.changes++
	return &pb.Empty{}, nil
}

func (s *stubServer) UpdatePreferences(ctx context.Context, in *pb.UpdatePreferencesRequest) (*pb.PreferencesResponse, error) {
	return &pb.PreferencesResponse{TwoFactorEnabled: in.TwoFactorEnabled != nil && *in.TwoFactorEnabled}, nil
}

func (s *stubServer) Revoke(ctx context.Context, in *pb.RevokeRequest) (*pb.Empty, error) {
	return &pb.Empty{}, nil
}

func startStub(t *testing.T, stub *stubServer) *GRPCClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&pb.CredentialServiceDesc, stub)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGophAuthClient("passthrough:///bufnet", "aud",
		withDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		})))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_EndToEnd_RefreshesExpiredAccessToken(t *testing.T) {
	stub := &stubServer{}
	c := startStub(t, stub)
	ctx := context.Background()

	require.ErrorIs(t, c.Login(ctx, "u@example.com", "wrong"), ErrUnauthorized)
	require.NoError(t, c.Login(ctx, "u@example.com", "Str0ng!Pass"))
	require.NoError(t, c.ChangePassword(ctx, "Str0ng!Pass", "N3w!Password"))
	require.Equal(t, 0, stub.exchanges)

	stub.mu.Lock()
	stub.expired = true
	stub.mu.Unlock()

	require.NoError(t, c.ChangePassword(ctx, "N3w!Password", "An0ther!Pass"))
	require.Equal(t, 1, stub.exchanges)
	require.Equal(t, 2, stub.changes)
	require.Equal(t, Tokens{AccessToken: "A2", RefreshToken: "R1"}, c.Tokens())

	id, err := c.Register(ctx, "v@example.com", "vee", "Str0ng!Pass")
	require.NoError(t, err)
	require.Equal(t, "id-vee", id)

	on := true
	prefs, err := c.UpdatePreferences(ctx, &on, nil)
	require.NoError(t, err)
	require.True(t, prefs.TwoFactorEnabled)

	require.NoError(t, c.Logout(ctx))
	require.Equal(t, Tokens{}, c.Tokens())
}

func TestNewGophAuthClient_WithTokens(t *testing.T) {
	c, err := NewGophAuthClient("passthrough:///unused", "aud", WithTokens(Tokens{AccessToken: "A", RefreshToken: "R"}))
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, "R", c.Tokens().RefreshToken)
}
