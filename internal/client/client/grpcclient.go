package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// credentialAPI is the subset of pb.CredentialServiceClient the client uses.
type credentialAPI interface {
	Login(ctx context.Context, in *pb.LoginRequest, opts ...grpc.CallOption) (*pb.TokenResponse, error)
	Exchange(ctx context.Context, in *pb.ExchangeRequest, opts ...grpc.CallOption) (*pb.TokenResponse, error)
	Register(ctx context.Context, in *pb.RegisterRequest, opts ...grpc.CallOption) (*pb.RegisterResponse, error)
	ChangePassword(ctx context.Context, in *pb.ChangePasswordRequest, opts ...grpc.CallOption) (*pb.Empty, error)
	UpdatePreferences(ctx context.Context, in *pb.UpdatePreferencesRequest, opts ...grpc.CallOption) (*pb.PreferencesResponse, error)
	Revoke(ctx context.Context, in *pb.RevokeRequest, opts ...grpc.CallOption) (*pb.Empty, error)
}

// Tokens is the session a client holds after Login.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// GRPCClient talks to the credential service. Calls that need an access
// token carry it in metadata; when the server reports the token expired the
// client exchanges its refresh token once and retries.
type GRPCClient struct {
	endpointURL   string
	audienceToken string
	conn          *grpc.ClientConn
	client        credentialAPI

	dialOpts      []grpc.DialOption

	mu        sync.Mutex
	tokens    Tokens
	onRefresh func(Tokens)
}

// Option customizes a GRPCClient.
type Option func(*GRPCClient)

// WithTokens starts the client with a previously saved session.
func WithTokens(t Tokens) Option {
	return func(c *GRPCClient) { c.tokens = t }
}

// WithRefreshHook is called with the new session after every successful
// Login or Exchange.
func WithRefreshHook(fn func(Tokens)) Option {
	return func(c *GRPCClient) { c.onRefresh = fn }
}

// withDialOptions appends to the default dial options.
func withDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	tokens := s.Tokens()
	if tokens.AccessToken == "" || !authenticated(method) {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	err := invoker(withAccessToken(ctx, tokens.AccessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if tokens.RefreshToken == "" {
		return err
	}

	if err := s.Exchange(ctx); err != nil {
		return err
	}

	// refreshed, retry once with the new access token
	return invoker(withAccessToken(ctx, s.Tokens().AccessToken), method, req, reply, cc, opts...)
}

func authenticated(method string) bool {
	return method == pb.ChangePasswordMethod || method == pb.UpdatePreferencesMethod
}

// NewGophAuthClient dials endpointURL. audienceToken identifies the calling
// application on Login and Exchange.
func NewGophAuthClient(endpointURL, audienceToken string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, audienceToken: audienceToken}
	for _, o := range opts {
		o(c)
	}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewCredentialServiceClient(conn)
	return nil
}

// Tokens returns the current session.
func (s *GRPCClient) Tokens() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

func (s *GRPCClient) setTokens(t Tokens) {
	s.mu.Lock()
	s.tokens = t
	hook := s.onRefresh
	s.mu.Unlock()

	if hook != nil {
		hook(t)
	}
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) error {
	req := &pb.LoginRequest{Email: email, Password: password, AudienceToken: s.audienceToken}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.setTokens(Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	return nil
}

// Exchange trades the held refresh token for a new access token. The
// refresh token itself is kept.
func (s *GRPCClient) Exchange(ctx context.Context) error {
	current := s.Tokens()
	if current.RefreshToken == "" {
		return ErrNoSession
	}

	req := &pb.ExchangeRequest{RefreshToken: current.RefreshToken, AudienceToken: s.audienceToken}
	resp, err := s.client.Exchange(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.setTokens(Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, userName, password string) (string, error) {
	req := &pb.RegisterRequest{Email: email, Username: userName, Password: password}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.UserID, nil
}

func (s *GRPCClient) ChangePassword(ctx context.Context, current, next string) error {
	if s.Tokens().AccessToken == "" {
		return ErrNoSession
	}

	req := &pb.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	if _, err := s.client.ChangePassword(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

// UpdatePreferences sends only the non-nil fields.
func (s *GRPCClient) UpdatePreferences(ctx context.Context, twoFactor *bool, channel *string) (*pb.PreferencesResponse, error) {
	if s.Tokens().AccessToken == "" {
		return nil, ErrNoSession
	}

	req := &pb.UpdatePreferencesRequest{TwoFactorEnabled: twoFactor, NotificationChannel: channel}
	resp, err := s.client.UpdatePreferences(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// Logout revokes the refresh token and forgets the session.
func (s *GRPCClient) Logout(ctx context.Context) error {
	current := s.Tokens()
	if current.RefreshToken == "" {
		return ErrNoSession
	}

	if _, err := s.client.Revoke(ctx, &pb.RevokeRequest{RefreshToken: current.RefreshToken}); err != nil {
		return s.mapError(err)
	}

	s.setTokens(Tokens{})
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return common.ErrorAlreadyExists
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.FailedPrecondition:
		if hasReason(st, "PASSWORD_REUSED") {
			return common.ErrReuseViolation
		}
	case codes.InvalidArgument:
		if verr := validationFromStatus(st); verr != nil {
			return verr
		}
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	}
	return fmt.Errorf("rpc error: %w", err)
}

// validationFromStatus rebuilds the field violations the server attached.
func validationFromStatus(st *status.Status) *common.ValidationError {
	verr := common.NewValidationError()
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, v := range br.GetFieldViolations() {
			verr.Add(v.GetField(), v.GetDescription())
		}
	}
	if !verr.HasErrors() {
		return nil
	}
	return verr
}

func hasReason(st *status.Status, reason string) bool {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetReason() == reason {
			return true
		}
	}
	return false
}
