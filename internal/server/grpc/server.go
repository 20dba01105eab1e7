package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/twofactor"
	"github.com/dmitrijs2005/gophauth/internal/server/users"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CredentialFacade is the part of users.Service the transport needs.
type CredentialFacade interface {
	Login(ctx context.Context, email, password, audienceToken string) (*users.TokenPair, error)
	Exchange(ctx context.Context, refreshToken, audienceToken string) (*users.TokenPair, error)
	Register(ctx context.Context, in users.RegisterInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	UpdatePreferences(ctx context.Context, userID string, p twofactor.Preferences) (*models.User, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// AccessVerifier checks access tokens on authenticated calls.
type AccessVerifier interface {
	VerifyAccess(token string) (*auth.Claims, error)
}

type GRPCServer struct {
	address  string
	users    CredentialFacade
	verifier AccessVerifier
	logger   logging.Logger
	health   *health.Server
}

func NewGRPCServer(a string, l logging.Logger, us CredentialFacade, v AccessVerifier) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		users:    us,
		verifier: v,
		health:   health.NewServer(),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&pb.CredentialServiceDesc, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv
}

// Run listens on the configured address and serves until ctx ends.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx ends, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
