package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/twofactor"
	"github.com/dmitrijs2005/gophauth/internal/server/users"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ pb.CredentialServiceServer = (*GRPCServer)(nil)

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.TokenResponse, error) {
	tokens, err := s.users.Login(ctx, req.Email, req.Password, req.AudienceToken)
	if err != nil {
		return nil, s.toStatus(ctx, pb.LoginMethod, err)
	}
	return &pb.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Exchange(ctx context.Context, req *pb.ExchangeRequest) (*pb.TokenResponse, error) {
	tokens, err := s.users.Exchange(ctx, req.RefreshToken, req.AudienceToken)
	if err != nil {
		return nil, s.toStatus(ctx, pb.ExchangeMethod, err)
	}
	return &pb.TokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	user, err := s.users.Register(ctx, users.RegisterInput{
		Email:    req.Email,
		UserName: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, s.toStatus(ctx, pb.RegisterMethod, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return &pb.RegisterResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *pb.ChangePasswordRequest) (*pb.Empty, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	if err := s.users.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, s.toStatus(ctx, pb.ChangePasswordMethod, err)
	}
	return &pb.Empty{}, nil
}

func (s *GRPCServer) UpdatePreferences(ctx context.Context, req *pb.UpdatePreferencesRequest) (*pb.PreferencesResponse, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	user, err := s.users.UpdatePreferences(ctx, userID, twofactor.Preferences{
		TwoFactorEnabled:    req.TwoFactorEnabled,
		NotificationChannel: req.NotificationChannel,
	})
	if err != nil {
		return nil, s.toStatus(ctx, pb.UpdatePreferencesMethod, err)
	}
	return &pb.PreferencesResponse{
		TwoFactorEnabled:    user.TwoFactorEnabled,
		NotificationChannel: user.NotificationChannel,
	}, nil
}

func (s *GRPCServer) Revoke(ctx context.Context, req *pb.RevokeRequest) (*pb.Empty, error) {
	if err := s.users.Revoke(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, pb.RevokeMethod, err)
	}
	return &pb.Empty{}, nil
}
