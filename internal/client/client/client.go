package client

import (
	"context"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
)

// Client is the credential service as the CLI sees it.
type Client interface {
	Close() error
	Login(ctx context.Context, email, password string) error
	Exchange(ctx context.Context) error
	Register(ctx context.Context, email, userName, password string) (string, error)
	ChangePassword(ctx context.Context, current, next string) error
	UpdatePreferences(ctx context.Context, twoFactor *bool, channel *string) (*pb.PreferencesResponse, error)
	Logout(ctx context.Context) error
	Tokens() Tokens
}

var _ Client = (*GRPCClient)(nil)
