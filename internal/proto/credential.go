package proto

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gophauth.v1.CredentialService"

// Full method names.
const (
	LoginMethod             = "/" + ServiceName + "/Login"
	ExchangeMethod          = "/" + ServiceName + "/Exchange"
	RegisterMethod          = "/" + ServiceName + "/Register"
	ChangePasswordMethod    = "/" + ServiceName + "/ChangePassword"
	UpdatePreferencesMethod = "/" + ServiceName + "/UpdatePreferences"
	RevokeMethod            = "/" + ServiceName + "/Revoke"
)

// CredentialServiceServer is the server API of CredentialService.
type CredentialServiceServer interface {
	Login(context.Context, *LoginRequest) (*TokenResponse, error)
	Exchange(context.Context, *ExchangeRequest) (*TokenResponse, error)
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*Empty, error)
	UpdatePreferences(context.Context, *UpdatePreferencesRequest) (*PreferencesResponse, error)
	Revoke(context.Context, *RevokeRequest) (*Empty, error)
}

// CredentialServiceDesc is registered with grpc.Server.RegisterService.
var CredentialServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CredentialServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(LoginMethod, CredentialServiceServer.Login)},
		{MethodName: "Exchange", Handler: unaryHandler(ExchangeMethod, CredentialServiceServer.Exchange)},
		{MethodName: "Register", Handler: unaryHandler(RegisterMethod, CredentialServiceServer.Register)},
		{MethodName: "ChangePassword", Handler: unaryHandler(ChangePasswordMethod, CredentialServiceServer.ChangePassword)},
		{MethodName: "UpdatePreferences", Handler: unaryHandler(UpdatePreferencesMethod, CredentialServiceServer.UpdatePreferences)},
		{MethodName: "Revoke", Handler: unaryHandler(RevokeMethod, CredentialServiceServer.Revoke)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/credential.proto",
}

// unaryHandler adapts a typed server method to grpc.MethodHandler the way
// generated code does.
func unaryHandler[Req, Resp any](fullMethod string, call func(CredentialServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CredentialServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CredentialServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// CredentialServiceClient calls CredentialService over cc using the JSON codec.
type CredentialServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCredentialServiceClient(cc grpc.ClientConnInterface) *CredentialServiceClient {
	return &CredentialServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CredentialServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, LoginMethod, in, opts)
}

func (c *CredentialServiceClient) Exchange(ctx context.Context, in *ExchangeRequest, opts ...grpc.CallOption) (*TokenResponse, error) {
	return invoke[TokenResponse](ctx, c.cc, ExchangeMethod, in, opts)
}

func (c *CredentialServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, RegisterMethod, in, opts)
}

func (c *CredentialServiceClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ChangePasswordMethod, in, opts)
}

func (c *CredentialServiceClient) UpdatePreferences(ctx context.Context, in *UpdatePreferencesRequest, opts ...grpc.CallOption) (*PreferencesResponse, error) {
	return invoke[PreferencesResponse](ctx, c.cc, UpdatePreferencesMethod, in, opts)
}

func (c *CredentialServiceClient) Revoke(ctx context.Context, in *RevokeRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, RevokeMethod, in, opts)
}
