package rpc

import (
	"context"

	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"google.golang.org/grpc"
)

// IdentityServer is implemented by the identity service transport.
type IdentityServer interface {
	UserRegister(ctx context.Context, req *models.RegisterRequest) (*models.PublicUser, error)
	UserGetAll(ctx context.Context, req *Empty) (*UserList, error)
	UserLogin(ctx context.Context, req *models.LoginRequest) (*models.PublicUser, error)
}

// IdentityServiceDesc describes the identity service for grpc.Server.
var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: PatternUserRegister.Method(),
			Handler: unaryHandler(PatternUserRegister, func(s IdentityServer, ctx context.Context, in *models.RegisterRequest) (*models.PublicUser, error) {
				return s.UserRegister(ctx, in)
			}),
		},
		{
			MethodName: PatternUserGetAll.Method(),
			Handler: unaryHandler(PatternUserGetAll, func(s IdentityServer, ctx context.Context, in *Empty) (*UserList, error) {
				return s.UserGetAll(ctx, in)
			}),
		},
		{
			MethodName: PatternUserLogin.Method(),
			Handler: unaryHandler(PatternUserLogin, func(s IdentityServer, ctx context.Context, in *models.LoginRequest) (*models.PublicUser, error) {
				return s.UserLogin(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gatekeeper/identity/v1",
}

// RegisterIdentityServer attaches srv to a gRPC server.
func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(&IdentityServiceDesc, srv)
}

func unaryHandler[Req, Resp any](p Pattern, call func(IdentityServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IdentityServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: p.FullMethod(),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IdentityServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
