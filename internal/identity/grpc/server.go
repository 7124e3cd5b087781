package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"github.com/dmitrijs2005/gatekeeper/internal/observability"
	"github.com/dmitrijs2005/gatekeeper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// UserService is the business logic behind the identity RPCs.
type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.PublicUser, error)
	ListAll(ctx context.Context) ([]models.PublicUser, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.PublicUser, error)
}

type GRPCServer struct {
	address string
	users   UserService
	logger  logging.Logger
	metrics *observability.RPCMetrics
}

var _ rpc.IdentityServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, us UserService, m *observability.RPCMetrics) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		users:   us,
		metrics: m,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.recoverInterceptor, s.observeInterceptor),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	)

	rpc.RegisterIdentityServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
