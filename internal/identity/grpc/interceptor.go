package grpc

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// observeInterceptor logs every call and records its outcome in metrics.
func (s *GRPCServer) observeInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	method := path.Base(info.FullMethod)

	resp, err := handler(ctx, req)

	code := status.Code(err)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(method, code.String()).Inc()
		s.metrics.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	}

	s.logger.Info(ctx, "rpc handled",
		"method", method,
		"code", code.String(),
		"duration", elapsed,
		"request_id", requestID(ctx))

	return resp, err
}

// recoverInterceptor turns a handler panic into an Internal status.
func (s *GRPCServer) recoverInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "panic in rpc handler", "method", info.FullMethod, "panic", fmt.Sprint(p))
			err = status.Error(codes.Internal, common.ErrInternal.Error())
		}
	}()
	return handler(ctx, req)
}

func (s *GRPCServer) logFailure(ctx context.Context, msg string, err error) {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrDuplicateEmail),
		errors.Is(err, common.ErrDuplicateUsername),
		errors.Is(err, common.ErrInvalidCredentials):
		s.logger.Info(ctx, msg, "reason", err.Error(), "request_id", requestID(ctx))
	default:
		s.logger.Error(ctx, msg, "error", err, "request_id", requestID(ctx))
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.RequestIDMetadataKey); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
