package grpc

import (
	"context"

	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"github.com/dmitrijs2005/gatekeeper/internal/rpc"
)

func (s *GRPCServer) UserRegister(ctx context.Context, req *models.RegisterRequest) (*models.PublicUser, error) {
	user, err := s.users.Register(ctx, *req)
	if err != nil {
		s.logFailure(ctx, "registration failed", err)
		return nil, rpc.ToStatus(err)
	}
	return user, nil
}

func (s *GRPCServer) UserGetAll(ctx context.Context, _ *rpc.Empty) (*rpc.UserList, error) {
	all, err := s.users.ListAll(ctx)
	if err != nil {
		s.logFailure(ctx, "listing users failed", err)
		return nil, rpc.ToStatus(err)
	}
	return &rpc.UserList{Users: all}, nil
}

func (s *GRPCServer) UserLogin(ctx context.Context, req *models.LoginRequest) (*models.PublicUser, error) {
	user, err := s.users.Login(ctx, *req)
	if err != nil {
		s.logFailure(ctx, "login failed", err)
		return nil, rpc.ToStatus(err)
	}
	return user, nil
}
