package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// ClientConfig holds configuration for the bridge client.
type ClientConfig struct {
	// Address is the identity service target, e.g. "localhost:3001".
	Address string

	// Timeout bounds every call. Zero means only the caller's context applies.
	Timeout time.Duration

	// DialOptions are appended after the defaults (tests pass a bufconn dialer).
	DialOptions []grpc.DialOption
}

// Client is the typed gateway-side end of the bridge. One method per
// Pattern, one outstanding call per invocation, no retries.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewClient prepares a lazily connecting client; no network I/O happens
// until the first call.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, cfg.DialOptions...)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity client: %w", err)
	}

	return &Client{conn: conn, timeout: cfg.Timeout}, nil
}

// Register sends USER_REGISTER.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.PublicUser, error) {
	out := new(models.PublicUser)
	if err := c.invoke(ctx, PatternUserRegister, &req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAll sends USER_GET_ALL.
func (c *Client) GetAll(ctx context.Context) ([]models.PublicUser, error) {
	out := new(UserList)
	if err := c.invoke(ctx, PatternUserGetAll, &Empty{}, out); err != nil {
		return nil, err
	}
	if out.Users == nil {
		return []models.PublicUser{}, nil
	}
	return out.Users, nil
}

// Login sends USER_LOGIN.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.PublicUser, error) {
	out := new(models.PublicUser)
	if err := c.invoke(ctx, PatternUserLogin, &req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, p Pattern, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return FromStatus(c.conn.Invoke(ctx, p.FullMethod(), in, out))
}

// Close closes the underlying gRPC connection.
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}
