package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type fakeIdentity struct {
	registered []models.RegisterRequest
	users      []models.PublicUser
	err        error
	delay      time.Duration
}

func (f *fakeIdentity) UserRegister(ctx context.Context, req *models.RegisterRequest) (*models.PublicUser, error) {
	if f.err != nil {
		return nil, ToStatus(f.err)
	}
	f.registered = append(f.registered, *req)
	return &models.PublicUser{ID: "id-1", Email: req.Email, Username: req.Username}, nil
}

func (f *fakeIdentity) UserGetAll(ctx context.Context, _ *Empty) (*UserList, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &UserList{Users: f.users}, nil
}

func (f *fakeIdentity) UserLogin(ctx context.Context, req *models.LoginRequest) (*models.PublicUser, error) {
	if f.err != nil {
		return nil, ToStatus(f.err)
	}
	return &models.PublicUser{ID: "id-1", Email: req.Email, Username: "alice"}, nil
}

func startBufServer(t *testing.T, srv IdentityServer) (*bufconn.Listener, *grpc.Server) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterIdentityServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)
	return lis, s
}

func newBufClient(t *testing.T, lis *bufconn.Listener, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		Address: "passthrough:///bufnet",
		Timeout: timeout,
		DialOptions: []grpc.DialOption{
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_RoundTrip(t *testing.T) {
	fake := &fakeIdentity{users: []models.PublicUser{{ID: "1", Username: "aaa"}, {ID: "2", Username: "bbb"}}}
	lis, _ := startBufServer(t, fake)
	c := newBufClient(t, lis, time.Second)
	ctx := context.Background()

	u, err := c.Register(ctx, models.RegisterRequest{Email: "a@example.com", Username: "alice", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", u.ID)
	require.Len(t, fake.registered, 1)
	assert.Equal(t, "s3cretpass", fake.registered[0].Password)

	all, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, fake.users, all)

	logged, err := c.Login(ctx, models.LoginRequest{Email: "a@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "alice", logged.Username)
}

func TestClient_GetAllEmptyIsNonNil(t *testing.T) {
	lis, _ := startBufServer(t, &fakeIdentity{})
	c := newBufClient(t, lis, time.Second)

	all, err := c.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestClient_DomainErrors(t *testing.T) {
	for _, want := range []error{common.ErrDuplicateEmail, common.ErrDuplicateUsername, common.ErrInvalidCredentials} {
		lis, _ := startBufServer(t, &fakeIdentity{err: want})
		c := newBufClient(t, lis, time.Second)

		_, err := c.Register(context.Background(), models.RegisterRequest{})
		assert.ErrorIs(t, err, want)
		_, err = c.Login(context.Background(), models.LoginRequest{})
		assert.ErrorIs(t, err, want)
	}
}

func TestClient_TimeoutIsUpstreamUnavailable(t *testing.T) {
	lis, _ := startBufServer(t, &fakeIdentity{delay: 2 * time.Second})
	c := newBufClient(t, lis, 50*time.Millisecond)

	_, err := c.GetAll(context.Background())
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestClient_ServerGoneIsUpstreamUnavailable(t *testing.T) {
	lis, s := startBufServer(t, &fakeIdentity{})
	c := newBufClient(t, lis, 200*time.Millisecond)
	s.Stop()

	_, err := c.Register(context.Background(), models.RegisterRequest{})
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
}

func TestNewClient_RequiresAddress(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
}
