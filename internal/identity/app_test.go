package identity

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/identity/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		GRPCAddr:         "127.0.0.1:0",
		Store:            config.StoreMemory,
		LogLevel:         "error",
		BcryptCost:       4,
		DBConnectTimeout: time.Second,
	}
}

func TestNewApp_MemoryStore(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)
	assert.NotNil(t, app.users)
	assert.NotNil(t, app.repos.Users())
}

func TestNewApp_BadLogLevel(t *testing.T) {
	c := memoryConfig()
	c.LogLevel = "chatty"
	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}

func TestRun_StopsWhenServerFails(t *testing.T) {
	c := memoryConfig()
	c.GRPCAddr = "127.0.0.1:99999"
	c.MetricsAddr = "127.0.0.1:0"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after gRPC listen failure")
	}
}
