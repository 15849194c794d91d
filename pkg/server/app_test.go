package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AstroChart/internal/usecase"
	"AstroChart/pkg/cache"
	"AstroChart/pkg/config"
	xhttp "AstroChart/pkg/http"
	applogger "AstroChart/pkg/logger"
)

func testConfig() *config.Config {
	cfg := &config.Config{Environment: "test"}
	cfg.Backend.Type = config.BackendNone
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv := xhttp.NewServer(applogger.Nop(), nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	mem := cache.NewMemoryCache()
	require.NoError(t, mem.Set(context.Background(), "k", "v", time.Minute))

	app := New(testConfig(), applogger.Nop(), Components{
		Server:    srv,
		Processor: usecase.NewChartProcessor(nil, nil, nil, config.BackendNone),
		Cache:     mem,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Zero(t, mem.Len(), "cache closed on shutdown")
}

func TestRunReportsListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	srv := xhttp.NewServer(applogger.Nop(), nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(port))
	app := New(testConfig(), applogger.Nop(), Components{Server: srv})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = app.Run(ctx)
	assert.Error(t, err)
	assert.NoError(t, ctx.Err())
}

func TestRunRequiresServer(t *testing.T) {
	err := New(testConfig(), nil, Components{}).Run(context.Background())
	assert.ErrorContains(t, err, "http server is required")
}
