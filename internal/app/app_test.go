package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"solana-razor/internal/config"
	"solana-razor/internal/domain"
	"solana-razor/internal/endpoint"
	"solana-razor/internal/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWire_MemoryJournalByDefault(t *testing.T) {
	cfg := config.Defaults()

	deps, cleanup, err := Wire(context.Background(), &cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, 7, deps.Rotator.Len())
	assert.Equal(t, "https://api.mainnet-beta.solana.com", deps.Rotator.Current())
	assert.IsType(t, &memory.TradeRecordStore{}, deps.Trades)
	assert.IsType(t, &memory.AttemptStore{}, deps.Attempts)
}

func TestDependencies_RotationAttrs(t *testing.T) {
	cfg := config.Defaults()
	cfg.RPC.Endpoints = []string{"https://mainnet.helius-rpc.com/?api-key=abc", "https://rpc-b"}
	cfg.Rotation.Keywords = []string{" RPC ", "Blockhash"}

	deps, cleanup, err := Wire(context.Background(), &cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("started", deps.RotationAttrs()...)

	var line struct {
		Count     int      `json:"rpc_endpoint_count"`
		Endpoints []string `json:"rpc_endpoints"`
		Keywords  []string `json:"rotation_keywords"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, 2, line.Count)
	assert.Equal(t, []string{"https://mainnet.helius-rpc.com/?api-key=***", "https://rpc-b"}, line.Endpoints)
	assert.Equal(t, []string{"rpc", "blockhash"}, line.Keywords)
	assert.True(t, deps.Classifier.ShouldRotate("Blockhash not found"))
}

func TestWire_NoEndpoints(t *testing.T) {
	cfg := config.Defaults()
	cfg.RPC.Endpoints = nil

	_, _, err := Wire(context.Background(), &cfg, discardLogger())
	require.ErrorIs(t, err, endpoint.ErrNoEndpoints)
}

func TestNewExecutor_JournalsTrades(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade", r.URL.Path)
		assert.Equal(t, "k1", r.URL.Query().Get("api-key"))
		w.Write([]byte(`{"signature": "sig-1", "errors": []}`))
	}))
	defer api.Close()

	cfg := config.Defaults()
	cfg.API.BaseURL = api.URL
	cfg.API.APIKey = "k1"

	deps, cleanup, err := Wire(context.Background(), &cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()

	exec := deps.NewExecutor(&cfg, "session-1", discardLogger())
	fill := exec.Execute(context.Background(), domain.TradeRequest{
		ID:               "trade-1",
		Direction:        domain.DirectionBuy,
		Mint:             "MintA",
		Amount:           domain.FixedAmount(decimal.RequireFromString("0.015")),
		DenominatedInSOL: true,
	}, cfg.RetryPolicy())
	require.NotNil(t, fill)
	assert.Equal(t, "sig-1", fill.Signature)

	rec, err := deps.Trades.GetByID(context.Background(), "trade-1")
	require.NoError(t, err)
	assert.True(t, rec.Success)
	assert.Equal(t, "session-1", rec.SessionID)

	attempts, err := deps.Attempts.GetByTradeID(context.Background(), "trade-1")
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestStartMetricsServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	addr, err := StartMetricsServer(gctx, g, "127.0.0.1:0", discardLogger())
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, g.Wait())
}

func TestStartMetricsServer_AddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	var g errgroup.Group
	_, err = StartMetricsServer(context.Background(), &g, ln.Addr().String(), discardLogger())
	require.Error(t, err)
}

func TestShutdownContext_StopCancels(t *testing.T) {
	ctx, stop := ShutdownContext(context.Background(), discardLogger())
	stop()
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled by stop")
	}
}

func TestShutdownContext_Signals(t *testing.T) {
	exited := make(chan int, 1)
	exit = func(code int) { exited <- code }
	defer func() { exit = os.Exit }()

	var finalized atomic.Bool
	ctx, stop := ShutdownContext(context.Background(), discardLogger(), func() {
		finalized.Store(true)
	})
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("first signal did not cancel the context")
	}
	assert.False(t, finalized.Load(), "first signal must not finalize")

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	select {
	case code := <-exited:
		assert.Equal(t, 130, code)
		assert.True(t, finalized.Load(), "finalizer must run before the forced exit")
	case <-time.After(2 * time.Second):
		t.Fatal("second signal did not force exit")
	}
}

func TestRunFinalizers_GraceBoundsSlowFinalizer(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	var ran atomic.Int32
	start := time.Now()
	runFinalizers([]func(){
		func() { ran.Add(1) },
		func() { <-release },
	}, 50*time.Millisecond, discardLogger())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(1), ran.Load())
}
