// Command liquidate sells held pump tokens outright: the mint given as the
// first argument, or every non-empty token account of the wallet.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"solana-razor/internal/app"
	"solana-razor/internal/config"
	"solana-razor/internal/liquidation"
	"solana-razor/internal/logging"
	"solana-razor/internal/solana"
	"solana-razor/internal/trade"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML configuration file")
	wallet := flag.String("wallet", "", "Wallet address (overrides WALLET_ADDRESS)")
	confirm := flag.Bool("confirm", false, "Wait for websocket confirmation of each sell (needs rpc.ws_endpoint)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides metrics.addr)")
	flag.Parse()

	if err := run(*configPath, *wallet, *confirm, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "liquidate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, wallet string, confirm bool, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if wallet != "" {
		cfg.Wallet.Address = wallet
	}
	if confirm {
		cfg.Liquidation.Confirm = true
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.API.APIKey == "" {
		return errors.New("PUMPPORTAL_API_KEY not set (env, .env or api.api_key)")
	}

	logger, logFile, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Dir:    cfg.Log.Dir,
		File:   "liquidate.log",
	})
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	sessionID := uuid.NewString()
	logger = logger.With(slog.String("session_id", sessionID))

	ctx, stop := app.ShutdownContext(context.Background(), logger)
	defer stop()

	deps, cleanup, err := app.Wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("liquidator initialized", append(deps.RotationAttrs(),
		slog.String("priority_fee", cfg.LiquidationParams().PriorityFee.String()),
		slog.Bool("confirm", cfg.Liquidation.Confirm),
	)...)

	rpc := solana.NewHTTPClient(deps.Rotator.Current(), cfg.RPCClientOptions()...)
	policy := cfg.LiquidationPolicy()
	opts := liquidation.Options{
		Builder:   trade.NewBuilder(cfg.LiquidationParams()),
		Executor:  deps.NewExecutor(cfg, sessionID, logger),
		Endpoints: deps.Rotator,
		RPC: func(endpoint string) solana.RPCClient {
			return rpc.WithEndpoint(endpoint)
		},
		Policy:         &policy,
		Pause:          cfg.PauseBetweenSells(),
		ConfirmTimeout: cfg.ConfirmTimeout(),
		SessionID:      sessionID,
		Logger:         logger,
	}

	if cfg.Liquidation.Confirm {
		ws, err := solana.NewWSClient(ctx, cfg.RPC.WSEndpoint, nil, logger)
		if err != nil {
			logger.Warn("websocket unavailable, selling without confirmation", slog.Any("error", err))
		} else {
			defer ws.Close()
			opts.Confirmer = ws
		}
	}

	liq := liquidation.New(opts)

	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	if cfg.Metrics.Addr != "" {
		if _, err := app.StartMetricsServer(serverCtx, g, cfg.Metrics.Addr, logger); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
	}

	var failed int
	g.Go(func() error {
		defer stopServer()

		if mint := strings.TrimSpace(flag.Arg(0)); mint != "" {
			logger.Info("selling single token", slog.String("mint", mint))
			if !liq.SellToken(gctx, mint) {
				failed = 1
			}
			return nil
		}

		addr, err := resolveWallet(cfg.Wallet.Address)
		if err != nil {
			return err
		}
		logger.Info("liquidating wallet", slog.String("wallet", addr))
		report := liq.SellAll(gctx, addr)
		failed = report.Failed
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d sell(s) failed", failed)
	}
	return nil
}

// resolveWallet prompts for the wallet when none is configured and checks it
// is an on-curve base58 public key.
func resolveWallet(wallet string) (string, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		fmt.Print("Enter wallet address: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read wallet address: %w", err)
		}
		wallet = strings.TrimSpace(line)
	}
	if err := trade.ValidateWallet(wallet); err != nil {
		return "", err
	}
	return wallet, nil
}
