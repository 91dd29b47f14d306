// Command razor buys and immediately sells one pump token in back-to-back
// cycles for a fixed session, rotating RPC endpoints as failures demand.
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
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"solana-razor/internal/app"
	"solana-razor/internal/config"
	"solana-razor/internal/domain"
	"solana-razor/internal/logging"
	"solana-razor/internal/orchestrator"
	"solana-razor/internal/reporting"
	"solana-razor/internal/session"
	"solana-razor/internal/trade"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML configuration file")
	duration := flag.Duration("duration", 0, "Session length, e.g. 30m (overrides session.duration)")
	token := flag.String("token", "", "Token mint address (or pass it as the first argument)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides metrics.addr)")
	reportDir := flag.String("report-dir", "", "Directory for the session report (overrides report.dir)")
	flag.Parse()

	if err := run(*configPath, *duration, *token, *metricsAddr, *reportDir); err != nil {
		fmt.Fprintf(os.Stderr, "razor: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, duration time.Duration, token, metricsAddr, reportDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if duration > 0 {
		cfg.SetSessionDuration(duration)
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	if reportDir != "" {
		cfg.Report.Dir = reportDir
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
		File:   "razor.log",
	})
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	mint, err := resolveMint(token)
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	logger = logger.With(slog.String("session_id", sessionID))

	// a forced exit still emits the summary and report of the session so far
	var active atomic.Pointer[session.Runner]
	var deps *app.Dependencies
	ctx, stop := app.ShutdownContext(context.Background(), logger, func() {
		r := active.Load()
		if r == nil {
			return
		}
		summary := r.Abort()
		if cfg.Report.Dir != "" {
			writeReport(deps, cfg.Report.Dir, summary, logger)
		}
	})
	defer stop()

	wired, cleanup, err := app.Wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	deps = wired
	defer cleanup()

	policy := cfg.RetryPolicy()
	orch := orchestrator.New(orchestrator.Options{
		Builder:   trade.NewBuilder(cfg.TradeParams()),
		Executor:  deps.NewExecutor(cfg, sessionID, logger),
		Endpoints: deps.Rotator,
		Policy:    &policy,
		SessionID: sessionID,
		Logger:    logger,
	})
	runner := session.New(session.Options{
		Cycles:    orch,
		SessionID: sessionID,
		Logger:    logger,
	})
	active.Store(runner)

	logger.Info("razor bot initialized", append(deps.RotationAttrs(),
		slog.String("buy_amount_sol", cfg.Trade.BuyAmountSOL.String()),
		slog.String("slippage_percent", cfg.Trade.SlippagePercent.String()),
		slog.String("priority_fee", cfg.Trade.PriorityFee.String()),
		slog.Duration("session", cfg.SessionDuration()),
	)...)
	logger.Debug("active configuration", slog.Any("config", config.RedactedConfig(cfg)))

	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	if cfg.Metrics.Addr != "" {
		if _, err := app.StartMetricsServer(serverCtx, g, cfg.Metrics.Addr, logger); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
	}

	g.Go(func() error {
		defer stopServer()
		summary := runner.Run(gctx, mint, cfg.SessionDuration())
		if cfg.Report.Dir != "" {
			writeReport(deps, cfg.Report.Dir, summary, logger)
		}
		return nil
	})

	return g.Wait()
}

// writeReport renders the session report from the journal. Failures are
// logged; the session itself already finished.
func writeReport(deps *app.Dependencies, dir string, summary domain.SessionSummary, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, err := reporting.NewGenerator(deps.Trades, deps.Attempts).Generate(ctx, summary.SessionID)
	if err != nil {
		logger.Error("generate session report", slog.Any("error", err))
		return
	}
	report.Summary = &summary

	paths, err := reporting.WriteFiles(dir, report)
	if err != nil {
		logger.Error("write session report", slog.Any("error", err))
		return
	}
	logger.Info("session report written", slog.Any("files", paths))
}

// resolveMint takes the mint from the flag, the first argument or stdin, in
// that order, and checks it is a base58 32-byte address.
func resolveMint(token string) (string, error) {
	mint := strings.TrimSpace(token)
	if mint == "" {
		mint = strings.TrimSpace(flag.Arg(0))
	}
	if mint == "" {
		fmt.Print("Enter token address: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read token address: %w", err)
		}
		mint = strings.TrimSpace(line)
	}
	return trade.NormalizeMint(mint, true)
}
