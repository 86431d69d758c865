// Package main is the entry point for the art-coin trader.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/artcoin-trader/business/blockchain"
	"github.com/fd1az/artcoin-trader/business/trading"
	tradingDI "github.com/fd1az/artcoin-trader/business/trading/di"
	"github.com/fd1az/artcoin-trader/business/trading/domain"
	"github.com/fd1az/artcoin-trader/business/trading/infra/notify"
	"github.com/fd1az/artcoin-trader/internal/apm"
	"github.com/fd1az/artcoin-trader/internal/config"
	"github.com/fd1az/artcoin-trader/internal/health"
	"github.com/fd1az/artcoin-trader/internal/logger"
	"github.com/fd1az/artcoin-trader/internal/metrics"
	"github.com/fd1az/artcoin-trader/internal/monolith"
	"github.com/fd1az/artcoin-trader/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

const usage = `usage: trader [flags] <command> [command flags]

commands:
  buy    -coin <coin> -amount <eth>            buy a coin with ETH
  sell   -coin <coin> -amount <coins>          sell a coin for ETH
  swap   -coin <coin> -buy <coin> -amount <n>  swap one ERC-20 for another
  serve                                        run the HTTP API

flags:
`

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	configPath := flag.String("config", "", "Path to configuration file")
	tuiMode := flag.Bool("tui", false, "Render trade progress in a terminal UI")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("trader %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, *configPath, *tuiMode, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool, command string, args []string) error {
	var trade *tradeArgs
	switch command {
	case "serve":
	case "buy", "sell", "swap":
		a, err := parseTradeArgs(command, args)
		if err != nil {
			return err
		}
		trade = &a
	default:
		return &usageError{msg: fmt.Sprintf("unknown command %q", command)}
	}
	serveMode := trade == nil
	tuiMode = tuiMode && !serveMode

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var log *logger.Logger
	if tuiMode {
		// In TUI mode, suppress logs (discard output)
		log = logger.New(io.Discard, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, logger.TraceFields)
	} else {
		log = logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, logger.TraceFields)
	}
	defer log.Sync()

	log.Info(ctx, "starting artcoin trader",
		"version", version,
		"environment", cfg.App.Environment,
		"command", command)

	stopTelemetry, err := initTelemetry(cfg, log, serveMode)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	var healthServer *health.Server
	if serveMode {
		healthServer = health.NewServer(cfg.Server.HealthPort, version, log)
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		} else {
			log.Info(ctx, "health server started", "port", cfg.Server.HealthPort)
		}
		defer shutdown(healthServer.Stop)
	}

	var tradingModule trading.Module
	var tui *tuiRunner
	switch {
	case tuiMode:
		tui = newTUIRunner()
		tradingModule.Notifier = notify.NewTUINotifier(tui.program)
	case !serveMode:
		tradingModule.Notifier = notify.NewConsoleNotifier(os.Stdout)
	}

	mono, err := monolith.New(ctx, cfg, log, healthServer)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&blockchain.Module{}, // Must be first - provides balances and decimals
		&tradingModule,       // Depends on blockchain
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	if session := tradingDI.GetWalletSession(mono.Services()); session != nil {
		defer session.Close()
	}

	if serveMode {
		return runServe(ctx, mono, log)
	}

	trader := tradingDI.GetTrader(mono.Services())
	exec := func(ctx context.Context) (*domain.TradeResult, error) {
		return trade.execute(ctx, trader, mono.AssetRegistry())
	}

	if tuiMode {
		return tui.run(ctx, exec)
	}
	return runCLI(ctx, exec)
}

func runCLI(ctx context.Context, exec func(context.Context) (*domain.TradeResult, error)) error {
	result, err := exec(ctx)
	if err != nil {
		return wrapTrade(err)
	}

	fmt.Printf("\ntrade %s confirmed\n", result.TradeID)
	fmt.Printf("  tx:        %s\n", result.TransactionHash.Hex())
	fmt.Printf("  block:     %d\n", result.Receipt.BlockNumber)
	fmt.Printf("  gas used:  %d\n", result.Receipt.GasUsed)
	fmt.Printf("  attempts:  %d\n", result.Attempts)
	fmt.Printf("  duration:  %s\n", result.Duration().Round(time.Millisecond))
	return nil
}

func runServe(ctx context.Context, mono monolith.Monolith, log logger.LoggerInterface) error {
	server := tradingDI.GetAPIServer(mono.Services())
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start api server: %w", err)
	}

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	shutdown(server.Stop)
	return nil
}

func initTelemetry(cfg *config.Config, log logger.LoggerInterface, serveMode bool) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}

	tp, err := apm.NewTraceProvider(apm.Provider(cfg.Telemetry.TraceProvider), apm.TraceConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     cfg.Telemetry.OTLPHeaders,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	exporters, err := metricExporters(cfg.Telemetry)
	if err != nil {
		_ = tp.Stop()
		return nil, err
	}
	opts := []metrics.Option{metrics.WithServiceName(cfg.Telemetry.ServiceName)}
	for _, e := range exporters {
		opts = append(opts, metrics.WithExporter(e))
	}

	mp, err := metrics.NewMetricProvider(opts...)
	if err != nil {
		_ = tp.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	// One-shot trades exit before any scrape, so only serve mode exposes /metrics.
	var prom *metrics.PrometheusServer
	if serveMode {
		prom = metrics.NewPrometheusServer(log, metrics.WithPort(cfg.Telemetry.PrometheusPort))
		prom.Start()
	}

	return func() {
		if prom != nil {
			shutdown(prom.Stop)
		}
		shutdown(mp.Shutdown)
		_ = tp.Stop()
	}, nil
}

// metricExporters always exposes Prometheus and mirrors OTLP trace backends.
func metricExporters(t config.TelemetryConfig) ([]metrics.ExporterConfig, error) {
	exporters := []metrics.ExporterConfig{metrics.Prometheus()}

	switch apm.Provider(t.TraceProvider) {
	case apm.HoneycombProvider:
		headers, err := metrics.ParseHeaders(t.OTLPHeaders)
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, metrics.Honeycomb(t.OTLPEndpoint, headers["x-honeycomb-team"], t.ServiceName))
	case apm.NewRelicProvider:
		// NewRelic takes the bare license key.
		exporters = append(exporters, metrics.OTLP(t.OTLPEndpoint, map[string]string{"api-key": t.OTLPHeaders}))
	}
	return exporters, nil
}

func shutdown(stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = stop(ctx)
}

// tuiRunner runs one trade behind the Bubble Tea progress view.
type tuiRunner struct {
	program *tea.Program
}

func newTUIRunner() *tuiRunner {
	return &tuiRunner{program: ui.NewProgram(ui.New("artcoin trader", 1))}
}

func (t *tuiRunner) run(ctx context.Context, exec func(context.Context) (*domain.TradeResult, error)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		result, err := exec(ctx)
		errCh <- err
		t.program.Send(ui.ResultMsg{Result: result, Err: err})
	}()

	_, err := t.program.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return wrapTrade(err)
	default:
		// The user quit before the trade finished.
		return context.Canceled
	}
}
