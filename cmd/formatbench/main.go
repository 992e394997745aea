package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/formatbench/pkg/config"
	"github.com/ajitpratap0/formatbench/pkg/logger"
	"github.com/ajitpratap0/formatbench/pkg/observability"
)

var version = "0.1.0"

// app carries the state shared by every subcommand
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.RunConfig
	log        *zap.Logger
	runID      string

	shutdownTracing observability.ShutdownFunc
	metricsServer   *http.Server
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	a := &app{v: config.NewViper()}
	root := a.rootCommand()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	a.teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "formatbench",
		Short: "formatbench - columnar format conversion and load benchmark",
		Long: `formatbench converts pipe-delimited text tables into Parquet, Arrow IPC
file, Arrow IPC stream and CSV artifacts, then measures how fast an
analytical database loads each of them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Path to a YAML or TOML run configuration file")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-encoding", "console", "Log encoding (console, json)")
	pf.Bool("tracing", false, "Export trace spans to stderr")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. localhost:9090")
	pf.String("catalog", "", "Path to the table catalog (TOML or YAML)")
	pf.String("data-dir", "", "Directory relative source paths are resolved against")
	pf.String("out", "out", "Directory artifacts are written to")

	_ = a.v.BindPFlag("observability.log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("observability.log_encoding", pf.Lookup("log-encoding"))
	_ = a.v.BindPFlag("observability.tracing", pf.Lookup("tracing"))
	_ = a.v.BindPFlag("observability.metrics_addr", pf.Lookup("metrics-addr"))
	_ = a.v.BindPFlag("catalog", pf.Lookup("catalog"))
	_ = a.v.BindPFlag("data_dir", pf.Lookup("data-dir"))
	_ = a.v.BindPFlag("output_dir", pf.Lookup("out"))

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("formatbench v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(a.convertCommand())
	root.AddCommand(a.benchCommand())
	root.AddCommand(a.verifyCommand())

	return root
}

// setup loads and validates the run configuration, then starts logging,
// tracing and the metrics endpoint.
func (a *app) setup() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(logger.Config{
		Level:    cfg.Observability.LogLevel,
		Encoding: cfg.Observability.LogEncoding,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.runID = uuid.New().String()
	a.log = logger.With(zap.String("run_id", a.runID))

	tracing := observability.DefaultTracingConfig()
	tracing.Enabled = cfg.Observability.Tracing
	tracing.ServiceVersion = version
	a.shutdownTracing, err = observability.InitTracing(tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		a.log.Info("serving metrics", zap.String("addr", addr))
	}
	return nil
}

// teardown stops what setup started. It runs after every command,
// including failed ones.
func (a *app) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.metricsServer != nil {
		_ = a.metricsServer.Shutdown(ctx)
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			logger.Warn("failed to flush traces", zap.Error(err))
		}
	}
	_ = logger.Sync()
}

// context returns ctx annotated with the run id
func (a *app) context(ctx context.Context) context.Context {
	return logger.ContextWithRunID(ctx, a.runID)
}
