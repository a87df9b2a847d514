package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ismrmrd-go/mrdstream/internal/config"
	"github.com/ismrmrd-go/mrdstream/internal/logger"
	"github.com/ismrmrd-go/mrdstream/internal/metricsrv"
	"github.com/ismrmrd-go/mrdstream/internal/pipeline"
	"github.com/ismrmrd-go/mrdstream/internal/server"
	"github.com/ismrmrd-go/mrdstream/internal/telemetry"
)

var (
	flagHost    string
	flagPort    int
	flagVerbose bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the MRD streaming server",
	Long: `Start accepts streaming sessions on host:port and dispatches each to
the pipeline named by the session's ConfigSelector.

Examples:
  mrdserver start
  mrdserver start --port 9003
  MRD_METRICS_ENABLED=true mrdserver start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&flagHost, "host", "", "listen host (overrides config)")
	startCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides config)")
	startCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagVerbose {
		cfg.Logging.Level = "DEBUG"
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "mrdserver",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}

	var metrics *metricsrv.Metrics
	var metricsServer *metricsrv.Server
	if cfg.Metrics.Enabled {
		metrics = metricsrv.NewMetrics(nil)
		metricsServer, err = metricsrv.NewServer(fmt.Sprintf("%s:%d", cfg.Host, cfg.Metrics.Port))
		if err != nil {
			return fmt.Errorf("bind metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Serve(ctx); err != nil {
				logger.Error("metrics server stopped with error", logger.Err(err))
			}
		}()
		logger.Info("metrics enabled", "address", metricsServer.Addr())
	} else {
		logger.Info("metrics disabled")
	}

	srv := server.New(cfg, pipeline.NewRegistry(), server.WithMetrics(metrics))

	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.ListenAndServe(ctx) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("mrdserver running, press Ctrl+C to stop", "host", cfg.Host, "port", cfg.Port)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received")
		cancel()
		if err := <-serverDone; err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	logger.Info("mrdserver stopped")
	return nil
}
