package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"oracletally/internal/config"
	"oracletally/internal/infrastructure"
	"oracletally/internal/services"
	"oracletally/internal/tally"
	"oracletally/pkg/contracts"
)

// app carries state shared by every subcommand
type app struct {
	configPath string
	logLevel   string
	verbose    bool

	cfg     *config.Config
	logger  *slog.Logger
	logFile *os.File
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "tallyctl",
		Short:         "Deterministic consensus price tally for oracle reveals",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Long: `tallyctl aggregates the price reveals of independent oracle executors into
one consensus price. Every node running the same reveals with the same engine
configuration produces the identical 16-byte result.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				_ = a.logFile.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (yaml or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "shorthand for --log-level=debug")

	root.AddCommand(
		newRunCmd(a),
		newReplayCmd(a),
		newEncodeCmd(),
		newDecodeCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger. Logs go to stderr so
// stdout carries only command output.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	switch {
	case a.verbose:
		cfg.Logging.Level = "debug"
	case a.logLevel != "":
		cfg.Logging.Level = strings.ToLower(a.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, file, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	a.logFile = file
	return nil
}

// pipeline holds the engine, service and telemetry for one command run
type pipeline struct {
	service   *services.TallyService
	providers *infrastructure.OTelProviders
}

func (a *app) pipeline(cmd *cobra.Command) (*pipeline, error) {
	oc := infrastructure.OTelConfigFrom(a.cfg.Telemetry)
	oc.TraceWriter = cmd.ErrOrStderr()

	providers, err := infrastructure.InitializeOTel(oc, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := infrastructure.CreateTallyMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	engine := tally.New(a.cfg.Params(), a.logger)
	svc := services.NewTallyService(engine, a.logger,
		services.WithTracer(providers.Tracer),
		services.WithMetrics(metrics),
	)
	return &pipeline{service: svc, providers: providers}, nil
}

func (p *pipeline) close(ctx context.Context) {
	_ = p.providers.Shutdown(context.WithoutCancel(ctx))
}
