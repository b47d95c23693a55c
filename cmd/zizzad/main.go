package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vitwit/zizza"
	"github.com/vitwit/zizza/api"
	"github.com/vitwit/zizza/logger"
	"github.com/vitwit/zizza/metrics"
	"github.com/vitwit/zizza/utils"
)

var _ api.Engine = (*zizza.Engine)(nil)

type flags struct {
	configPath string
	listenAddr string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:          "zizzad",
		Short:        "Cross-chain intent engine daemon for NEAR and Zcash",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "path to the JSON config file")
	cmd.Flags().StringVar(&f.listenAddr, "listen", "", "API listen address (overrides the config)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides the config)")

	cmd.AddCommand(newCommandsCmd())
	return cmd
}

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands accepted by POST /execute",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range api.Commands() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func serve(ctx context.Context, f *flags) error {
	cfg, err := utils.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	if f.listenAddr != "" {
		cfg.ListenAddr = f.listenAddr
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}

	log, err := logger.NewZapLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	opts := []zizza.Option{zizza.WithLogger(log)}
	if cfg.EnableMetrics {
		rec, err := metrics.NewPrometheusRecorder(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, zizza.WithMetrics(rec))
	}

	engine, err := zizza.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	srv := api.NewServer(engine, api.WithServerLogger(log), api.WithGatherer(prometheus.DefaultGatherer))
	return srv.Run(ctx, cfg.ListenAddr)
}
