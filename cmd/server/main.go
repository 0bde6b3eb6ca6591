package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andy6609/roomrelay/internal/app"
	"github.com/andy6609/roomrelay/internal/config"
	"github.com/andy6609/roomrelay/internal/log"
)

type options struct {
	configPath string
	host       string
	port       int
	adminAddr  string
	logLevel   string
	handshake  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "roomrelay [port]",
		Short:         "Multi-room TCP chat and file relay server",
		Args:          cobra.RangeArgs(0, 1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	flags.StringVar(&opts.host, "host", "", "chat listen host")
	flags.IntVarP(&opts.port, "port", "p", 0, "chat listen port")
	flags.StringVar(&opts.adminAddr, "admin-addr", "", "admin HTTP listen address (empty disables)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.handshake, "handshake", "", "client handshake: hello or raw")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts options) error {
	bootLog := log.New("info", "console")

	cfg, path, err := config.Load(&bootLog, opts.configPath)
	if err != nil {
		bootLog.Error().Err(err).Msg("failed to load config")
		return err
	}

	if err := applyOverrides(cmd, args, opts, &cfg); err != nil {
		bootLog.Error().Err(err).Msg("invalid arguments")
		return err
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	if path != "" {
		logger.Info().Str("path", path).Msg("config loaded")
	}

	application, err := app.New(cfg, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to init application")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", cfg.Addr()).Msg("starting roomrelay")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// applyOverrides layers the positional port and any explicitly set flags on
// top of the loaded config.
func applyOverrides(cmd *cobra.Command, args []string, opts options, cfg *config.Config) error {
	if len(args) == 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		cfg.Port = port
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Port = opts.port
	}
	if flags.Changed("admin-addr") {
		cfg.AdminAddr = opts.adminAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("handshake") {
		cfg.Handshake = opts.handshake
	}
	return nil
}
