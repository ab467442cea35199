package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/goAdmin/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type serveFlags struct {
	config  string
	addr    string
	backend string
}

func init() {
	flags := new(serveFlags)

	serveCmd := &cobra.Command{
		Use:   "serve [-c config_file] [-a addr] [-b backend]",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	fs := serveCmd.Flags()
	fs.StringVarP(&flags.config, "config", "c", "", "YAML config file; defaults apply when empty")
	fs.StringVarP(&flags.addr, "addr", "a", "", "listen address, overrides http.addr")
	fs.StringVarP(&flags.backend, "backend", "b", "", "storage backend, overrides storage.backend")

	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, flags *serveFlags) error {
	var (
		cfg *server.Config
		err error
	)
	if flags.config != "" {
		cfg, err = server.LoadConfig(flags.config)
	} else {
		cfg, err = server.DefaultConfig()
	}
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.HTTP.Addr = flags.addr
	}
	if flags.backend != "" {
		cfg.Storage.Backend = flags.backend
	}

	logger, err := server.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("server start failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Warn("server close failed", zap.Error(err))
		}
	}()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
