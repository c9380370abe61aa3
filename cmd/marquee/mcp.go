package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/marquee/internal/config"
	mcpserver "github.com/vadimtrunov/marquee/internal/mcp"
)

// newMCPServeCmd returns the hidden "mcp-serve" subcommand.
// It exposes the browsing session as MCP tools over stdin/stdout.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "mcp-serve",
		Short:  "Start MCP server over stdio",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := config.SetupLogger(cfg.App.LogLevel)

			sess, err := openSession(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = sess.Close() }()

			ctx, cancel := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			srv := mcpserver.NewServer(sess.repo, version, logger)
			return srv.ServeStdio(ctx)
		},
	}
}

// cmdContext returns the command context, falling back to Background.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
