package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/mcp-runtime-go/cmd/mcprtd/internal/host"
	"github.com/modelcontextprotocol/mcp-runtime-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over its configured transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := host.LoadConfig(configPath)
			if err != nil {
				return err
			}
			log := host.NewLogger(cfg)
			reg := prometheus.NewRegistry()
			srv := host.NewServer(cfg, log, reg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watch && configPath != "" {
				stopWatch, err := mcp.WatchHostConfig(configPath, log, func(newCfg *mcp.HostConfig) {
					log.Info("config reloaded", "tool_timeout", newCfg.ToolTimeout)
				})
				if err != nil {
					log.Warn("config watch disabled", "err", err)
				} else {
					defer stopWatch()
				}
			}

			log.LogAttrs(ctx, slog.LevelInfo, "starting mcprtd", slog.String("transport", cfg.Transport))
			return host.Serve(ctx, cfg, srv, log, reg)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "log the reloaded configuration when the config file changes (the running server keeps its settings)")
	return cmd
}
