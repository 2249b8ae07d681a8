package main

import (
	"fmt"

	"github.com/modelcontextprotocol/mcp-runtime-go/cmd/mcprtd/internal/host"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the server's built-in tool catalog",
	}
	cmd.AddCommand(newToolsListCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tools the server would register",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := host.LoadConfig(configPath)
			if err != nil {
				return err
			}
			log := host.NewLogger(cfg)
			srv := host.NewServer(cfg, log, prometheus.NewRegistry())
			for tool := range srv.Tools.All() {
				fmt.Printf("%s\t%s\n", tool.Tool.Name, tool.Tool.Description)
			}
			return nil
		},
	}
}
