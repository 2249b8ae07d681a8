// Command mcprtd hosts an MCP server built from a static example catalog
// (an echo tool, a greeting prompt, and an in-memory note resource),
// serving it over the transport selected in its configuration.
package main

import (
	"fmt"
	"os"

	"github.com/modelcontextprotocol/mcp-runtime-go/cmd/mcprtd/internal/host"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "mcprtd",
		Short: "Run and inspect an MCP runtime host",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML/JSON/TOML config file")

	root.AddCommand(newServeCmd(), newToolsCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the runtime version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := host.LoadConfig(configPath)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
			return nil
		},
	}
}
