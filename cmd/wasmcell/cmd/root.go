// Package cmd provides the CLI commands for WasmCell.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wasm-Cell/wasmcell/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "wasmcell",
	Short: "WasmCell - Sandboxed WebAssembly Component Host",
	Long: `WasmCell loads, sandboxes, and exposes WebAssembly components as MCP tools.

Quick start:
  1. Create a config file: wasmcell.yaml
  2. Run: wasmcell start

Configuration:
  Config is loaded from wasmcell.yaml in the current directory,
  $HOME/.wasmcell/, or /etc/wasmcell/.

  Environment variables can override config values with the WASMCELL_ prefix.
  Example: WASMCELL_SERVER_HTTP_ADDR=:9090

Commands:
  start             Start the host (stdio transport by default)
  load              Load a component from a file, OCI, or HTTPS URI
  unload            Unload a loaded component
  uninstall         Unload a component and delete its on-disk artifact
  list-components   List every currently loaded component id
  grant-permission  Grant a permission rule to a component's policy
  revoke-permission Revoke a permission rule from a component's policy
  reset-permission  Reset a component's policy to the default-deny template
  attach-policy     Attach a policy document to a component
  detach-policy     Detach a component's policy
  get-policy        Print a component's attached-policy metadata
  version           Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./wasmcell.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
