package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	wasmcellhttp "github.com/Wasm-Cell/wasmcell/internal/adapter/inbound/http"
	"github.com/Wasm-Cell/wasmcell/internal/adapter/inbound/stdio"
	"github.com/Wasm-Cell/wasmcell/internal/service/toolgateway"
)

var startHTTP bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the WasmCell host",
	Long: `Start loads every component already installed under the plugin
directory, then serves tools/list and tools/call over stdio. Pass --http
to also expose the same surface over HTTP (spec §10).`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startHTTP, "http", false, "also expose the JSON-RPC surface over HTTP")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}
	logger := cliLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mgr, closeMgr, err := newLifecycleManager(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("start host: %w", err)
	}
	defer closeMgr()

	gateway := toolgateway.New(mgr, logger)

	transport := stdio.New(gateway, os.Stdin, os.Stdout, logger)

	if !startHTTP {
		logger.Info("wasmcell host starting", "transport", "stdio", "plugin_dir", cfg.PluginDir)
		return transport.Start(ctx)
	}

	logger.Info("wasmcell host starting", "transport", "stdio+http", "plugin_dir", cfg.PluginDir, "http_addr", cfg.Server.HTTPAddr)

	httpTransport := wasmcellhttp.NewHTTPTransport(gateway,
		wasmcellhttp.WithAddr(cfg.Server.HTTPAddr),
		wasmcellhttp.WithLogger(logger),
		wasmcellhttp.WithHealthChecker(wasmcellhttp.NewHealthChecker(mgr, Version)),
	)

	errCh := make(chan error, 2)
	go func() { errCh <- transport.Start(ctx) }()
	go func() { errCh <- httpTransport.Start(ctx) }()

	<-ctx.Done()
	_ = httpTransport.Close()

	// Drain both goroutines' results; the stdio transport returns
	// ctx.Err() once stdin is no longer being read, and the HTTP
	// transport returns nil after a clean shutdown.
	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && err != context.Canceled && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
