package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Wasm-Cell/wasmcell/internal/adapter/outbound/audit"
	"github.com/Wasm-Cell/wasmcell/internal/adapter/outbound/engine/wasmtime"
	"github.com/Wasm-Cell/wasmcell/internal/config"
	"github.com/Wasm-Cell/wasmcell/internal/service/lifecycle"
)

// newLifecycleManager wires a Lifecycle Manager against the production
// wasmtime engine and sqlite audit store, following the configured plugin
// directory and default policy file. Every CLI admin command is a thin
// wrapper that builds this same façade and calls the matching Manager
// method the Tool Gateway calls for its built-in tool (SPEC_FULL.md §10).
func newLifecycleManager(ctx context.Context, cfg *config.WasmCellConfig, logger *slog.Logger) (*lifecycle.Manager, func(), error) {
	store, err := audit.NewSQLiteStore(cfg.AuditDBPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit store: %w", err)
	}

	engine := wasmtime.New()
	mgr, err := lifecycle.New(ctx, cfg.PluginDir, cfg.DefaultPolicyFile, engine, nil, store, logger)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("construct lifecycle manager: %w", err)
	}

	return mgr, func() { _ = store.Close() }, nil
}

// loadCLIConfig loads configuration the same way every admin subcommand
// does: raw load, dev defaults, validation.
func loadCLIConfig() (*config.WasmCellConfig, error) {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.SetDevDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// cliLogger builds the stderr logger every CLI command uses (stdout is
// reserved for the stdio MCP transport, and for command output here).
func cliLogger(cfg *config.WasmCellConfig) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
