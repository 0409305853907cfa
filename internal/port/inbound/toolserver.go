package inbound

import "context"

// ToolServer is the inbound port for the MCP-facing host: the surface an
// inbound transport adapter (stdio, HTTP) drives to serve `tools/list` and
// `tools/call` (spec §4.8, §6).
type ToolServer interface {
	// Start begins serving requests. Blocks until ctx is cancelled or an
	// unrecoverable transport error occurs.
	Start(ctx context.Context) error

	// Close releases the transport's resources.
	Close() error
}
