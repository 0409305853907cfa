// Package http provides HTTP/Streamable HTTP transport for the WasmCell
// Tool Gateway.
//
// This package implements inbound HTTP transport following the MCP
// Streamable HTTP specification (2025-03-26). It exposes the same
// tools/list and tools/call surface the stdio transport serves, for
// clients that prefer a network connection over a stdio pipe (spec §10,
// "--http to also expose the JSON-RPC surface over HTTP").
//
// # Usage
//
// Create and start an HTTP transport:
//
//	transport := http.NewHTTPTransport(gateway,
//	    http.WithAddr(":9090"),
//	    http.WithAllowedOrigins([]string{"https://example.com"}),
//	    http.WithLogger(logger),
//	)
//	err := transport.Start(ctx)
//
// # Endpoints
//
//	POST /mcp   - Send a JSON-RPC request, receive a JSON-RPC response
//	GET /mcp    - Open an SSE stream for tools/list_changed notifications
//	DELETE /mcp - Terminate a session and close its SSE connections
//	OPTIONS /mcp - CORS preflight handling
//	GET /health - Liveness/readiness check
//	GET /metrics - Prometheus exposition
//
// # Security
//
// No client authentication (spec's Non-goals exclude it): this transport
// targets loopback or otherwise trusted network exposure. It still
// applies DNS rebinding protection (Origin header validation via
// WithAllowedOrigins) and extracts the caller's real IP (X-Forwarded-For/
// X-Real-IP) for log correlation.
//
// # Middleware chain
//
//  1. MetricsMiddleware - records request duration and status
//  2. RequestIDMiddleware - extracts/generates a request ID, enriches the logger
//  3. RealIPMiddleware - extracts client IP from proxy headers
//  4. DNSRebindingProtection - validates the Origin header
//  5. Handler - routes to POST/GET/DELETE/OPTIONS handlers
//
// # Server-Sent Events
//
// GET requests open an SSE stream carrying notifications/tools/list_changed
// pushes. The stream requires an Mcp-Session-Id header, sends
// "data: <json>\n\n" formatted events, supports multiple connections per
// session, and disconnects cleanly on context cancellation or session
// termination.
package http
