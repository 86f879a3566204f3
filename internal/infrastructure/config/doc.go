// Package config provides 12-factor configuration for the attach server.
//
// Configuration is loaded from environment variables with sensible defaults.
// The launcher's positional argument and flags override the environment.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Attach: connection file of the host-owned kernel, default kernel name
//   - GRPC: gRPC health server address
//   - Logging: Log level and output format
//   - RateLimit: Per-IP or global rate limiting configuration
//
// Environment Variables:
//   - PORT, HOST, CORS_ALLOW_ORIGINS
//   - JUPYTER_ATTACH_CONNECTION_FILE, JUPYTER_ATTACH_KERNEL_NAME, JUPYTER_ATTACH_WATCH
//   - GRPC_HEALTH_ADDR
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED, RATE_LIMIT_GLOBAL
package config
