// Package main is the entry point for the Jupyter attach server.
//
// The server lets Jupyter clients use a kernel that a host application
// started and keeps running. It attaches kernel handles to that process
// using the host's connection file and refuses every restart or shutdown.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - The positional argument: absolute path of the connection file
//
// Usage:
//
//	# Attach to the kernel described by the host's connection file
//	jupyter-attach /run/user/1000/jupyter/kernel-42.json
//
//	# Development mode (colored logs, debug level) with gRPC health
//	jupyter-attach --dev --grpc-health-addr 127.0.0.1:50051 /tmp/kernel.json
//
//	# Probe a running server
//	jupyter-attach health --addr 127.0.0.1:50051
package main
