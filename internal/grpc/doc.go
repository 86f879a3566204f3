// Package grpc exposes the standard gRPC health service for the attach
// server.
//
// The overall status ("") is SERVING while the server runs. KernelService
// reports NOT_SERVING until a kernel handle has been attached to the
// host-owned kernel, then SERVING until shutdown.
//
// Example Usage:
//
//	hs := grpc.NewHealthServer(logger)
//	manager.OnAttach(func(kernel.Snapshot) { hs.MarkAttached() })
//	go hs.ListenAndServe("127.0.0.1:50051")
//	defer hs.Stop()
//
//	status, err := grpc.Check(ctx, "127.0.0.1:50051", grpc.KernelService)
package grpc
