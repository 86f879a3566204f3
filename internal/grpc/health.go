package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// KernelService is the health service name that tracks kernel attachment.
const KernelService = "jupyter.attach.Kernel"

// HealthServer serves grpc.health.v1 for the attach server.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	logger *zap.Logger

	mu       sync.Mutex
	attached bool
	stopped  bool
}

// NewHealthServer creates a health server with the kernel service not yet
// serving. opts are appended to the server's keepalive settings.
func NewHealthServer(logger *zap.Logger, opts ...grpc.ServerOption) *HealthServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := grpc.NewServer(append([]grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    60 * time.Second,
			Timeout: 20 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             30 * time.Second,
			PermitWithoutStream: true,
		}),
	}, opts...)...)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(KernelService, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{server: srv, health: hs, logger: logger}
}

// MarkAttached flips KernelService to SERVING. Later calls are no-ops.
func (h *HealthServer) MarkAttached() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attached || h.stopped {
		return
	}
	h.attached = true
	h.health.SetServingStatus(KernelService, healthpb.HealthCheckResponse_SERVING)
	h.logger.Info("Kernel health is serving", zap.String("service", KernelService))
}

// Serve accepts connections on lis until Stop is called.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
	if err := h.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("serve health: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and serves.
func (h *HealthServer) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return h.Serve(lis)
}

// Stop reports NOT_SERVING for every service and stops the server.
func (h *HealthServer) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	h.health.Shutdown()
	h.server.GracefulStop()
}

// Check dials addr and asks for the status of service.
func Check(ctx context.Context, addr, service string, opts ...grpc.DialOption) (healthpb.HealthCheckResponse_ServingStatus, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("failed to dial health server: %w", err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health check %q: %w", service, err)
	}
	return resp.GetStatus(), nil
}
