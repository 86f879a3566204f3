package kernel

import (
	"context"

	"go.uber.org/zap"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/monitoring"
)

// LifecycleGuard wraps a Registry and refuses every operation that would
// restart or stop a kernel. The refusal happens before the registry is
// touched, whatever state the handles are in. Other calls pass through.
type LifecycleGuard struct {
	registry *Registry
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewLifecycleGuard creates a guard around registry.
func NewLifecycleGuard(registry *Registry, logger *zap.Logger) *LifecycleGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleGuard{registry: registry, logger: logger}
}

// WithMetrics adds metrics tracking to the guard
func (g *LifecycleGuard) WithMetrics(metrics *monitoring.Metrics) *LifecycleGuard {
	g.metrics = metrics
	return g
}

func (g *LifecycleGuard) Create(ctx context.Context, opts Options) (string, error) {
	return g.registry.Create(ctx, opts)
}

func (g *LifecycleGuard) Get(id string) (Snapshot, bool) { return g.registry.Get(id) }

func (g *LifecycleGuard) List() []string { return g.registry.List() }

func (g *LifecycleGuard) All() []Snapshot { return g.registry.All() }

func (g *LifecycleGuard) Stats() Stats { return g.registry.Stats() }

func (g *LifecycleGuard) Interrupt(ctx context.Context, id string) error {
	return g.registry.Interrupt(ctx, id)
}

// RestartKernel always fails with ErrOperationNotSupported.
func (g *LifecycleGuard) RestartKernel(_ context.Context, id string, _ bool) error {
	return g.reject(OpRestart, id)
}

// ShutdownKernel always fails with ErrOperationNotSupported. now selects the
// kill variant, which is refused the same way.
func (g *LifecycleGuard) ShutdownKernel(_ context.Context, id string, now bool) error {
	if now {
		return g.reject(OpKill, id)
	}
	return g.reject(OpShutdown, id)
}

// ShutdownAll always fails with ErrOperationNotSupported.
func (g *LifecycleGuard) ShutdownAll(_ context.Context, _ bool) error {
	return g.reject(OpShutdownAll, "")
}

func (g *LifecycleGuard) reject(op, id string) error {
	g.metrics.RecordLifecycleRejection(op)
	g.logger.Warn("Refusing lifecycle operation on externally owned kernel",
		zap.String("operation", op),
		zap.String("kernel_id", id),
	)
	return &UnsupportedOperationError{Op: op, KernelID: id}
}
