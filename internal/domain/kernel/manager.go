package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/connection"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/monitoring"
)

// Service is the capability set the front end consumes.
type Service interface {
	StartKernel(ctx context.Context, opts Options) (string, error)
	Get(id string) (Snapshot, bool)
	List() []string
	All() []Snapshot
	Interrupt(ctx context.Context, id string) error
	RestartKernel(ctx context.Context, id string, now bool) error
	ShutdownKernel(ctx context.Context, id string, now bool) error
	ShutdownAll(ctx context.Context, now bool) error
	Stats() Stats
}

// AttachHook runs after a kernel becomes ready.
type AttachHook func(Snapshot)

// AttachmentManager starts kernels by attaching them to the process the host
// application owns. Every start reuses the same configured descriptor, so
// each call yields a new id bound to the same external kernel.
type AttachmentManager struct {
	registry *Registry
	guard    *LifecycleGuard
	path     string
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	load     func(path string) (connection.Descriptor, error)

	hooksMu sync.RWMutex
	hooks   []AttachHook
}

var _ Service = (*AttachmentManager)(nil)

// NewAttachmentManager creates a manager that rebinds handles from the
// descriptor at path. The path is checked on every start, not here.
func NewAttachmentManager(registry *Registry, path string, logger *zap.Logger) *AttachmentManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentManager{
		registry: registry,
		guard:    NewLifecycleGuard(registry, logger),
		path:     path,
		logger:   logger,
		load:     connection.Parse,
	}
}

// WithMetrics adds metrics tracking to the manager, its guard and registry.
func (m *AttachmentManager) WithMetrics(metrics *monitoring.Metrics) *AttachmentManager {
	m.metrics = metrics
	m.guard.WithMetrics(metrics)
	m.registry.WithMetrics(metrics)
	return m
}

// OnAttach registers a hook that runs each time a kernel becomes ready.
func (m *AttachmentManager) OnAttach(hook AttachHook) {
	m.hooksMu.Lock()
	m.hooks = append(m.hooks, hook)
	m.hooksMu.Unlock()
}

// Guard returns the lifecycle guard in front of the registry.
func (m *AttachmentManager) Guard() *LifecycleGuard { return m.guard }

// StartKernel creates a handle through the registry, then discards its
// locally claimed ports and applies the host's descriptor. The id is only
// returned, and the handle only visible, once rebinding has finished.
func (m *AttachmentManager) StartKernel(ctx context.Context, opts Options) (string, error) {
	timer := monitoring.NewTimer(m.metrics)

	if m.path == "" {
		timer.Stop(monitoring.AttachConfigError)
		return "", fmt.Errorf("start kernel: %w", connection.ErrConfiguration)
	}

	id, err := m.guard.Create(ctx, opts)
	if err != nil {
		timer.Stop(attachResult(err))
		return "", fmt.Errorf("start kernel: %w", err)
	}

	m.logger.Info("Attaching kernel to external process",
		zap.String("kernel_id", id),
		zap.String("connection_file", m.path),
	)
	if err := m.attach(ctx, id); err != nil {
		m.registry.discard(id)
		timer.Stop(attachResult(err))
		return "", fmt.Errorf("start kernel: %w", err)
	}

	timer.Stop(monitoring.AttachSuccess)
	m.registry.syncMetrics()

	if snap, ok := m.registry.Get(id); ok {
		m.hooksMu.RLock()
		hooks := append([]AttachHook(nil), m.hooks...)
		m.hooksMu.RUnlock()
		for _, hook := range hooks {
			hook(snap)
		}
	}
	return id, nil
}

// attach rebinds a created handle to the configured descriptor and marks it
// ready.
func (m *AttachmentManager) attach(ctx context.Context, id string) error {
	h, ok := m.registry.lookup(id)
	if !ok {
		return fmt.Errorf("attach %s: %w", id, ErrKernelNotFound)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := h.rebind(func() (connection.Descriptor, error) {
		d, err := m.load(m.path)
		switch {
		case errors.Is(err, connection.ErrFileNotFound):
			m.metrics.RecordDescriptorLoad(monitoring.LoadMissing)
			m.logger.Warn("Connection file does not exist; kernel attached without endpoints",
				zap.String("kernel_id", id),
				zap.String("connection_file", m.path),
			)
			return connection.Descriptor{}, nil
		case err != nil:
			m.metrics.RecordDescriptorLoad(monitoring.LoadInvalid)
			return connection.Descriptor{}, err
		}
		m.metrics.RecordDescriptorLoad(monitoring.LoadOK)
		return d, nil
	})
	if err != nil {
		return fmt.Errorf("attach %s: %w", id, err)
	}

	h.lockLifecycle(m.registry.now())
	return nil
}

func (m *AttachmentManager) Get(id string) (Snapshot, bool) { return m.guard.Get(id) }

func (m *AttachmentManager) List() []string { return m.guard.List() }

func (m *AttachmentManager) All() []Snapshot { return m.guard.All() }

func (m *AttachmentManager) Stats() Stats { return m.guard.Stats() }

func (m *AttachmentManager) Interrupt(ctx context.Context, id string) error {
	return m.guard.Interrupt(ctx, id)
}

func (m *AttachmentManager) RestartKernel(ctx context.Context, id string, now bool) error {
	return m.guard.RestartKernel(ctx, id, now)
}

func (m *AttachmentManager) ShutdownKernel(ctx context.Context, id string, now bool) error {
	return m.guard.ShutdownKernel(ctx, id, now)
}

func (m *AttachmentManager) ShutdownAll(ctx context.Context, now bool) error {
	return m.guard.ShutdownAll(ctx, now)
}

func attachResult(err error) string {
	switch {
	case errors.Is(err, connection.ErrConfiguration):
		return monitoring.AttachConfigError
	case errors.Is(err, connection.ErrParse):
		return monitoring.AttachParseError
	default:
		return monitoring.AttachError
	}
}
