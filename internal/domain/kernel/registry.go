package kernel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/connection"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/monitoring"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/provisioning"
)

// Stats contains registry statistics
type Stats struct {
	Total   int `json:"total"`
	Ready   int `json:"ready"`
	Pending int `json:"pending"`
}

// Registry maps kernel ids to handles. It owns every handle; callers only
// ever get ids and snapshots back.
type Registry struct {
	mu      sync.RWMutex
	kernels map[string]*Handle // Protected by mu

	factory provisioning.Factory
	logger  *zap.Logger
	metrics *monitoring.Metrics
	newID   func() string
	now     func() time.Time
}

// NewRegistry creates a registry whose handles are provisioned by factory.
func NewRegistry(factory provisioning.Factory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		kernels: make(map[string]*Handle),
		factory: factory,
		logger:  logger,
		newID:   func() string { return uuid.New().String() },
		now:     time.Now,
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Create registers a new handle using the default launch path: pre-launch,
// claim local ports, launch, and reconcile with what the provisioner
// reports. The handle stays in StateCreated and is not visible to Get or
// List.
func (r *Registry) Create(ctx context.Context, opts Options) (string, error) {
	prov := r.factory(opts.KernelName)
	launch, err := prov.PreLaunch(ctx, provisioning.LaunchOptions{
		KernelName: opts.KernelName,
		Env:        opts.Env,
		Cwd:        opts.Cwd,
	})
	if err != nil {
		return "", fmt.Errorf("pre-launch kernel: %w", err)
	}

	d, err := r.launch(ctx, prov)
	if err != nil {
		return "", err
	}

	h := newHandle(r.newID(), launch.KernelName, prov, r.now())
	h.setConnection(d)

	r.mu.Lock()
	r.kernels[h.id] = h
	r.mu.Unlock()

	r.logger.Debug("Kernel handle created",
		zap.String("kernel_id", h.id),
		zap.String("kernel_name", launch.KernelName),
	)
	return h.id, nil
}

// launch builds the connection info for a fresh or restarted handle.
// Locally claimed ports take precedence over the provisioner's.
func (r *Registry) launch(ctx context.Context, prov provisioning.Provisioner) (connection.Descriptor, error) {
	local := connection.Descriptor{
		Transport: connection.TransportTCP,
		IP:        defaultIP,
	}
	if err := claimLocalPorts(&local); err != nil {
		return connection.Descriptor{}, err
	}

	info, err := prov.Launch(ctx)
	if err != nil {
		return connection.Descriptor{}, fmt.Errorf("launch kernel: %w", err)
	}
	if !prov.HasProcess() {
		return connection.Descriptor{}, errors.New("launch kernel: provisioner reports no process")
	}
	local.Merge(info)
	return local, nil
}

// Get returns a snapshot of a ready handle.
func (r *Registry) Get(id string) (Snapshot, bool) {
	h, ok := r.lookup(id)
	if !ok || !h.ready() {
		return Snapshot{}, false
	}
	return h.snapshot(), true
}

// List returns the ids of ready handles in sorted order.
func (r *Registry) List() []string {
	snaps := r.All()
	ids := make([]string, 0, len(snaps))
	for _, s := range snaps {
		ids = append(ids, s.ID)
	}
	return ids
}

// All returns snapshots of ready handles, sorted by id.
func (r *Registry) All() []Snapshot {
	r.mu.RLock()
	handles := make([]*Handle, 0, len(r.kernels))
	for _, h := range r.kernels {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(handles))
	for _, h := range handles {
		if h.ready() {
			snaps = append(snaps, h.snapshot())
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps
}

// Interrupt forwards SIGINT through the handle's provisioner. The handle
// itself is left untouched.
func (r *Registry) Interrupt(ctx context.Context, id string) error {
	h, ok := r.lookup(id)
	if !ok || !h.ready() {
		return fmt.Errorf("interrupt %s: %w", id, ErrKernelNotFound)
	}
	if err := h.provisioner.SendSignal(ctx, int(syscall.SIGINT)); err != nil {
		return fmt.Errorf("interrupt %s: %w", id, err)
	}
	return nil
}

// Restart stops the kernel and launches it again. This is the default path
// for kernels the server owns; LifecycleGuard keeps it unreachable for
// attached kernels.
func (r *Registry) Restart(ctx context.Context, id string, now bool) error {
	h, ok := r.lookup(id)
	if !ok {
		return fmt.Errorf("restart %s: %w", id, ErrKernelNotFound)
	}
	if err := r.stop(ctx, h, now, true); err != nil {
		return fmt.Errorf("restart %s: %w", id, err)
	}
	d, err := r.launch(ctx, h.provisioner)
	if err != nil {
		return fmt.Errorf("restart %s: %w", id, err)
	}
	h.setConnection(d)
	h.touch(r.now())
	return nil
}

// Shutdown stops the kernel and removes its handle.
func (r *Registry) Shutdown(ctx context.Context, id string, now bool) error {
	h, ok := r.lookup(id)
	if !ok {
		return fmt.Errorf("shutdown %s: %w", id, ErrKernelNotFound)
	}
	if err := r.stop(ctx, h, now, false); err != nil {
		return fmt.Errorf("shutdown %s: %w", id, err)
	}
	r.discard(id)
	return nil
}

// ShutdownAll shuts down every handle, ready or not.
func (r *Registry) ShutdownAll(ctx context.Context, now bool) error {
	r.mu.RLock()
	ids := make([]string, 0, len(r.kernels))
	for id := range r.kernels {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := r.Shutdown(ctx, id, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns registry statistics
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var s Stats
	for _, h := range r.kernels {
		s.Total++
		if h.ready() {
			s.Ready++
		} else {
			s.Pending++
		}
	}
	return s
}

func (r *Registry) stop(ctx context.Context, h *Handle, now, restart bool) error {
	stop := h.provisioner.Terminate
	if now {
		stop = h.provisioner.Kill
	}
	if err := stop(ctx, restart); err != nil {
		return err
	}
	return h.provisioner.Cleanup(ctx, restart)
}

// lookup returns a handle in any state.
func (r *Registry) lookup(id string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.kernels[id]
	return h, ok
}

// discard drops a handle without touching its provisioner.
func (r *Registry) discard(id string) {
	r.mu.Lock()
	delete(r.kernels, id)
	r.mu.Unlock()
	r.syncMetrics()
}

func (r *Registry) syncMetrics() {
	if r.metrics == nil {
		return
	}
	r.metrics.SetKernelsAttached(r.Stats().Ready)
}
