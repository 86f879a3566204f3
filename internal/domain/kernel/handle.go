package kernel

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/connection"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/provisioning"
)

// State is the attachment state of a handle.
type State string

const (
	// StateCreated: registered with locally claimed ports, not yet rebound.
	StateCreated State = "created"
	// StateAttached: ports and credentials rebound to the host's descriptor.
	StateAttached State = "attached"
	// StateLifecycleLocked: ready for routing; lifecycle belongs to the host.
	StateLifecycleLocked State = "lifecycle_locked"
)

// Options carries a start request.
type Options struct {
	KernelName string
	Env        map[string]string
	Cwd        string
}

// Handle is the server-side record of one logical kernel.
// Fields after mu are protected by it. state is read without mu so that
// readers can skip a handle whose rebind is still in progress.
type Handle struct {
	id          string
	createdAt   time.Time
	provisioner provisioning.Provisioner
	state       atomic.Value // State

	mu           sync.RWMutex
	kernelName   string
	conn         connection.Descriptor
	lastActivity time.Time
}

func newHandle(id, kernelName string, p provisioning.Provisioner, now time.Time) *Handle {
	h := &Handle{
		id:           id,
		createdAt:    now,
		provisioner:  p,
		kernelName:   kernelName,
		lastActivity: now,
	}
	h.state.Store(StateCreated)
	return h
}

// Snapshot is a consistent copy of a handle's fields.
type Snapshot struct {
	ID           string
	KernelName   string
	State        State
	Connection   connection.Descriptor
	CreatedAt    time.Time
	LastActivity time.Time
}

// Ready reports whether the kernel may be routed to.
func (s Snapshot) Ready() bool { return s.State == StateLifecycleLocked }

// Signer returns the message signer for the kernel's key and scheme.
func (s Snapshot) Signer() (*connection.Signer, error) {
	return connection.NewSigner(s.Connection.SignatureScheme, s.Connection.Key)
}

func (h *Handle) snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Snapshot{
		ID:           h.id,
		KernelName:   h.kernelName,
		State:        h.currentState(),
		Connection:   h.conn.Clone(),
		CreatedAt:    h.createdAt,
		LastActivity: h.lastActivity,
	}
}

func (h *Handle) currentState() State { return h.state.Load().(State) }

func (h *Handle) ready() bool { return h.currentState() == StateLifecycleLocked }

// setConnection replaces the descriptor wholesale.
func (h *Handle) setConnection(d connection.Descriptor) {
	h.mu.Lock()
	h.conn = d.Clone()
	h.mu.Unlock()
}

// rebind discards the handle's ports, then overwrites every descriptor field
// with what load returns. Both steps run under the write lock so readers
// never see the zeroed ports.
func (h *Handle) rebind(load func() (connection.Descriptor, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	connection.ResetPorts(&h.conn)
	d, err := load()
	if err != nil {
		return err
	}
	h.conn = d.Clone()
	h.state.Store(StateAttached)
	return nil
}

func (h *Handle) lockLifecycle(now time.Time) {
	h.mu.Lock()
	h.lastActivity = now
	h.state.Store(StateLifecycleLocked)
	h.mu.Unlock()
}

func (h *Handle) touch(now time.Time) {
	h.mu.Lock()
	h.lastActivity = now
	h.mu.Unlock()
}
