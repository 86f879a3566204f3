package kernel

import (
	"errors"
	"fmt"
)

// Lifecycle operations refused by the guard.
const (
	OpRestart     = "restart"
	OpShutdown    = "shutdown"
	OpKill        = "kill"
	OpShutdownAll = "shutdown_all"
)

var (
	// ErrOperationNotSupported matches every *UnsupportedOperationError.
	ErrOperationNotSupported = errors.New("kernel: operation not supported")
	// ErrKernelNotFound means no ready handle has the requested id.
	ErrKernelNotFound = errors.New("kernel: not found")
)

// UnsupportedOperationError names the lifecycle operation that was refused.
type UnsupportedOperationError struct {
	Op       string
	KernelID string
}

func (e *UnsupportedOperationError) Error() string {
	if e.KernelID == "" {
		return fmt.Sprintf("kernel: %s is not supported for kernels owned by the host application", e.Op)
	}
	return fmt.Sprintf("kernel: %s of %s is not supported for kernels owned by the host application", e.Op, e.KernelID)
}

// Is lets errors.Is(err, ErrOperationNotSupported) match.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrOperationNotSupported
}
