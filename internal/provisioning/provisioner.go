package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/connection"
)

// DefaultKernelName is used when a start request names no kernel.
const DefaultKernelName = "ManiVaultStudio"

// ErrInvalidLaunch marks a launch request rejected before anything is loaded.
var ErrInvalidLaunch = errors.New("invalid launch request")

// LaunchOptions carries the per-kernel launch request.
type LaunchOptions struct {
	KernelName string
	Command    []string
	Env        map[string]string
	Cwd        string
}

// Provisioner launches the process behind a kernel handle and supervises it.
type Provisioner interface {
	// PreLaunch validates and normalizes the launch request.
	PreLaunch(ctx context.Context, opts LaunchOptions) (LaunchOptions, error)
	// Launch brings the kernel up and returns how to reach it.
	Launch(ctx context.Context) (connection.Descriptor, error)
	// HasProcess reports whether a kernel process backs the handle.
	HasProcess() bool
	// Poll returns the exit code, or nil while the kernel is running.
	Poll(ctx context.Context) (*int, error)
	// Wait blocks until the kernel exits and returns its exit code.
	Wait(ctx context.Context) (*int, error)
	SendSignal(ctx context.Context, signum int) error
	Kill(ctx context.Context, restart bool) error
	Terminate(ctx context.Context, restart bool) error
	Cleanup(ctx context.Context, restart bool) error
}

// Factory creates the provisioner for one kernel handle.
type Factory func(kernelName string) Provisioner

// ValidateLaunch applies the checks every provisioner shares.
func ValidateLaunch(opts LaunchOptions) (LaunchOptions, error) {
	opts.KernelName = strings.TrimSpace(opts.KernelName)
	if opts.KernelName == "" {
		opts.KernelName = DefaultKernelName
	}
	if strings.ContainsAny(opts.KernelName, "/\\") {
		return opts, fmt.Errorf("%w: kernel name %q", ErrInvalidLaunch, opts.KernelName)
	}
	return opts, nil
}
