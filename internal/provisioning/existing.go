package provisioning

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/connection"
)

// Existing attaches to a kernel the host application already started.
// It never starts, signals or stops a process.
type Existing struct {
	path   string
	logger *zap.Logger
}

// NewExisting returns a provisioner that reads the descriptor at path.
func NewExisting(path string, logger *zap.Logger) *Existing {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Existing{path: path, logger: logger}
}

// ExistingFactory hands every kernel the same descriptor path.
func ExistingFactory(path string, logger *zap.Logger) Factory {
	return func(string) Provisioner {
		return NewExisting(path, logger)
	}
}

// Path returns the configured descriptor location.
func (p *Existing) Path() string { return p.path }

// PreLaunch drops the command and environment since nothing is executed.
func (p *Existing) PreLaunch(_ context.Context, opts LaunchOptions) (LaunchOptions, error) {
	opts.Command = nil
	opts.Env = nil
	return ValidateLaunch(opts)
}

// Launch loads the descriptor and returns it as the handle's connection info.
// A missing file is logged and yields an empty descriptor.
func (p *Existing) Launch(ctx context.Context) (connection.Descriptor, error) {
	if p.path == "" {
		return connection.Descriptor{}, connection.ErrConfiguration
	}
	if err := ctx.Err(); err != nil {
		return connection.Descriptor{}, err
	}

	p.logger.Info("Using external kernel", zap.String("connection_file", p.path))
	d, err := connection.Parse(p.path)
	if errors.Is(err, connection.ErrFileNotFound) {
		p.logger.Warn("Connection file does not exist", zap.String("connection_file", p.path))
		return connection.Descriptor{}, nil
	}
	if err != nil {
		return connection.Descriptor{}, err
	}
	return d, nil
}

// HasProcess is always true: the external kernel is treated as present.
func (p *Existing) HasProcess() bool { return true }

func (p *Existing) Poll(context.Context) (*int, error) { return nil, nil }

func (p *Existing) Wait(context.Context) (*int, error) { return nil, nil }

func (p *Existing) SendSignal(context.Context, int) error { return nil }

func (p *Existing) Kill(_ context.Context, restart bool) error {
	p.warnRestart(restart)
	return nil
}

func (p *Existing) Terminate(_ context.Context, restart bool) error {
	p.warnRestart(restart)
	return nil
}

func (p *Existing) Cleanup(context.Context, bool) error { return nil }

func (p *Existing) warnRestart(restart bool) {
	if restart {
		p.logger.Warn("Cannot restart a kernel owned by the host application")
	}
}
