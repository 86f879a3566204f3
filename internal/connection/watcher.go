package connection

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DriftHandler receives the descriptor the host wrote after startup.
type DriftHandler func(current Descriptor)

// Watcher reports when the host application rewrites the descriptor.
//
// Attached kernels keep the descriptor they were attached with; the watcher
// only surfaces the change so an operator can act on it.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	onDrift DriftHandler

	mu   sync.Mutex
	last Descriptor

	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher watches path, comparing every rewrite against baseline.
func NewWatcher(path string, baseline Descriptor, logger *zap.Logger, onDrift DriftHandler) (*Watcher, error) {
	if path == "" {
		return nil, ErrConfiguration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:    filepath.Clean(path),
		watcher: w,
		logger:  logger,
		onDrift: onDrift,
		last:    baseline.Clone(),
		done:    make(chan struct{}),
	}, nil
}

// Start watches the descriptor's directory, so editors that replace the file
// instead of writing in place are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// Stop ends watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.check()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Connection file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) check() {
	d, err := Parse(w.path)
	if err != nil {
		// A half-written file parses as garbage; the next write event retries.
		if !errors.Is(err, ErrFileNotFound) {
			w.logger.Debug("Ignoring unreadable connection file", zap.String("path", w.path), zap.Error(err))
		}
		return
	}

	w.mu.Lock()
	changed := !d.Equal(w.last)
	if changed {
		w.last = d.Clone()
	}
	w.mu.Unlock()

	if !changed {
		return
	}
	w.logger.Warn("Connection file changed after attach; attached kernels keep their original descriptor",
		zap.String("path", w.path),
		zap.String("transport", string(d.Transport)),
		zap.String("ip", d.IP),
		zap.Uint16("shell_port", d.ShellPort),
	)
	if w.onDrift != nil {
		w.onDrift(d.Clone())
	}
}
