package connection

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWatcherReportsRewrite(t *testing.T) {
	path := writeFile(t, "connection.json", scenarioJSON)
	baseline, err := Parse(path)
	require.NoError(t, err)

	drift := make(chan Descriptor, 4)
	w, err := NewWatcher(path, baseline, zaptest.NewLogger(t), func(d Descriptor) { drift <- d })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	rotated := strings.Replace(scenarioJSON, "55000", "56000", 1)
	require.NoError(t, os.WriteFile(path, []byte(rotated), 0o600))

	select {
	case d := <-drift:
		assert.Equal(t, uint16(56000), d.ShellPort)
	case <-time.After(5 * time.Second):
		t.Fatal("expected drift notification")
	}
}

func TestWatcherIgnoresIdenticalRewrite(t *testing.T) {
	path := writeFile(t, "connection.json", scenarioJSON)
	baseline, err := Parse(path)
	require.NoError(t, err)

	drift := make(chan Descriptor, 4)
	w, err := NewWatcher(path, baseline, nil, func(d Descriptor) { drift <- d })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(scenarioJSON), 0o600))

	assert.Never(t, func() bool { return len(drift) > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := writeFile(t, "connection.json", scenarioJSON)
	w, err := NewWatcher(path, Descriptor{}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestNewWatcherRequiresPath(t *testing.T) {
	_, err := NewWatcher("", Descriptor{}, nil, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
