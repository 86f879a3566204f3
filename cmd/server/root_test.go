package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/config"
)

// clearEnv unsets the variables the launcher reads and restores them later.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "HOST", "LOG_LEVEL", "LOG_DEV", connectionFileEnv, "GRPC_HEALTH_ADDR"} {
		if value, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func execute(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var got *config.Config
	cmd := newRootCmd(func(cfg *config.Config) error {
		got = cfg
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return got, err
}

func TestRootRequiresOneArgument(t *testing.T) {
	clearEnv(t)
	_, err := execute(t)
	assert.Error(t, err)

	_, err = execute(t, "/a.json", "/b.json")
	assert.Error(t, err)
}

func TestRootRejectsRelativePath(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "kernel.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute path")
}

func TestRootDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := execute(t, "/run/kernel.json")
	require.NoError(t, err)

	assert.Equal(t, "/run/kernel.json", cfg.Attach.ConnectionFile)
	assert.Equal(t, "ManiVaultStudio", cfg.Attach.KernelName)
	assert.True(t, cfg.Attach.WatchConnectionFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.GRPC.HealthAddr)
}

func TestRootFlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv(connectionFileEnv, "/env/kernel.json")

	cfg, err := execute(t,
		"--port", "9100",
		"--dev",
		"--log-level", "warn",
		"--kernel-name", "python3",
		"--grpc-health-addr", "127.0.0.1:50051",
		"--no-watch",
		"/run/kernel.json",
	)
	require.NoError(t, err)

	assert.Equal(t, "/run/kernel.json", cfg.Attach.ConnectionFile)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "python3", cfg.Attach.KernelName)
	assert.Equal(t, "127.0.0.1:50051", cfg.GRPC.HealthAddr)
	assert.False(t, cfg.Attach.WatchConnectionFile)
}

func TestRootEnvironmentWithoutFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := execute(t, "/run/kernel.json")
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestRootPrintsConnectionFile(t *testing.T) {
	clearEnv(t)
	var out bytes.Buffer
	cmd := newRootCmd(func(*config.Config) error { return nil })
	cmd.SetArgs([]string{"/run/kernel.json"})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Using connection file /run/kernel.json\n", out.String())
}
