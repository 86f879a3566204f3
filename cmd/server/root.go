package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/config"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/server"
)

const connectionFileEnv = "JUPYTER_ATTACH_CONNECTION_FILE"

// newRootCmd builds the launcher. run receives the final configuration.
func newRootCmd(run func(*config.Config) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jupyter-attach <connection-file>",
		Short: "Serve Jupyter kernels owned by a host application",
		Long: `jupyter-attach serves a kernel that a host application already started.
Kernels are attached using the connection file at the given absolute path.
Restart and shutdown requests are refused; the host owns the kernel process.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Using connection file %s\n", cfg.Attach.ConnectionFile)
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("port", "", "HTTP port (overrides PORT)")
	flags.String("host", "", "HTTP host (overrides HOST)")
	flags.Bool("dev", false, "Development mode: colored console logs at debug level")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("kernel-name", "", "Default kernel name for start requests")
	flags.String("grpc-health-addr", "", "Serve gRPC health on this address")
	flags.Bool("no-watch", false, "Do not watch the connection file for rewrites")

	cmd.AddCommand(newHealthCmd())
	return cmd
}

// buildConfig loads the environment, then applies the positional path and
// any flags that were set.
func buildConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("connection file %q must be an absolute path", path)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Attach.ConnectionFile = filepath.Clean(path)

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetString("port")
	}
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if dev, _ := flags.GetBool("dev"); dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("kernel-name") {
		cfg.Attach.KernelName, _ = flags.GetString("kernel-name")
	}
	if flags.Changed("grpc-health-addr") {
		cfg.GRPC.HealthAddr, _ = flags.GetString("grpc-health-addr")
	}
	if noWatch, _ := flags.GetBool("no-watch"); noWatch {
		cfg.Attach.WatchConnectionFile = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer(cfg *config.Config) error {
	// Child processes started by the host look the descriptor up here.
	if err := os.Setenv(connectionFileEnv, cfg.Attach.ConnectionFile); err != nil {
		return err
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		srv.Logger().Info("Received shutdown signal")
		return srv.Close()
	case err := <-errChan:
		srv.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
