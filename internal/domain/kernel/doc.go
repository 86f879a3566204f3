// Package kernel manages handles for a kernel started by a host application.
//
// The server never owns the kernel process. A handle is created through the
// Registry with the Existing provisioner, then the AttachmentManager rebinds
// its ports and credentials to the host's connection descriptor. Lifecycle
// operations that would stop or restart the process are refused by the
// LifecycleGuard.
//
// Key Components:
//   - Handle: one logical kernel, its descriptor and state
//   - Registry: id to handle mapping and the default lifecycle paths
//   - LifecycleGuard: rejects restart and shutdown variants
//   - AttachmentManager: start requests and port rebinding
//
// Example Usage:
//
//	registry := kernel.NewRegistry(provisioning.ExistingFactory(path, logger), logger)
//	manager := kernel.NewAttachmentManager(registry, path, logger)
//	id, err := manager.StartKernel(ctx, kernel.Options{})
//	err = manager.RestartKernel(ctx, id, false) // ErrOperationNotSupported
package kernel
