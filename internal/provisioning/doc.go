// Package provisioning defines how a kernel handle obtains the process behind it.
//
// The Existing provisioner is the only implementation: instead of spawning a
// kernel it loads the connection descriptor written by the host application
// and reports the kernel as always running. Supervision calls (poll, wait,
// signal, kill, terminate, cleanup) return immediately.
package provisioning
