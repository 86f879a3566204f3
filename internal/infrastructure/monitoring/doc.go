/*
Package monitoring provides Prometheus metrics for the attachment server.

# Overview

Each Metrics value owns its own registry, so tests and embedded servers do
not collide on the global default registerer.

# Metrics

- HTTP request count and latency by route template
- Kernel attach attempts by result, and attach latency
- Ready kernel handles
- Restart and shutdown requests refused by the lifecycle guard
- Connection descriptor reads and post-startup rewrites

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics)
	// ... attach a kernel ...
	timer.Stop(monitoring.AttachSuccess)
*/
package monitoring
