/*
Package tracing provides lightweight request tracing for the attach server.

Each HTTP request and gRPC call gets a span. A caller may pass an existing
trace through the X-Trace-ID and X-Span-ID headers (or the matching gRPC
metadata keys); otherwise a new trace is started. The ids are echoed back
in the HTTP response headers.

Finished spans are written to the logger: at debug level normally, at warn
level when the operation failed.

# Usage

	tracer := tracing.New("jupyter-attach", logger)
	router.Use(tracing.HTTPMiddleware(tracer))

	logger.Error("request failed", append(tracing.Fields(ctx), zap.Error(err))...)
*/
package tracing
