package tracing

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithTrace(c.Request.Context(),
			TraceID(c.GetHeader(TraceHeader)),
			SpanID(c.GetHeader(SpanHeader)),
		)

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		if id := c.Param("id"); id != "" {
			span.SetTag("kernel_id", id)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, string(span.TraceID))
		c.Header(SpanHeader, string(span.SpanID))

		c.Next()

		span.StatusCode = c.Writer.Status()
		span.SetTag("http.status", strconv.Itoa(span.StatusCode))
		if len(c.Errors) > 0 {
			span.Err = c.Errors.Last()
		}
		tracer.Finish(span)
	}
}

// GRPCUnaryInterceptor creates a gRPC unary interceptor for tracing
func GRPCUnaryInterceptor(tracer *Tracer) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			ctx = WithTrace(ctx, TraceID(first(md, TraceHeader)), SpanID(first(md, SpanHeader)))
		}

		span, ctx := tracer.StartSpan(ctx, info.FullMethod)
		span.SetTag("rpc.system", "grpc")

		resp, err := handler(ctx, req)
		span.SetTag("rpc.code", status.Code(err).String())
		span.Err = err
		tracer.Finish(span)
		return resp, err
	}
}

func first(md metadata.MD, key string) string {
	if vals := md.Get(strings.ToLower(key)); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
