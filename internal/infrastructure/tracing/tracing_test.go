package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func newObserved() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New("test", zap.New(core)), logs
}

func TestStartSpanContinuesTrace(t *testing.T) {
	tracer, _ := newObserved()

	root, ctx := tracer.StartSpan(context.Background(), "root")
	child, ctx := tracer.StartSpan(ctx, "child")

	assert.NotEmpty(t, root.TraceID)
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(ctx))
	assert.Len(t, Fields(ctx), 2)
	assert.Nil(t, Fields(context.Background()))
}

func TestFinishLogsSpan(t *testing.T) {
	tracer, logs := newObserved()

	span, _ := tracer.StartSpan(context.Background(), "ok")
	tracer.Finish(span)
	failed, _ := tracer.StartSpan(context.Background(), "failed")
	failed.Err = errors.New("boom")
	tracer.Finish(failed)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "ok", entries[0].ContextMap()["operation"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObserved()

	var seen TraceID
	r := gin.New()
	r.Use(HTTPMiddleware(tracer))
	r.GET("/api/kernels/:id", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/kernels/k1", nil)
	req.Header.Set(TraceHeader, "trace-1")
	req.Header.Set(SpanHeader, "parent-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, TraceID("trace-1"), seen)
	assert.Equal(t, "trace-1", w.Header().Get(TraceHeader))
	assert.NotEmpty(t, w.Header().Get(SpanHeader))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET /api/kernels/:id", fields["operation"])
	assert.Equal(t, "parent-1", fields["parent_id"])
	assert.Equal(t, "k1", fields["kernel_id"])
	assert.Equal(t, "404", fields["http.status"])
}

func TestGRPCUnaryInterceptor(t *testing.T) {
	tracer, logs := newObserved()
	intercept := GRPCUnaryInterceptor(tracer)

	ctx := metadata.NewIncomingContext(context.Background(),
		metadata.Pairs("x-trace-id", "trace-2"))
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	var seen TraceID
	_, err := intercept(ctx, nil, info, func(ctx context.Context, _ interface{}) (interface{}, error) {
		seen = GetTraceID(ctx)
		return nil, nil
	})
	require.NoError(t, err)

	assert.Equal(t, TraceID("trace-2"), seen)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "OK", logs.All()[0].ContextMap()["rpc.code"])
}
