package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/connection"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/domain/kernel"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/infrastructure/tracing"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/provisioning"
)

// Handlers serves the kernels REST surface.
type Handlers struct {
	kernels     kernel.Service
	logger      *zap.Logger
	defaultName string
}

// NewHandlers creates a new handler set
func NewHandlers(kernels kernel.Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{kernels: kernels, logger: logger}
}

// WithDefaultKernelName sets the kernel name used when a start request
// names none.
func (h *Handlers) WithDefaultKernelName(name string) *Handlers {
	h.defaultName = name
	return h
}

// Register mounts the kernel routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	api := r.Group("/api/kernels")
	api.GET("", h.ListKernels)
	api.POST("", h.StartKernel)
	api.DELETE("", h.ShutdownAll)
	api.GET("/:id", h.GetKernel)
	api.DELETE("/:id", h.ShutdownKernel)
	api.POST("/:id/restart", h.RestartKernel)
	api.POST("/:id/interrupt", h.InterruptKernel)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, kernel.ErrOperationNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, kernel.ErrKernelNotFound):
		return http.StatusNotFound
	case errors.Is(err, connection.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, provisioning.ErrInvalidLaunch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		fields := append(tracing.Fields(c.Request.Context()),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		h.logger.Error("Kernel request failed", fields...)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
