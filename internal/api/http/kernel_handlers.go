package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/domain/kernel"
)

// StartKernelRequest is the optional body of POST /api/kernels.
type StartKernelRequest struct {
	Name string            `json:"name"`
	Env  map[string]string `json:"env"`
	Cwd  string            `json:"cwd"`
}

// ListKernels lists every ready kernel
func (h *Handlers) ListKernels(c *gin.Context) {
	snaps := h.kernels.All()
	models := make([]KernelModel, 0, len(snaps))
	for _, s := range snaps {
		models = append(models, newKernelModel(s))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"kernels": models,
		"stats":   h.kernels.Stats(),
	})
}

// StartKernel attaches a new kernel handle to the external kernel
func (h *Handlers) StartKernel(c *gin.Context) {
	var req StartKernelRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	if req.Name == "" {
		req.Name = h.defaultName
	}

	id, err := h.kernels.StartKernel(c.Request.Context(), kernel.Options{
		KernelName: req.Name,
		Env:        req.Env,
		Cwd:        req.Cwd,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	snap, ok := h.kernels.Get(id)
	if !ok {
		h.fail(c, kernel.ErrKernelNotFound)
		return
	}
	h.logger.Info("Kernel started", zap.String("kernel_id", id))
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"kernel":  newKernelModel(snap),
	})
}

// GetKernel returns one ready kernel
func (h *Handlers) GetKernel(c *gin.Context) {
	snap, ok := h.kernels.Get(c.Param("id"))
	if !ok {
		h.fail(c, kernel.ErrKernelNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"kernel":  newKernelModel(snap),
	})
}

// InterruptKernel forwards an interrupt to the kernel
func (h *Handlers) InterruptKernel(c *gin.Context) {
	h.respond(c, h.kernels.Interrupt(c.Request.Context(), c.Param("id")))
}

// RestartKernel is refused for host-owned kernels
func (h *Handlers) RestartKernel(c *gin.Context) {
	h.respond(c, h.kernels.RestartKernel(c.Request.Context(), c.Param("id"), nowParam(c)))
}

// ShutdownKernel is refused for host-owned kernels. ?now=true asks for kill.
func (h *Handlers) ShutdownKernel(c *gin.Context) {
	h.respond(c, h.kernels.ShutdownKernel(c.Request.Context(), c.Param("id"), nowParam(c)))
}

// ShutdownAll is refused for host-owned kernels
func (h *Handlers) ShutdownAll(c *gin.Context) {
	h.respond(c, h.kernels.ShutdownAll(c.Request.Context(), nowParam(c)))
}

func (h *Handlers) respond(c *gin.Context, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func nowParam(c *gin.Context) bool {
	now, _ := strconv.ParseBool(c.Query("now"))
	return now
}
