package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/domain/kernel"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/provisioning"
)

const descriptorJSON = `{
  "transport": "tcp",
  "ip": "127.0.0.1",
  "shell_port": 55000,
  "iopub_port": 55001,
  "stdin_port": 55002,
  "hb_port": 55003,
  "control_port": 55004,
  "key": "abc123",
  "signature_scheme": "hmac-sha256"
}`

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, path string) (*gin.Engine, *kernel.AttachmentManager) {
	t.Helper()
	logger := zap.NewNop()
	registry := kernel.NewRegistry(provisioning.ExistingFactory(path, logger), logger)
	manager := kernel.NewAttachmentManager(registry, path, logger)

	router := gin.New()
	NewHandlers(manager, logger).Register(router)
	return router, manager
}

func descriptorFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connection.json")
	require.NoError(t, os.WriteFile(path, []byte(descriptorJSON), 0o600))
	return path
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type kernelResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Kernel  KernelModel `json:"kernel"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) kernelResponse {
	t.Helper()
	var resp kernelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestStartKernel(t *testing.T) {
	router, _ := setupRouter(t, descriptorFile(t))

	w := do(router, http.MethodPost, "/api/kernels", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Kernel.ID)
	assert.Equal(t, provisioning.DefaultKernelName, resp.Kernel.Name)
	assert.Equal(t, string(kernel.StateLifecycleLocked), resp.Kernel.State)
	assert.Equal(t, uint16(55000), resp.Kernel.Connection.ShellPort)
	assert.Equal(t, uint16(55003), resp.Kernel.Connection.HBPort)
	assert.True(t, resp.Kernel.Connection.Signed)
	assert.Equal(t, "tcp://127.0.0.1:55001", resp.Kernel.Connection.Endpoints["iopub"])
	assert.NotContains(t, w.Body.String(), "abc123")
}

func TestStartKernelWithBody(t *testing.T) {
	router, _ := setupRouter(t, descriptorFile(t))

	w := do(router, http.MethodPost, "/api/kernels", `{"name": "python3"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "python3", decode(t, w).Kernel.Name)

	w = do(router, http.MethodPost, "/api/kernels", `{"name": 3`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartKernelInvalidName(t *testing.T) {
	router, manager := setupRouter(t, descriptorFile(t))

	w := do(router, http.MethodPost, "/api/kernels", `{"name": "../x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "../x")
	assert.Equal(t, kernel.Stats{}, manager.Stats())
}

func TestStartKernelUnconfigured(t *testing.T) {
	router, _ := setupRouter(t, "")

	w := do(router, http.MethodPost, "/api/kernels", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, decode(t, w).Success)
}

func TestGetAndListKernels(t *testing.T) {
	router, manager := setupRouter(t, descriptorFile(t))
	id, err := manager.StartKernel(context.Background(), kernel.Options{})
	require.NoError(t, err)

	w := do(router, http.MethodGet, "/api/kernels/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w).Kernel.ID)

	w = do(router, http.MethodGet, "/api/kernels/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodGet, "/api/kernels", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Kernels []KernelModel `json:"kernels"`
		Stats   kernel.Stats  `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Kernels, 1)
	assert.Equal(t, id, list.Kernels[0].ID)
	assert.Equal(t, kernel.Stats{Total: 1, Ready: 1}, list.Stats)
}

func TestLifecycleRoutesNotImplemented(t *testing.T) {
	router, manager := setupRouter(t, descriptorFile(t))
	id, err := manager.StartKernel(context.Background(), kernel.Options{})
	require.NoError(t, err)

	tests := []struct {
		method string
		target string
		op     string
	}{
		{http.MethodPost, "/api/kernels/" + id + "/restart", kernel.OpRestart},
		{http.MethodDelete, "/api/kernels/" + id, kernel.OpShutdown},
		{http.MethodDelete, "/api/kernels/" + id + "?now=true", kernel.OpKill},
		{http.MethodDelete, "/api/kernels", kernel.OpShutdownAll},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := do(router, tt.method, tt.target, "")
			assert.Equal(t, http.StatusNotImplemented, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.op)
		})
	}

	// Still attached and routable
	w := do(router, http.MethodGet, "/api/kernels/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInterruptKernel(t *testing.T) {
	router, manager := setupRouter(t, descriptorFile(t))
	id, err := manager.StartKernel(context.Background(), kernel.Options{})
	require.NoError(t, err)

	w := do(router, http.MethodPost, "/api/kernels/"+id+"/interrupt", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/kernels/missing/interrupt", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
