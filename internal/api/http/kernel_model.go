package http

import (
	"time"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/connection"
	"github.com/ManiVaultStudio/JupyterPlugin/internal/domain/kernel"
)

// KernelModel is the JSON view of a kernel handle. The signing key is never
// exposed.
type KernelModel struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	State        string          `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
	LastActivity time.Time       `json:"last_activity"`
	Connection   ConnectionModel `json:"connection"`
}

// ConnectionModel describes the endpoints of the external kernel.
type ConnectionModel struct {
	Transport       string            `json:"transport"`
	IP              string            `json:"ip"`
	ShellPort       uint16            `json:"shell_port"`
	IOPubPort       uint16            `json:"iopub_port"`
	StdinPort       uint16            `json:"stdin_port"`
	ControlPort     uint16            `json:"control_port"`
	HBPort          uint16            `json:"hb_port"`
	SignatureScheme string            `json:"signature_scheme"`
	Signed          bool              `json:"signed"`
	Endpoints       map[string]string `json:"endpoints,omitempty"`
}

func newKernelModel(s kernel.Snapshot) KernelModel {
	d := s.Connection
	conn := ConnectionModel{
		Transport:       string(d.Transport),
		IP:              d.IP,
		ShellPort:       d.ShellPort,
		IOPubPort:       d.IOPubPort,
		StdinPort:       d.StdinPort,
		ControlPort:     d.ControlPort,
		HBPort:          d.HBPort,
		SignatureScheme: d.SignatureScheme,
		Signed:          len(d.Key) > 0,
	}
	if d.Transport != "" && d.IP != "" {
		conn.Endpoints = make(map[string]string, len(connection.Channels))
		for _, ch := range connection.Channels {
			conn.Endpoints[string(ch)] = d.Endpoint(ch)
		}
	}

	name := s.KernelName
	if d.KernelName != "" {
		name = d.KernelName
	}
	return KernelModel{
		ID:           s.ID,
		Name:         name,
		State:        string(s.State),
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		Connection:   conn,
	}
}
