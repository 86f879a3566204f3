package kernel

import (
	"fmt"
	"net"

	"github.com/ManiVaultStudio/JupyterPlugin/internal/connection"
)

const defaultIP = "127.0.0.1"

// claimLocalPorts assigns every unassigned channel a free local port, the
// way a server that owns its kernels prepares a connection file. All
// listeners stay open until the last port is claimed so the five are
// distinct.
func claimLocalPorts(d *connection.Descriptor) error {
	if d.Transport == connection.TransportIPC {
		for i, ch := range connection.Channels {
			if d.Port(ch) == 0 {
				d.SetPort(ch, uint16(i+1))
			}
		}
		return nil
	}

	var listeners []net.Listener
	defer func() {
		for _, l := range listeners {
			l.Close()
		}
	}()

	for _, ch := range connection.Channels {
		if d.Port(ch) != 0 {
			continue
		}
		l, err := net.Listen("tcp", net.JoinHostPort(d.IP, "0"))
		if err != nil {
			return fmt.Errorf("claim %s port: %w", ch, err)
		}
		listeners = append(listeners, l)
		d.SetPort(ch, uint16(l.Addr().(*net.TCPAddr).Port))
	}
	return nil
}
