package connection

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
)

// Transport is the socket transport a kernel listens on.
type Transport string

const (
	TransportTCP Transport = "tcp"
	TransportIPC Transport = "ipc"
)

// Channel names one of the five kernel messaging sockets.
type Channel string

const (
	ChannelShell   Channel = "shell"
	ChannelIOPub   Channel = "iopub"
	ChannelStdin   Channel = "stdin"
	ChannelControl Channel = "control"
	ChannelHB      Channel = "hb"
)

// Channels lists every channel in a fixed order.
var Channels = []Channel{ChannelShell, ChannelIOPub, ChannelStdin, ChannelControl, ChannelHB}

// Descriptor describes how to reach a running kernel's sockets.
// A zero port means the channel has no port assigned yet.
type Descriptor struct {
	Transport       Transport
	IP              string
	ShellPort       uint16
	IOPubPort       uint16
	StdinPort       uint16
	ControlPort     uint16
	HBPort          uint16
	Key             []byte
	SignatureScheme string
	KernelName      string
}

// Port returns the port assigned to a channel.
func (d Descriptor) Port(ch Channel) uint16 {
	switch ch {
	case ChannelShell:
		return d.ShellPort
	case ChannelIOPub:
		return d.IOPubPort
	case ChannelStdin:
		return d.StdinPort
	case ChannelControl:
		return d.ControlPort
	case ChannelHB:
		return d.HBPort
	default:
		return 0
	}
}

// SetPort assigns the port of a channel.
func (d *Descriptor) SetPort(ch Channel, port uint16) {
	switch ch {
	case ChannelShell:
		d.ShellPort = port
	case ChannelIOPub:
		d.IOPubPort = port
	case ChannelStdin:
		d.StdinPort = port
	case ChannelControl:
		d.ControlPort = port
	case ChannelHB:
		d.HBPort = port
	}
}

// ResetPorts marks all five channel ports as unassigned.
func ResetPorts(d *Descriptor) {
	d.ShellPort = 0
	d.IOPubPort = 0
	d.StdinPort = 0
	d.ControlPort = 0
	d.HBPort = 0
}

// Endpoint returns the socket address for a channel, e.g. tcp://127.0.0.1:55000.
func (d Descriptor) Endpoint(ch Channel) string {
	port := d.Port(ch)
	if d.Transport == TransportIPC {
		return fmt.Sprintf("ipc://%s-%d", d.IP, port)
	}
	return "tcp://" + net.JoinHostPort(d.IP, strconv.Itoa(int(port)))
}

// Clone returns a deep copy.
func (d Descriptor) Clone() Descriptor {
	c := d
	if d.Key != nil {
		c.Key = append([]byte(nil), d.Key...)
	}
	return c
}

// Equal reports whether two descriptors carry identical fields.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Transport == o.Transport &&
		d.IP == o.IP &&
		d.ShellPort == o.ShellPort &&
		d.IOPubPort == o.IOPubPort &&
		d.StdinPort == o.StdinPort &&
		d.ControlPort == o.ControlPort &&
		d.HBPort == o.HBPort &&
		bytes.Equal(d.Key, o.Key) &&
		d.SignatureScheme == o.SignatureScheme &&
		d.KernelName == o.KernelName
}

// Merge fills the unset fields of d from src. Fields already set on d win.
func (d *Descriptor) Merge(src Descriptor) {
	if d.Transport == "" {
		d.Transport = src.Transport
	}
	if d.IP == "" {
		d.IP = src.IP
	}
	for _, ch := range Channels {
		if d.Port(ch) == 0 {
			d.SetPort(ch, src.Port(ch))
		}
	}
	if d.Key == nil && src.Key != nil {
		d.Key = append([]byte(nil), src.Key...)
	}
	if d.SignatureScheme == "" {
		d.SignatureScheme = src.SignatureScheme
	}
	if d.KernelName == "" {
		d.KernelName = src.KernelName
	}
}
