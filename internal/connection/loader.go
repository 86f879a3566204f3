package connection

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Format is the encoding of a descriptor file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "json"
	}
}

// FormatFromPath picks the decoder from the file extension. Anything that is
// not YAML or TOML is read as JSON, which is what kernels write.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// wireDescriptor mirrors the connection file. Pointers distinguish a missing
// field from a zero value.
type wireDescriptor struct {
	Transport       *string `json:"transport" yaml:"transport" toml:"transport"`
	IP              *string `json:"ip" yaml:"ip" toml:"ip"`
	ShellPort       *int    `json:"shell_port" yaml:"shell_port" toml:"shell_port"`
	IOPubPort       *int    `json:"iopub_port" yaml:"iopub_port" toml:"iopub_port"`
	StdinPort       *int    `json:"stdin_port" yaml:"stdin_port" toml:"stdin_port"`
	ControlPort     *int    `json:"control_port" yaml:"control_port" toml:"control_port"`
	HBPort          *int    `json:"hb_port" yaml:"hb_port" toml:"hb_port"`
	Key             *string `json:"key" yaml:"key" toml:"key"`
	SignatureScheme *string `json:"signature_scheme" yaml:"signature_scheme" toml:"signature_scheme"`
	KernelName      string  `json:"kernel_name,omitempty" yaml:"kernel_name,omitempty" toml:"kernel_name,omitempty"`
}

// Parse reads and validates the descriptor at path.
//
// A nonexistent path yields ErrFileNotFound; callers decide whether that is
// fatal. Bad content yields a *ParseError.
func Parse(path string) (Descriptor, error) {
	if path == "" {
		return Descriptor{}, ErrConfiguration
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return Descriptor{}, fmt.Errorf("connection: read %s: %w", path, err)
	}

	d, err := Decode(data, FormatFromPath(path))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return Descriptor{}, err
	}
	return d, nil
}

// Decode validates an in-memory descriptor.
func Decode(data []byte, format Format) (Descriptor, error) {
	var w wireDescriptor
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &w)
	case FormatTOML:
		err = toml.Unmarshal(data, &w)
	default:
		err = sonic.ConfigStd.Unmarshal(data, &w)
	}
	if err != nil {
		return Descriptor{}, &ParseError{Err: fmt.Errorf("decode %s: %w", format, err)}
	}
	return w.descriptor()
}

func (w wireDescriptor) descriptor() (Descriptor, error) {
	var d Descriptor

	if w.Transport == nil {
		return Descriptor{}, &ParseError{Field: "transport", Err: errMissing}
	}
	switch t := Transport(*w.Transport); t {
	case TransportTCP, TransportIPC:
		d.Transport = t
	default:
		return Descriptor{}, &ParseError{Field: "transport", Err: fmt.Errorf("unknown transport %q", *w.Transport)}
	}

	if w.IP == nil {
		return Descriptor{}, &ParseError{Field: "ip", Err: errMissing}
	}
	d.IP = *w.IP

	ports := []struct {
		name string
		val  *int
		dst  *uint16
	}{
		{"shell_port", w.ShellPort, &d.ShellPort},
		{"iopub_port", w.IOPubPort, &d.IOPubPort},
		{"stdin_port", w.StdinPort, &d.StdinPort},
		{"control_port", w.ControlPort, &d.ControlPort},
		{"hb_port", w.HBPort, &d.HBPort},
	}
	for _, p := range ports {
		if p.val == nil {
			return Descriptor{}, &ParseError{Field: p.name, Err: errMissing}
		}
		if *p.val < 0 || *p.val > 65535 {
			return Descriptor{}, &ParseError{Field: p.name, Err: fmt.Errorf("port %d out of range", *p.val)}
		}
		*p.dst = uint16(*p.val)
	}

	if w.Key == nil {
		return Descriptor{}, &ParseError{Field: "key", Err: errMissing}
	}
	d.Key = []byte(*w.Key)

	if w.SignatureScheme == nil {
		return Descriptor{}, &ParseError{Field: "signature_scheme", Err: errMissing}
	}
	if _, err := digestFor(*w.SignatureScheme); err != nil {
		return Descriptor{}, &ParseError{Field: "signature_scheme", Err: err}
	}
	d.SignatureScheme = *w.SignatureScheme
	d.KernelName = w.KernelName

	return d, nil
}
