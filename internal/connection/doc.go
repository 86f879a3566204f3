// Package connection reads the connection descriptor a host application
// writes for a kernel it already started.
//
// The descriptor names the transport, the address, the five channel ports
// (shell, iopub, stdin, control, heartbeat), the signing key and the
// signature scheme. Files are JSON by default; .yaml/.yml and .toml files
// are decoded with the matching parser.
//
// Example Usage:
//
//	d, err := connection.Parse("/home/user/connection.json")
//	if errors.Is(err, connection.ErrFileNotFound) {
//	    logger.Warn("connection file missing")
//	}
//	signer, _ := connection.NewSigner(d.SignatureScheme, d.Key)
//	sig := signer.Sign(header, parent, metadata, content)
package connection
