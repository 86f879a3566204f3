package connection

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration means no descriptor location was configured.
	ErrConfiguration = errors.New("connection: descriptor location is not configured")
	// ErrFileNotFound means the configured descriptor does not exist.
	ErrFileNotFound = errors.New("connection: descriptor file not found")
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("connection: malformed descriptor")
	// ErrUnsupportedScheme means the signature scheme names an unknown digest.
	ErrUnsupportedScheme = errors.New("connection: unsupported signature scheme")
)

// ParseError reports a descriptor that is missing a field or carries a bad value.
type ParseError struct {
	Path  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Field == "":
		return fmt.Sprintf("connection: parse %s: %v", e.Path, e.Err)
	case e.Path == "":
		return fmt.Sprintf("connection: field %q: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("connection: parse %s: field %q: %v", e.Path, e.Field, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

var errMissing = errors.New("required field is missing")
