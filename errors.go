package wire

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidVersion     = errors.New("invalid format version")
	ErrUnsupportedFeature = errors.New("unsupported feature")
	ErrIO                 = errors.New("io failure")

	ErrInvalidHeader  = errors.New("invalid header word")
	ErrInvalidMesh    = errors.New("invalid mesh")
	ErrInvalidOptions = errors.New("invalid export options")
	ErrInvalidScene   = errors.New("invalid scene")
)

func invalidVersion(v int) error {
	return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidVersion, v, BIN_VERSION_MASK)
}

func unsupported(what string) error {
	return fmt.Errorf("%w: %s not yet supported", ErrUnsupportedFeature, what)
}

func ioFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}
