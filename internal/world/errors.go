package world

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntity: registration refused (non-finite position, unknown kind, bad payload).
	ErrInvalidEntity = errors.New("invalid entity")
	// ErrInvalidSpawn: pool acquire refused; callers treat it as "spawn skipped".
	ErrInvalidSpawn = fmt.Errorf("invalid spawn: %w", ErrInvalidEntity)
)

func errorf(base error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}
