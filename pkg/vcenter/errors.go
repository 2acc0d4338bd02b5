package vcenter

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by operations that require a live session.
	ErrNotConnected = errors.New("vcenter: not connected")

	// ErrInvalidLogin wraps authentication failures from Connect so callers
	// can tell bad credentials apart from an unreachable endpoint.
	ErrInvalidLogin = errors.New("vcenter: invalid login")

	// ErrInvalidPolicy is returned when a policy setter receives a value
	// outside its domain. The prior value stays in effect.
	ErrInvalidPolicy = errors.New("vcenter: invalid policy value")
)

// WrongKindError reports a wrapper constructed around a managed object
// reference of the wrong concrete kind.
type WrongKindError struct {
	Expected Kind
	Actual   string
}

func (e *WrongKindError) Error() string {
	return fmt.Sprintf("vcenter: wrong object kind: expected %s, got %s", e.Expected, e.Actual)
}
