package training

import (
	"errors"
	"fmt"
)

// Error kinds reported by the service and by every Store implementation.
// Callers match them with errors.Is.
var (
	// ErrNotFound means the referenced entity does not exist or is not
	// visible to the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means the request was rejected before any write.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists means a unique name is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden means the entity is visible but may not be changed by the
	// requesting user.
	ErrForbidden = errors.New("forbidden")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
