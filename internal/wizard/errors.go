package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrClosed          = errors.New("controller is closed")
	ErrNotOrchestrated = errors.New("phase has no steps")
	ErrUnknownPhase    = errors.New("unknown phase")
	ErrUnknownStep     = errors.New("unknown step")
	ErrNextDisabled    = errors.New("phase is not complete")
	ErrConfigRejected  = errors.New("backend rejected configuration")
)

// ValidationError is returned before any backend call when user input is
// incomplete.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func AsValidationError(err error) *ValidationError {
	var target *ValidationError
	if errors.As(err, &target) {
		return target
	}
	return nil
}
