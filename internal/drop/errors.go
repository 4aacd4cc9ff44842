package drop

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCurrentOperation is returned when there is no operation to cancel.
	ErrNoCurrentOperation = errors.New("no current drop operation")

	// ErrControllerClosed is returned by a closed controller.
	ErrControllerClosed = errors.New("drop controller is closed")
)

// ProviderError reports a failing provider.
type ProviderError struct {
	ProviderID string
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("drop provider %s: %v", e.ProviderID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}
