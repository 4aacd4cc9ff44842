package lua

import "errors"

var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrInvalidProvider is returned for malformed register_provider calls.
	ErrInvalidProvider = errors.New("invalid lua provider")
)
