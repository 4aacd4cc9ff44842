package engine

import (
	"errors"

	"github.com/dshills/dropin/internal/engine/buffer"
	"github.com/dshills/dropin/internal/engine/history"
)

// Errors returned by engine operations.
var (
	// ErrOffsetOutOfRange indicates an offset is outside the buffer.
	ErrOffsetOutOfRange = buffer.ErrOffsetOutOfRange

	// ErrRangeInvalid indicates an invalid range (e.g., end < start).
	ErrRangeInvalid = buffer.ErrRangeInvalid

	// ErrEditsOverlap indicates edits in one batch overlap.
	ErrEditsOverlap = buffer.ErrEditsOverlap

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrReadOnly indicates a write on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrClosed indicates an operation on a closed document.
	ErrClosed = errors.New("document is closed")
)
