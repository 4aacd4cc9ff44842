package workspace

import (
	"errors"

	"github.com/dshills/dropin/internal/engine"
)

// Errors returned by workspace operations.
var (
	// ErrDocumentNotFound indicates an edit addressed an unknown URI.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentOpen indicates the URI is already open.
	ErrDocumentOpen = errors.New("document already open")

	// ErrVersionMismatch indicates the document changed since the edit
	// was computed.
	ErrVersionMismatch = errors.New("document version mismatch")

	// ErrEditsOverlap indicates two edits to one document overlap.
	ErrEditsOverlap = engine.ErrEditsOverlap

	// ErrTransactionNotFound indicates an unknown or expired transaction.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrStaleUndo indicates a document was edited after the transaction,
	// so undoing it would revert unrelated changes.
	ErrStaleUndo = errors.New("document changed since transaction")

	// ErrNotFileURI indicates the URI has no file system path.
	ErrNotFileURI = errors.New("not a file URI")
)
