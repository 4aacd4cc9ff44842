package engine

// DefaultUndoLimit is the number of undo steps an engine keeps.
const DefaultUndoLimit = 1000

// Option configures an Engine.
type Option func(*Engine)

// WithContent sets the initial text.
func WithContent(content string) Option {
	return func(e *Engine) { e.initContent = content }
}

// WithUndoLimit keeps at most n undo steps. Values below 1 are ignored.
func WithUndoLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.undoLimit = n
		}
	}
}

// WithReadOnly rejects every edit with ErrReadOnly. Drops onto such an
// engine resolve but never apply.
func WithReadOnly() Option {
	return func(e *Engine) { e.readOnly = true }
}
