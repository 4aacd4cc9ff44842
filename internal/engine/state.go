package engine

import "context"

// StateFlag selects which document changes invalidate a derived context.
type StateFlag uint8

const (
	// StateValue fires on content changes.
	StateValue StateFlag = 1 << iota
	// StateSelection fires on selection changes.
	StateSelection
)

// WithStateCancel returns a context that is canceled when parent is done,
// when the document is closed, or when a change selected by flags happens.
// The returned stop function detaches the listener and releases the context.
func WithStateCancel(parent context.Context, e *Engine, flags StateFlag) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	unsubscribe := e.OnChange(func(c Change) {
		switch {
		case c.Kind == ChangeClosed:
			cancel()
		case c.Kind == ChangeContent && flags&StateValue != 0:
			cancel()
		case c.Kind == ChangeSelection && flags&StateSelection != 0:
			cancel()
		}
	})
	if e.IsClosed() {
		cancel()
	}
	return ctx, func() {
		unsubscribe()
		cancel()
	}
}
