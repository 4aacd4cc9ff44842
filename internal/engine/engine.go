package engine

import (
	"io"
	"sync"

	"github.com/dshills/dropin/internal/engine/buffer"
	"github.com/dshills/dropin/internal/engine/history"
	"github.com/dshills/dropin/internal/engine/marker"
)

// Re-export commonly used types for convenience.
type (
	// ByteOffset is a byte position in the buffer.
	ByteOffset = buffer.ByteOffset

	// Point represents a line/column position.
	Point = buffer.Point

	// Range represents a byte range in the buffer.
	Range = buffer.Range

	// Edit represents an edit operation.
	Edit = buffer.Edit

	// EditResult contains information about a completed edit.
	EditResult = buffer.EditResult

	// MarkerID identifies a tracked marker.
	MarkerID = marker.ID

	// Stickiness controls how markers grow at their edges.
	Stickiness = marker.Stickiness
)

// Re-exported constructors.
var (
	NewRange   = buffer.NewRange
	EmptyRange = buffer.EmptyRange
	NewInsert  = buffer.NewInsert
	NewReplace = buffer.NewReplace
)

// Selection is the primary selection. Head is where the caret sits.
type Selection struct {
	Anchor ByteOffset
	Head   ByteOffset
}

// Range returns the selection as an ordered range.
func (s Selection) Range() Range {
	if s.Head < s.Anchor {
		return Range{Start: s.Head, End: s.Anchor}
	}
	return Range{Start: s.Anchor, End: s.Head}
}

// IsEmpty returns true if the selection is a caret.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// ChangeKind categorizes change notifications.
type ChangeKind uint8

const (
	// ChangeContent is sent after the text changed.
	ChangeContent ChangeKind = iota
	// ChangeSelection is sent after the selection moved.
	ChangeSelection
	// ChangeClosed is sent once when the document is closed.
	ChangeClosed
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeContent:
		return "content"
	case ChangeSelection:
		return "selection"
	case ChangeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Change describes a completed document change.
type Change struct {
	Kind    ChangeKind
	Version uint64
	// Edits holds the simultaneous edits for content changes.
	Edits []Edit
}

// Listener receives change notifications.
type Listener func(Change)

// Engine is the document facade: text, undo history, selection, and
// markers behind one read-write mutex.
//
// All operations are thread-safe. Listeners are invoked after the lock is
// released, on the goroutine that made the change.
type Engine struct {
	mu sync.RWMutex

	buf     *buffer.Buffer
	history *history.History
	markers *marker.Set

	// selection is stored as a marker so it follows edits.
	selection marker.ID
	reversed  bool

	version uint64
	closed  bool

	listenerMu   sync.Mutex
	listeners    map[uint64]Listener
	nextListener uint64

	// Configuration
	undoLimit   int
	readOnly    bool
	initContent string
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{undoLimit: DefaultUndoLimit}
	for _, opt := range opts {
		opt(e)
	}
	e.init(buffer.NewBufferFromString(e.initContent))
	return e
}

// NewFromReader creates an Engine from an io.Reader.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	e := &Engine{undoLimit: DefaultUndoLimit}
	for _, opt := range opts {
		opt(e)
	}
	buf, err := buffer.NewBufferFromReader(r)
	if err != nil {
		return nil, err
	}
	e.init(buf)
	return e, nil
}

func (e *Engine) init(buf *buffer.Buffer) {
	e.buf = buf
	e.history = history.NewHistory(e.undoLimit)
	e.markers = marker.NewSet()
	e.selection = e.markers.Add(EmptyRange(0), marker.GrowsOnlyWhenTypingAfter)
	e.listeners = make(map[uint64]Listener)
	e.initContent = ""
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full buffer content.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Text()
}

// TextRange returns text in the given byte range.
func (e *Engine) TextRange(start, end ByteOffset) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.TextRange(start, end)
}

// Len returns the total byte length of the buffer.
func (e *Engine) Len() ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Len()
}

// LineCount returns the number of lines.
func (e *Engine) LineCount() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineCount()
}

// LineText returns the text of a specific line (without newline).
func (e *Engine) LineText(line uint32) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineText(line)
}

// OffsetToPoint converts a byte offset to line/column.
func (e *Engine) OffsetToPoint(offset ByteOffset) Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.OffsetToPoint(offset)
}

// PointToOffset converts line/column to byte offset.
func (e *Engine) PointToOffset(point Point) ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.PointToOffset(point)
}

// Version returns a counter that increases with every content change,
// including undo and redo.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// IsReadOnly returns true if writes are rejected.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// IsClosed returns true once Close has been called.
func (e *Engine) IsClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// ============================================================================
// Write Operations
// ============================================================================

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (e *Engine) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	results, err := e.ApplyEdits("", []Edit{NewInsert(offset, text)})
	if err != nil {
		return 0, err
	}
	return results[0].NewRange.End, nil
}

// Replace replaces text in the given range with new text.
// Returns the end position of the replacement text.
func (e *Engine) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	results, err := e.ApplyEdits("", []Edit{NewReplace(start, end, text)})
	if err != nil {
		return 0, err
	}
	return results[0].NewRange.End, nil
}

// ApplyEdits applies simultaneous, non-overlapping edits expressed against
// the current text and records them as a single undo step named label.
// Results are returned in input order.
func (e *Engine) ApplyEdits(label string, edits []Edit) ([]EditResult, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	e.mu.Lock()
	if err := e.writableLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	a := &lockedApplier{e: e}
	results, err := a.ApplyEdits(edits)
	if err == nil {
		e.history.Push(history.NewEditCommand(label, edits, results))
	}
	e.mu.Unlock()

	e.notify(a.changes)
	return results, err
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo undoes the last undo step.
func (e *Engine) Undo() error {
	return e.replay(e.history.Undo)
}

// Redo redoes the last undone step.
func (e *Engine) Redo() error {
	return e.replay(e.history.Redo)
}

func (e *Engine) replay(fn func(history.Applier) error) error {
	e.mu.Lock()
	if err := e.writableLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	a := &lockedApplier{e: e}
	err := fn(a)
	e.mu.Unlock()

	e.notify(a.changes)
	return err
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// UndoCount returns the number of available undo steps.
func (e *Engine) UndoCount() int {
	return e.history.UndoCount()
}

// BeginUndoGroup starts a new undo group.
// All edits until EndUndoGroup will be undone as a single unit.
func (e *Engine) BeginUndoGroup(name string) {
	e.history.BeginGroup(name)
}

// EndUndoGroup ends the current undo group.
func (e *Engine) EndUndoGroup() {
	e.history.EndGroup()
}

// CancelUndoGroup cancels the current undo group without recording.
func (e *Engine) CancelUndoGroup() {
	e.history.CancelGroup()
}

// ============================================================================
// Selection
// ============================================================================

// Selection returns the primary selection.
func (e *Engine) Selection() Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, _ := e.markers.Range(e.selection)
	if e.reversed {
		return Selection{Anchor: r.End, Head: r.Start}
	}
	return Selection{Anchor: r.Start, Head: r.End}
}

// SetSelection moves the primary selection. Offsets are clamped.
func (e *Engine) SetSelection(sel Selection) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	sel.Anchor = e.clampLocked(sel.Anchor)
	sel.Head = e.clampLocked(sel.Head)
	e.markers.Remove(e.selection)
	e.selection = e.markers.Add(sel.Range(), marker.GrowsOnlyWhenTypingAfter)
	e.reversed = sel.Head < sel.Anchor
	version := e.version
	e.mu.Unlock()

	e.notify([]Change{{Kind: ChangeSelection, Version: version}})
}

// SetCursor collapses the selection to a caret at offset.
func (e *Engine) SetCursor(offset ByteOffset) {
	e.SetSelection(Selection{Anchor: offset, Head: offset})
}

// ============================================================================
// Markers
// ============================================================================

// AddMarker places a tracked marker over r.
func (e *Engine) AddMarker(r Range, stickiness Stickiness) MarkerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	r.Start, r.End = e.clampLocked(r.Start), e.clampLocked(r.End)
	return e.markers.Add(r, stickiness)
}

// MarkerRange returns the current range of a marker.
func (e *Engine) MarkerRange(id MarkerID) (Range, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if id == e.selection {
		return Range{}, false
	}
	return e.markers.Range(id)
}

// RemoveMarker deletes a marker.
func (e *Engine) RemoveMarker(id MarkerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id != e.selection {
		e.markers.Remove(id)
	}
}

// ============================================================================
// Lifecycle and notification
// ============================================================================

// OnChange registers a listener and returns a function that removes it.
func (e *Engine) OnChange(l Listener) (unsubscribe func()) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()

	e.nextListener++
	id := e.nextListener
	e.listeners[id] = l
	return func() {
		e.listenerMu.Lock()
		defer e.listenerMu.Unlock()
		delete(e.listeners, id)
	}
}

// Close marks the document closed. Further writes return ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	version := e.version
	e.mu.Unlock()

	e.notify([]Change{{Kind: ChangeClosed, Version: version}})
}

func (e *Engine) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	e.listenerMu.Lock()
	ls := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		ls = append(ls, l)
	}
	e.listenerMu.Unlock()

	for _, c := range changes {
		for _, l := range ls {
			l(c)
		}
	}
}

func (e *Engine) writableLocked() error {
	if e.closed {
		return ErrClosed
	}
	if e.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (e *Engine) clampLocked(off ByteOffset) ByteOffset {
	if off < 0 {
		return 0
	}
	if n := e.buf.Len(); off > n {
		return n
	}
	return off
}

// lockedApplier applies edits while the engine lock is held and collects
// the notifications to send once it is released.
type lockedApplier struct {
	e       *Engine
	changes []Change
}

func (a *lockedApplier) ApplyEdits(edits []Edit) ([]EditResult, error) {
	results, err := a.e.buf.ApplyEdits(edits)
	if err != nil {
		return nil, err
	}
	a.e.markers.Transform(edits)
	a.e.version++
	a.changes = append(a.changes, Change{
		Kind:    ChangeContent,
		Version: a.e.version,
		Edits:   edits,
	})
	return results, nil
}
