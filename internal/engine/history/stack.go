package history

import (
	"errors"
	"sync"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// History is a linear list of applied steps with a position. Steps
// before pos can be undone, steps from pos on can be redone.
type History struct {
	mu sync.Mutex

	steps []Command
	pos   int
	limit int

	// open collects commands between BeginGroup and EndGroup.
	open     []Command
	openName string
	grouping bool
}

// NewHistory creates a history that keeps at most limit undo steps.
// A limit below 1 means 1000.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1000
	}
	return &History{limit: limit}
}

// Push records an already applied command. Redo steps are discarded.
// While a group is open the command joins the group.
func (h *History) Push(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		h.open = append(h.open, cmd)
		return
	}
	h.record(cmd)
}

func (h *History) record(cmd Command) {
	h.steps = append(h.steps[:h.pos], cmd)
	if over := len(h.steps) - h.limit; over > 0 {
		h.steps = h.steps[over:]
	}
	h.pos = len(h.steps)
}

// Undo reverts the step before the position.
func (h *History) Undo(a Applier) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pos == 0 {
		return ErrNothingToUndo
	}
	if err := h.steps[h.pos-1].Undo(a); err != nil {
		return err
	}
	h.pos--
	return nil
}

// Redo re-applies the step at the position.
func (h *History) Redo(a Applier) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pos == len(h.steps) {
		return ErrNothingToRedo
	}
	if err := h.steps[h.pos].Execute(a); err != nil {
		return err
	}
	h.pos++
	return nil
}

func (h *History) CanUndo() bool { return h.UndoCount() > 0 }

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos < len(h.steps)
}

// UndoCount returns how many steps Undo can revert.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

// PeekUndo describes the step Undo would revert.
func (h *History) PeekUndo() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos == 0 {
		return "", false
	}
	return h.steps[h.pos-1].Description(), true
}

// BeginGroup opens a group; everything pushed until EndGroup becomes one
// step named name. Nested calls are ignored.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		return
	}
	h.grouping = true
	h.openName = name
	h.open = nil
}

// EndGroup closes the open group. An empty group records nothing.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return
	}
	if len(h.open) > 0 {
		h.record(NewCompoundCommand(h.openName, h.open...))
	}
	h.grouping = false
	h.open = nil
}

// CancelGroup forgets the open group. Its edits stay in the document.
func (h *History) CancelGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	h.open = nil
}
