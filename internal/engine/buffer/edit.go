package buffer

import (
	"fmt"
	"sort"
)

// Edit represents a text edit operation.
// It specifies a range to replace and the new text.
type Edit struct {
	Range   Range
	NewText string
}

// NewInsert creates an Edit that inserts text at a position.
func NewInsert(offset ByteOffset, text string) Edit {
	return Edit{Range: EmptyRange(offset), NewText: text}
}

// NewReplace creates an Edit that replaces a range with text.
func NewReplace(start, end ByteOffset, text string) Edit {
	return Edit{Range: Range{Start: start, End: end}, NewText: text}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	if e.Range.IsEmpty() {
		return fmt.Sprintf("Insert(%d, %q)", e.Range.Start, e.NewText)
	}
	if e.NewText == "" {
		return fmt.Sprintf("Delete%s", e.Range.String())
	}
	return fmt.Sprintf("Replace%s with %q", e.Range.String(), e.NewText)
}

// IsNoOp returns true if this edit does nothing.
func (e Edit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == ""
}

// Delta returns the change in buffer length caused by this edit.
func (e Edit) Delta() ByteOffset {
	return ByteOffset(len(e.NewText)) - e.Range.Len()
}

// EditResult contains information about an applied edit.
type EditResult struct {
	OldRange Range  // range in the text before the edit
	NewRange Range  // range covered by NewText after the edit
	OldText  string // replaced text
}

// SortEdits returns a copy of edits ordered by ascending start offset.
// The sort is stable so edits sharing a start keep their given order.
func SortEdits(edits []Edit) []Edit {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start < sorted[j].Range.Start
	})
	return sorted
}

// CheckOverlap reports whether any two edits in an ascending-sorted slice
// touch the same text.
func CheckOverlap(sorted []Edit) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Range.Overlaps(sorted[i].Range) {
			return true
		}
	}
	return false
}
