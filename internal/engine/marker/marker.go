// Package marker tracks ranges that move with the text around them.
//
// A marker is placed at a range and every subsequent edit adjusts it, so a
// caller can recover where some content ended up after the document has
// changed under it. Stickiness decides what happens when text is inserted
// exactly at one of the marker's edges.
package marker

import (
	"sync"

	"github.com/dshills/dropin/internal/engine/buffer"
)

// ID identifies a marker within a Set.
type ID uint64

// Stickiness controls how a marker's edges react to insertions at them.
type Stickiness uint8

const (
	// AlwaysGrowsWhenTypingAtEdges expands the marker to cover text
	// inserted at either edge.
	AlwaysGrowsWhenTypingAtEdges Stickiness = iota

	// NeverGrowsWhenTypingAtEdges keeps text inserted at an edge outside
	// the marker.
	NeverGrowsWhenTypingAtEdges

	// GrowsOnlyWhenTypingBefore expands only for insertions at the start.
	GrowsOnlyWhenTypingBefore

	// GrowsOnlyWhenTypingAfter expands only for insertions at the end.
	GrowsOnlyWhenTypingAfter
)

// String returns the stickiness name.
func (s Stickiness) String() string {
	switch s {
	case AlwaysGrowsWhenTypingAtEdges:
		return "always-grows"
	case NeverGrowsWhenTypingAtEdges:
		return "never-grows"
	case GrowsOnlyWhenTypingBefore:
		return "grows-before"
	case GrowsOnlyWhenTypingAfter:
		return "grows-after"
	default:
		return "unknown"
	}
}

// bias says whether an edge stays left of text inserted at it.
type bias bool

const (
	stayLeft  bias = true
	moveRight bias = false
)

func (s Stickiness) biases() (start, end bias) {
	switch s {
	case NeverGrowsWhenTypingAtEdges:
		return moveRight, stayLeft
	case GrowsOnlyWhenTypingBefore:
		return stayLeft, stayLeft
	case GrowsOnlyWhenTypingAfter:
		return moveRight, moveRight
	default:
		return stayLeft, moveRight
	}
}

type entry struct {
	rng        buffer.Range
	stickiness Stickiness
}

// Set holds the markers of one document.
type Set struct {
	mu      sync.RWMutex
	nextID  ID
	markers map[ID]*entry
}

// NewSet creates an empty marker set.
func NewSet() *Set {
	return &Set{markers: make(map[ID]*entry)}
}

// Add places a marker covering r.
func (s *Set) Add(r buffer.Range, stickiness Stickiness) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.markers[s.nextID] = &entry{rng: r, stickiness: stickiness}
	return s.nextID
}

// Range returns the marker's current range.
// The boolean is false if the marker does not exist.
func (s *Set) Range(id ID) (buffer.Range, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.markers[id]
	if !ok {
		return buffer.Range{}, false
	}
	return e.rng, true
}

// Remove deletes a marker. Removing an unknown marker is a no-op.
func (s *Set) Remove(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, id)
}

// Len returns the number of live markers.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}

// Clear removes every marker.
func (s *Set) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = make(map[ID]*entry)
}

// Transform adjusts every marker for a batch of simultaneous edits
// expressed against the text before the batch.
func (s *Set) Transform(edits []buffer.Edit) {
	if len(edits) == 0 {
		return
	}
	sorted := buffer.SortEdits(edits)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.markers {
		startBias, endBias := e.stickiness.biases()
		start := transformOffset(e.rng.Start, sorted, startBias)
		end := transformOffset(e.rng.End, sorted, endBias)
		if end < start {
			end = start
		}
		e.rng = buffer.Range{Start: start, End: end}
	}
}

// transformOffset maps an offset in the old text to the new text.
// Edits must be sorted by start offset and must not overlap.
func transformOffset(off buffer.ByteOffset, sorted []buffer.Edit, b bias) buffer.ByteOffset {
	var delta buffer.ByteOffset
	for _, e := range sorted {
		if e.Range.Start > off {
			break
		}
		if e.Range.End < off {
			delta += e.Delta()
			continue
		}

		newStart := e.Range.Start + delta
		if e.Range.Start == off && b == stayLeft {
			return newStart
		}
		if off < e.Range.End {
			// Inside the replaced span: collapse to the end of the new text.
			return newStart + buffer.ByteOffset(len(e.NewText))
		}
		// off == End: the offset follows the new text.
		delta += e.Delta()
	}
	return off + delta
}
