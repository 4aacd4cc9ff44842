package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/dropin/internal/engine/marker"
)

// ============================================================================
// Basic Operations
// ============================================================================

func TestNew(t *testing.T) {
	e := New()
	if e.Len() != 0 {
		t.Errorf("expected empty engine, got len %d", e.Len())
	}
	if e.Version() != 0 {
		t.Errorf("Version() = %d, want 0", e.Version())
	}
}

func TestNewFromReader(t *testing.T) {
	e, err := NewFromReader(strings.NewReader("Hello, World!"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Text() != "Hello, World!" {
		t.Errorf("expected %q, got %q", "Hello, World!", e.Text())
	}
}

func TestInsertReplaceUndoRedo(t *testing.T) {
	e := New(WithContent("Hello, World!"))

	if _, err := e.Replace(7, 12, "Go"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if e.Text() != "Hello, Go!" {
		t.Fatalf("Text() = %q", e.Text())
	}
	if err := e.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if e.Text() != "Hello, World!" {
		t.Errorf("after undo = %q", e.Text())
	}
	if err := e.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if e.Text() != "Hello, Go!" {
		t.Errorf("after redo = %q", e.Text())
	}
	if e.Version() != 3 {
		t.Errorf("Version() = %d, want 3", e.Version())
	}
}

func TestApplyEditsSingleUndoStep(t *testing.T) {
	e := New(WithContent("a b c"))
	_, err := e.ApplyEdits("batch", []Edit{NewReplace(0, 1, "A"), NewReplace(4, 5, "C")})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if e.Text() != "A b C" {
		t.Fatalf("Text() = %q", e.Text())
	}
	if e.UndoCount() != 1 {
		t.Errorf("UndoCount() = %d, want 1", e.UndoCount())
	}
	_ = e.Undo()
	if e.Text() != "a b c" {
		t.Errorf("after undo = %q", e.Text())
	}
}

func TestUndoLimit(t *testing.T) {
	e := New(WithUndoLimit(2))
	for i, s := range []string{"a", "b", "c"} {
		if _, err := e.Insert(ByteOffset(i), s); err != nil {
			t.Fatal(err)
		}
	}
	if e.UndoCount() != 2 {
		t.Fatalf("UndoCount() = %d, want 2", e.UndoCount())
	}
	_ = e.Undo()
	_ = e.Undo()
	if err := e.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("third Undo err = %v, want ErrNothingToUndo", err)
	}
	if e.Text() != "a" {
		t.Errorf("Text() = %q, want %q", e.Text(), "a")
	}
}

func TestReadOnlyAndClosed(t *testing.T) {
	ro := New(WithContent("x"), WithReadOnly())
	if _, err := ro.Insert(0, "y"); err != ErrReadOnly {
		t.Errorf("Insert on read-only err = %v, want ErrReadOnly", err)
	}

	e := New(WithContent("x"))
	e.Close()
	if !e.IsClosed() {
		t.Fatal("IsClosed() = false after Close")
	}
	if _, err := e.Insert(0, "y"); err != ErrClosed {
		t.Errorf("Insert on closed err = %v, want ErrClosed", err)
	}
}

// ============================================================================
// Selection and markers
// ============================================================================

func TestSelectionFollowsEdits(t *testing.T) {
	e := New(WithContent("abcdef"))
	e.SetCursor(3)

	_, _ = e.Insert(0, "XX")
	if got := e.Selection(); got.Head != 5 || !got.IsEmpty() {
		t.Errorf("Selection() = %+v, want caret at 5", got)
	}

	e.SetSelection(Selection{Anchor: 4, Head: 1})
	if got := e.Selection(); got.Anchor != 4 || got.Head != 1 {
		t.Errorf("Selection() = %+v, want anchor 4 head 1", got)
	}
	if r := e.Selection().Range(); r != NewRange(1, 4) {
		t.Errorf("Selection().Range() = %v, want [1:4)", r)
	}
}

func TestSetSelectionClamps(t *testing.T) {
	e := New(WithContent("abc"))
	e.SetCursor(99)
	if got := e.Selection().Head; got != 3 {
		t.Errorf("Head = %d, want 3", got)
	}
}

func TestMarkerRecoversInsertedRange(t *testing.T) {
	e := New(WithContent("line one\nline two\n"))
	id := e.AddMarker(EmptyRange(9), marker.AlwaysGrowsWhenTypingAtEdges)

	_, err := e.ApplyEdits("drop", []Edit{
		NewInsert(9, "dropped\ntext\n"),
		NewInsert(0, "# title\n"),
	})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	r, ok := e.MarkerRange(id)
	if !ok {
		t.Fatal("marker missing")
	}
	if got := e.TextRange(r.Start, r.End); got != "dropped\ntext\n" {
		t.Errorf("marker text = %q, want inserted text", got)
	}
	e.RemoveMarker(id)
	if _, ok := e.MarkerRange(id); ok {
		t.Error("marker still present after RemoveMarker")
	}
}

// ============================================================================
// Notification
// ============================================================================

func TestOnChange(t *testing.T) {
	e := New(WithContent("abc"))
	var mu sync.Mutex
	var kinds []ChangeKind
	unsubscribe := e.OnChange(func(c Change) {
		mu.Lock()
		kinds = append(kinds, c.Kind)
		mu.Unlock()
	})

	_, _ = e.Insert(0, "x")
	e.SetCursor(1)
	unsubscribe()
	_, _ = e.Insert(0, "y")

	mu.Lock()
	defer mu.Unlock()
	if len(kinds) != 2 || kinds[0] != ChangeContent || kinds[1] != ChangeSelection {
		t.Errorf("kinds = %v, want [content selection]", kinds)
	}
}

func TestListenerMayReadEngine(t *testing.T) {
	e := New()
	var seen string
	e.OnChange(func(c Change) {
		if c.Kind == ChangeContent {
			seen = e.Text()
		}
	})
	_, _ = e.Insert(0, "hi")
	if seen != "hi" {
		t.Errorf("listener saw %q, want hi", seen)
	}
}

func TestWithStateCancel(t *testing.T) {
	e := New(WithContent("abc"))

	ctx, stop := WithStateCancel(context.Background(), e, StateValue)
	defer stop()

	e.SetCursor(2)
	if ctx.Err() != nil {
		t.Fatal("selection change canceled a value-only context")
	}
	_, _ = e.Insert(0, "x")
	if ctx.Err() == nil {
		t.Error("content change did not cancel context")
	}

	ctx2, stop2 := WithStateCancel(context.Background(), e, StateValue|StateSelection)
	defer stop2()
	e.SetCursor(0)
	if ctx2.Err() == nil {
		t.Error("selection change did not cancel context")
	}

	ctx3, stop3 := WithStateCancel(context.Background(), e, 0)
	defer stop3()
	e.Close()
	if ctx3.Err() == nil {
		t.Error("close did not cancel context")
	}
}
