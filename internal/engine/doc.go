// Package engine provides the document model used by the editor surface.
//
// The engine combines text storage, undo/redo history, a primary selection,
// and tracked markers behind a single thread-safe facade.
//
// # Basic Usage
//
//	e := engine.New(engine.WithContent("Hello, World!"))
//	e.Replace(7, 12, "Go") // "Hello, Go!"
//	e.Undo()               // "Hello, World!"
//
// # Batch Edits
//
// ApplyEdits applies several non-overlapping edits expressed against the
// current text as one undo step:
//
//	e.ApplyEdits("format", []engine.Edit{
//	    engine.NewInsert(0, "// header\n"),
//	    engine.NewReplace(20, 25, "x"),
//	})
//
// # Markers
//
// Markers follow the text they cover as the document changes:
//
//	id := e.AddMarker(engine.EmptyRange(pos), marker.AlwaysGrowsWhenTypingAtEdges)
//	e.Insert(pos, "dropped")
//	r, _ := e.MarkerRange(id) // covers "dropped"
//	e.RemoveMarker(id)
//
// # Change Notification
//
// OnChange registers a listener that is called after every content or
// selection change, outside the engine lock. WithStateCancel builds on it
// to derive a context that is canceled when the document changes:
//
//	ctx, stop := engine.WithStateCancel(parent, e, engine.StateValue)
//	defer stop()
package engine
