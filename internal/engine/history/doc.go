// Package history provides command-based undo/redo for the document engine.
//
// Commands replay themselves through an Applier rather than touching the
// buffer directly, so the engine can keep markers, versions, and change
// listeners in step with every undo and redo.
//
// Commands pushed between BeginGroup and EndGroup are folded into one
// CompoundCommand and undone as a single step.
package history
