package workspace

import (
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/snippet"
)

// TextEdit replaces a range of a document. When InsertAsSnippet is set,
// NewText is snippet source and is expanded before it is inserted.
type TextEdit struct {
	Range           engine.Range
	NewText         string
	InsertAsSnippet bool
}

// ResourceEdit is a text edit addressed to a document.
type ResourceEdit struct {
	URI  URI
	Edit TextEdit

	// Version, when set, is the document version the edit was computed
	// against. The edit is rejected if the document has moved on.
	Version *uint64
}

// Edit is an ordered list of resource edits applied as one unit.
// The zero value is an empty edit.
type Edit struct {
	Entries []ResourceEdit
}

// Replace adds a literal replacement.
func (e *Edit) Replace(uri URI, r engine.Range, text string) *Edit {
	e.Entries = append(e.Entries, ResourceEdit{
		URI:  uri,
		Edit: TextEdit{Range: r, NewText: text},
	})
	return e
}

// Insert adds a literal insertion.
func (e *Edit) Insert(uri URI, at engine.ByteOffset, text string) *Edit {
	return e.Replace(uri, engine.EmptyRange(at), text)
}

// InsertSnippet adds a snippet insertion. Literal text is escaped so it
// is inserted verbatim.
func (e *Edit) InsertSnippet(uri URI, at engine.ByteOffset, t snippet.Text) *Edit {
	e.Entries = append(e.Entries, ResourceEdit{
		URI: uri,
		Edit: TextEdit{
			Range:           engine.EmptyRange(at),
			NewText:         t.Source(),
			InsertAsSnippet: true,
		},
	})
	return e
}

// Append adds all entries of other after the entries of e.
func (e *Edit) Append(other *Edit) *Edit {
	if other != nil {
		e.Entries = append(e.Entries, other.Entries...)
	}
	return e
}

// PinVersion sets the expected version on every entry for uri.
func (e *Edit) PinVersion(uri URI, version uint64) *Edit {
	for i := range e.Entries {
		if e.Entries[i].URI == uri {
			v := version
			e.Entries[i].Version = &v
		}
	}
	return e
}

// Len returns the number of entries.
func (e *Edit) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Entries)
}

// URIs returns the distinct URIs in first-appearance order.
func (e *Edit) URIs() []URI {
	if e == nil {
		return nil
	}
	seen := make(map[URI]bool)
	var out []URI
	for _, re := range e.Entries {
		if !seen[re.URI] {
			seen[re.URI] = true
			out = append(out, re.URI)
		}
	}
	return out
}
