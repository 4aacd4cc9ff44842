package app

import (
	"sync"

	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/workspace"
)

// surface is the single editing surface of a session.
type surface struct {
	doc *workspace.Document

	mu      sync.Mutex
	focused bool
}

func newSurface(doc *workspace.Document) *surface {
	return &surface{doc: doc}
}

func (s *surface) Document() *workspace.Document {
	if s.doc.Engine.IsClosed() {
		return nil
	}
	return s.doc
}

func (s *surface) Focus() {
	s.mu.Lock()
	s.focused = true
	s.mu.Unlock()
}

// Focused reports whether the surface received focus.
func (s *surface) Focused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}

func (s *surface) SetCaret(pos engine.ByteOffset) {
	s.doc.Engine.SetCursor(pos)
}

func (s *surface) Caret() engine.ByteOffset {
	return s.doc.Engine.Selection().Head
}

func (s *surface) Undo() error {
	return s.doc.Engine.Undo()
}
