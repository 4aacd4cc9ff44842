package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dshills/dropin/internal/engine"
)

// Document is an open document.
type Document struct {
	URI    URI
	Name   string
	Engine *engine.Engine

	mu           sync.Mutex
	savedVersion uint64
}

// IsModified returns true if the document changed since it was opened
// or last saved.
func (d *Document) IsModified() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Engine.Version() != d.savedVersion
}

func (d *Document) markSaved(version uint64) {
	d.mu.Lock()
	d.savedVersion = version
	d.mu.Unlock()
}

// Workspace manages the open documents, keyed by URI.
type Workspace struct {
	mu        sync.RWMutex
	documents map[URI]*Document
	order     []URI
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{documents: make(map[URI]*Document)}
}

// Open registers an engine under uri.
func (w *Workspace) Open(uri URI, eng *engine.Engine) (*Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.documents[uri]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDocumentOpen, uri)
	}
	name := filepath.Base(string(uri))
	if p, ok := uri.Path(); ok {
		name = filepath.Base(p)
	}
	doc := &Document{URI: uri, Name: name, Engine: eng, savedVersion: eng.Version()}
	w.documents[uri] = doc
	w.order = append(w.order, uri)
	return doc, nil
}

// OpenFile opens a file from disk. A file that does not exist yet opens
// as an empty document. Returns the existing document if already open.
func (w *Workspace) OpenFile(path string) (*Document, error) {
	uri := FileURI(path)
	if doc, ok := w.Document(uri); ok {
		return doc, nil
	}

	p, _ := uri.Path()
	content, err := os.ReadFile(p)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	opts := []engine.Option{engine.WithContent(string(content))}
	if info, err := os.Stat(p); err == nil && info.Mode().Perm()&0o200 == 0 {
		opts = append(opts, engine.WithReadOnly())
	}
	return w.Open(uri, engine.New(opts...))
}

// Save writes a file document to disk.
func (w *Workspace) Save(uri URI) error {
	doc, ok := w.Document(uri)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}
	p, ok := uri.Path()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFileURI, uri)
	}

	version := doc.Engine.Version()
	if err := os.WriteFile(p, []byte(doc.Engine.Text()), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", p, err)
	}
	doc.markSaved(version)
	return nil
}

// Document returns the open document for uri.
func (w *Workspace) Document(uri URI) (*Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.documents[uri]
	return doc, ok
}

// Engine returns the engine of the open document for uri.
func (w *Workspace) Engine(uri URI) (*engine.Engine, bool) {
	doc, ok := w.Document(uri)
	if !ok {
		return nil, false
	}
	return doc.Engine, true
}

// Close closes a document and removes it from the workspace.
func (w *Workspace) Close(uri URI) error {
	w.mu.Lock()
	doc, exists := w.documents[uri]
	if !exists {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}
	delete(w.documents, uri)
	for i, u := range w.order {
		if u == uri {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.mu.Unlock()

	doc.Engine.Close()
	return nil
}

// URIs returns the open URIs in open order.
func (w *Workspace) URIs() []URI {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]URI, len(w.order))
	copy(out, w.order)
	return out
}

// Modified returns the URIs of documents with unsaved changes, sorted.
func (w *Workspace) Modified() []URI {
	w.mu.RLock()
	docs := make([]*Document, 0, len(w.documents))
	for _, d := range w.documents {
		docs = append(docs, d)
	}
	w.mu.RUnlock()

	var out []URI
	for _, d := range docs {
		if d.IsModified() {
			out = append(out, d.URI)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
