package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/snippet"
)

// DefaultMaxTransactions bounds the transaction log.
const DefaultMaxTransactions = 100

// ApplyOptions configures a bulk apply.
type ApplyOptions struct {
	// Label names the undo step in every touched document.
	Label string

	// Vars resolves snippet variables before the built-in ones.
	Vars snippet.Resolver
}

// Result reports the outcome of a bulk apply.
type Result struct {
	Applied bool
	TxID    uuid.UUID
	URIs    []URI
}

// Transaction records an applied edit.
type Transaction struct {
	ID    uuid.UUID
	Label string
	Docs  []TxDocument
}

// TxDocument records the version a document reached in a transaction.
type TxDocument struct {
	URI     URI
	Version uint64
}

// BulkEditor applies workspace edits atomically.
type BulkEditor struct {
	ws *Workspace

	mu    sync.Mutex
	log   []Transaction
	max   int
	newID func() uuid.UUID
}

// NewBulkEditor creates a bulk editor over ws.
func NewBulkEditor(ws *Workspace) *BulkEditor {
	return &BulkEditor{ws: ws, max: DefaultMaxTransactions, newID: uuid.New}
}

type docEdits struct {
	uri   URI
	eng   *engine.Engine
	edits []engine.Edit
	// caret is set by the first snippet entry of the document; offsets
	// are relative to that entry's inserted text.
	caretEntry      int
	caretStart, end int
}

// Apply applies edit. Either every addressed document is changed or none
// is. Entries addressed to one document are applied as simultaneous
// edits and recorded as one undo step in that document. Snippet entries
// are expanded; the caret of the first document with a snippet moves to
// the snippet's first tab stop.
func (b *BulkEditor) Apply(ctx context.Context, edit *Edit, opts ApplyOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if edit.Len() == 0 {
		return Result{}, nil
	}

	groups, err := b.prepare(edit, opts)
	if err != nil {
		return Result{}, err
	}

	results := make([][]engine.EditResult, len(groups))
	for i, g := range groups {
		res, err := g.eng.ApplyEdits(opts.Label, g.edits)
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = groups[j].eng.Undo()
			}
			return Result{}, fmt.Errorf("apply %s: %w", g.uri, err)
		}
		results[i] = res
	}

	caretSet := false
	tx := Transaction{ID: b.newID(), Label: opts.Label}
	out := Result{Applied: true, TxID: tx.ID}
	for i, g := range groups {
		if !caretSet && g.caretEntry >= 0 {
			base := results[i][g.caretEntry].NewRange.Start
			g.eng.SetSelection(engine.Selection{
				Anchor: base + engine.ByteOffset(g.caretStart),
				Head:   base + engine.ByteOffset(g.end),
			})
			caretSet = true
		}
		tx.Docs = append(tx.Docs, TxDocument{URI: g.uri, Version: g.eng.Version()})
		out.URIs = append(out.URIs, g.uri)
	}
	b.record(tx)
	return out, nil
}

// prepare groups entries per document, checks versions, and expands
// snippets.
func (b *BulkEditor) prepare(edit *Edit, opts ApplyOptions) ([]*docEdits, error) {
	var groups []*docEdits
	byURI := make(map[URI]*docEdits)

	for _, re := range edit.Entries {
		g, ok := byURI[re.URI]
		if !ok {
			eng, found := b.ws.Engine(re.URI)
			if !found {
				return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, re.URI)
			}
			if eng.IsReadOnly() {
				return nil, fmt.Errorf("%s: %w", re.URI, engine.ErrReadOnly)
			}
			g = &docEdits{uri: re.URI, eng: eng, caretEntry: -1}
			byURI[re.URI] = g
			groups = append(groups, g)
		}
		if re.Version != nil && *re.Version != g.eng.Version() {
			return nil, fmt.Errorf("%w: %s at version %d, edit expects %d",
				ErrVersionMismatch, re.URI, g.eng.Version(), *re.Version)
		}

		text := re.Edit.NewText
		if re.Edit.InsertAsSnippet {
			res := snippet.Expand(text, resolver(re.URI, opts.Vars))
			text = res.Text
			if g.caretEntry < 0 && len(res.Tabstops) > 0 {
				g.caretEntry = len(g.edits)
				g.caretStart, g.end = res.Caret()
			}
		}
		g.edits = append(g.edits, engine.Edit{Range: re.Edit.Range, NewText: text})
	}
	return groups, nil
}

// Undo reverts a transaction in every document it touched. It fails
// without changing anything if any of those documents was edited since.
func (b *BulkEditor) Undo(id uuid.UUID) error {
	b.mu.Lock()
	idx := -1
	for i := range b.log {
		if b.log[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	tx := b.log[idx]
	b.mu.Unlock()

	engines := make([]*engine.Engine, len(tx.Docs))
	for i, d := range tx.Docs {
		eng, ok := b.ws.Engine(d.URI)
		if !ok {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, d.URI)
		}
		if eng.Version() != d.Version {
			return fmt.Errorf("%w: %s", ErrStaleUndo, d.URI)
		}
		engines[i] = eng
	}
	for i := len(engines) - 1; i >= 0; i-- {
		if err := engines[i].Undo(); err != nil {
			return fmt.Errorf("undo %s: %w", tx.Docs[i].URI, err)
		}
	}

	b.forget(id)
	return nil
}

// Transaction returns a recorded transaction.
func (b *BulkEditor) Transaction(id uuid.UUID) (Transaction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tx := range b.log {
		if tx.ID == id {
			return tx, true
		}
	}
	return Transaction{}, false
}

func (b *BulkEditor) record(tx Transaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = append(b.log, tx)
	if len(b.log) > b.max {
		b.log = b.log[len(b.log)-b.max:]
	}
}

func (b *BulkEditor) forget(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.log {
		if b.log[i].ID == id {
			b.log = append(b.log[:i], b.log[i+1:]...)
			return
		}
	}
}

// resolver layers caller variables over the document variables.
func resolver(uri URI, vars snippet.Resolver) snippet.Resolver {
	return func(name string) (string, bool) {
		if vars != nil {
			if v, ok := vars(name); ok {
				return v, true
			}
		}
		p, isFile := uri.Path()
		switch name {
		case "TM_FILENAME":
			if isFile {
				return filepath.Base(p), true
			}
		case "TM_FILEPATH":
			if isFile {
				return p, true
			}
		case "TM_DIRECTORY":
			if isFile {
				return filepath.Dir(p), true
			}
		}
		return "", false
	}
}
