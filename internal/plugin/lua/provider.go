package lua

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/snippet"
	"github.com/dshills/dropin/internal/workspace"
)

// Provider is a drop provider implemented by a Lua function.
type Provider struct {
	id        string
	mimes     []string
	documents []string
	priority  int
	fn        *lua.LFunction
	state     *State
	source    string
}

var _ drop.Provider = (*Provider)(nil)

// ID returns the id given to register_provider.
func (p *Provider) ID() string { return p.id }

// DropMimeTypes returns the mimes given to register_provider.
func (p *Provider) DropMimeTypes() []string { return p.mimes }

// Source returns the script that registered the provider.
func (p *Provider) Source() string { return p.source }

func (p *Provider) registerOptions() []drop.RegisterOption {
	opts := []drop.RegisterOption{drop.WithPriority(p.priority)}
	if len(p.documents) > 0 {
		opts = append(opts, drop.WithSelector(drop.ExtSelector(p.documents...)))
	}
	return opts
}

// ProvideDropEdits calls the Lua provide function.
func (p *Provider) ProvideDropEdits(ctx context.Context, doc *workspace.Document, pos engine.ByteOffset, dt *dataxfer.DataTransfer) ([]drop.Candidate, error) {
	items := make(map[string]string)
	for _, m := range dt.Keys() {
		if it, ok := dt.Get(m); ok && it.File() == nil {
			items[m] = it.String()
		}
	}
	arg := map[string]any{
		"uri":      doc.URI.String(),
		"ext":      doc.URI.Ext(),
		"position": uint64(pos),
		"text":     dt.Text(dataxfer.MimeTextPlain),
		"uris":     dt.URIs(),
		"items":    items,
	}

	ret, err := p.state.Call(ctx, p.fn, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{toLua(L, arg)}
	})
	if err != nil {
		return nil, fmt.Errorf("lua provider %s: %w", p.id, err)
	}
	return candidatesFromLua(ret, doc.URI)
}

// candidatesFromLua reads the list returned by a provide function.
// Edits without a uri or path target doc.
func candidatesFromLua(ret any, doc workspace.URI) ([]drop.Candidate, error) {
	var list []any
	switch v := ret.(type) {
	case nil:
		return nil, nil
	case []any:
		list = v
	case map[string]any:
		if len(v) > 0 {
			return nil, fmt.Errorf("provide must return a list of candidates")
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("provide must return a list, got %T", ret)
	}

	cands := make([]drop.Candidate, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("candidate %d: expected a table", i+1)
		}
		text, _ := m["text"].(string)
		label, _ := m["label"].(string)
		isSnippet, _ := m["snippet"].(bool)

		insert := snippet.Literal(text)
		if isSnippet {
			insert = snippet.Snippet(text)
		}
		extra, err := editFromLua(m["edits"], doc)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i+1, err)
		}
		cands = append(cands, drop.Candidate{Insert: insert, Label: label, AdditionalEdit: extra})
	}
	return cands, nil
}

// editFromLua reads a list of {from, to, text, uri | path} tables. A
// missing to makes the edit an insertion at from.
func editFromLua(v any, doc workspace.URI) (*workspace.Edit, error) {
	var list []any
	switch v := v.(type) {
	case nil:
		return nil, nil
	case []any:
		list = v
	case map[string]any:
		if len(v) > 0 {
			return nil, fmt.Errorf("edits must be a list")
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("edits must be a list, got %T", v)
	}

	edit := new(workspace.Edit)
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("edit %d: expected a table", i+1)
		}
		from, ok := m["from"].(int64)
		if !ok || from < 0 {
			return nil, fmt.Errorf("edit %d: from must be a non-negative integer", i+1)
		}
		to := from
		if raw, set := m["to"]; set {
			if to, ok = raw.(int64); !ok || to < from {
				return nil, fmt.Errorf("edit %d: to must be an integer not before from", i+1)
			}
		}
		text, _ := m["text"].(string)

		uri := doc
		if s, ok := m["uri"].(string); ok && s != "" {
			uri = workspace.URI(s)
		} else if s, ok := m["path"].(string); ok && s != "" {
			uri = workspace.FileURI(s)
		}
		edit.Replace(uri, engine.Range{Start: engine.ByteOffset(from), End: engine.ByteOffset(to)}, text)
	}
	if edit.Len() == 0 {
		return nil, nil
	}
	return edit, nil
}
