package builtin

import (
	"context"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/snippet"
	"github.com/dshills/dropin/internal/workspace"
)

// LabelResource names the reference link candidate.
const LabelResource = "Insert Reference Links"

var refDefinition = regexp.MustCompile(`(?m)^\[ref(\d+)\]:`)

// Resource returns the provider for resources dragged from another
// editor window. It inserts reference-style links at the drop position
// and appends their definitions to the end of the document in the same
// edit.
func Resource() drop.Provider {
	return drop.NewProvider(IDResource, []string{dataxfer.MimeResources}, provideResource)
}

func provideResource(_ context.Context, doc *workspace.Document, _ engine.ByteOffset, dt *dataxfer.DataTransfer) ([]drop.Candidate, error) {
	item, ok := dt.Get(dataxfer.MimeResources)
	if !ok {
		return nil, nil
	}
	resources, _ := item.Ref().([]dataxfer.Resource)
	if len(resources) == 0 {
		return nil, nil
	}

	text := doc.Engine.Text()
	next := nextRef(text)

	var links, defs strings.Builder
	if text != "" && !strings.HasSuffix(text, "\n") {
		defs.WriteByte('\n')
	}
	n := 0
	for _, r := range resources {
		if r.URI == "" {
			continue
		}
		target := r.URI
		if p, ok := dataxfer.URIPath(r.URI); ok {
			target = relativeTo(doc, p)
		}
		name := r.Name
		if name == "" {
			name = path.Base(target)
		}
		ref := "ref" + strconv.Itoa(next+n)
		if n > 0 {
			links.WriteByte(' ')
		}
		links.WriteString("[" + name + "][" + ref + "]")
		defs.WriteString("\n[" + ref + "]: " + markdownTarget(target))
		n++
	}
	if n == 0 {
		return nil, nil
	}
	defs.WriteByte('\n')

	var extra workspace.Edit
	extra.Insert(doc.URI, doc.Engine.Len(), defs.String())
	return []drop.Candidate{{
		Insert:         snippet.Literal(links.String()),
		AdditionalEdit: &extra,
		Label:          LabelResource,
	}}, nil
}

// nextRef returns the first reference number above those defined in text.
func nextRef(text string) int {
	highest := 0
	for _, m := range refDefinition.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}
