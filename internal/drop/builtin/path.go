package builtin

import (
	"context"
	"strings"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/snippet"
	"github.com/dshills/dropin/internal/workspace"
)

// Labels of the path candidates.
const (
	LabelPath         = "Insert Path"
	LabelRelativePath = "Insert Relative Path"
)

// Path returns the provider that inserts dropped file paths. It offers
// the absolute paths and, when the document is a file, the paths
// relative to the document directory.
func Path() drop.Provider {
	return drop.NewProvider(IDPath, []string{dataxfer.MimeURIList}, providePath)
}

func providePath(_ context.Context, doc *workspace.Document, _ engine.ByteOffset, dt *dataxfer.DataTransfer) ([]drop.Candidate, error) {
	paths := localPaths(dt.URIs())
	if len(paths) == 0 {
		return nil, nil
	}

	abs := make([]string, len(paths))
	rel := make([]string, len(paths))
	for i, p := range paths {
		abs[i] = quotePath(p)
		rel[i] = quotePath(relativeTo(doc, p))
	}

	sep := " "
	if len(paths) > 3 {
		sep = "\n"
	}
	absText := strings.Join(abs, sep)
	relText := strings.Join(rel, sep)

	cands := []drop.Candidate{{Insert: snippet.Literal(absText), Label: LabelPath}}
	if relText != absText {
		cands = append(cands, drop.Candidate{Insert: snippet.Literal(relText), Label: LabelRelativePath})
	}
	return cands, nil
}
