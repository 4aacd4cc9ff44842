package builtin

import (
	"context"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/snippet"
	"github.com/dshills/dropin/internal/workspace"
)

// LabelText names the plain text candidate.
const LabelText = "Insert Plain Text"

// Text returns the provider that inserts dropped text/plain verbatim.
func Text() drop.Provider {
	return drop.NewProvider(IDText, []string{dataxfer.MimeTextPlain}, provideText)
}

func provideText(_ context.Context, _ *workspace.Document, _ engine.ByteOffset, dt *dataxfer.DataTransfer) ([]drop.Candidate, error) {
	text := dt.Text(dataxfer.MimeTextPlain)
	if text == "" {
		return nil, nil
	}
	return []drop.Candidate{{Insert: snippet.Literal(text), Label: LabelText}}, nil
}
