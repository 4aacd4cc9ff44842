package builtin

import (
	"context"
	"path"
	"strings"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/snippet"
	"github.com/dshills/dropin/internal/workspace"
)

// Labels of the markdown candidates.
const (
	LabelMarkdownLink  = "Insert Markdown Link"
	LabelMarkdownImage = "Insert Markdown Image"
	LabelMarkdownLinks = "Insert Markdown Links"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
	".bmp":  true,
}

// Markdown returns the provider that turns dropped URIs into markdown
// links. Images become image embeds. Each link text is a placeholder so
// the caret lands on it.
func Markdown() drop.Provider {
	return drop.NewProvider(IDMarkdown, []string{dataxfer.MimeURIList}, provideMarkdown)
}

func provideMarkdown(_ context.Context, doc *workspace.Document, _ engine.ByteOffset, dt *dataxfer.DataTransfer) ([]drop.Candidate, error) {
	paths := localPaths(dt.URIs())
	if len(paths) == 0 {
		return nil, nil
	}

	var b snippet.Builder
	images := 0
	for i, p := range paths {
		if i > 0 {
			b.AppendText(" ")
		}
		target := relativeTo(doc, p)
		ext := strings.ToLower(path.Ext(target))
		name := strings.TrimSuffix(path.Base(target), path.Ext(target))
		if imageExts[ext] {
			images++
			b.AppendText("!")
		}
		b.AppendText("[")
		b.AppendPlaceholder(i+1, name)
		b.AppendText("](" + markdownTarget(target) + ")")
	}

	label := LabelMarkdownLinks
	switch {
	case len(paths) == 1 && images == 1:
		label = LabelMarkdownImage
	case len(paths) == 1:
		label = LabelMarkdownLink
	}
	return []drop.Candidate{{Insert: b.Text(), Label: label}}, nil
}

// markdownTarget wraps targets that contain spaces or parentheses in
// angle brackets.
func markdownTarget(t string) string {
	if strings.ContainsAny(t, " ()") {
		return "<" + t + ">"
	}
	return t
}
