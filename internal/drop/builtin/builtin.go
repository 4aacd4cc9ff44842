package builtin

import (
	"path/filepath"
	"strings"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/workspace"
)

// Provider ids.
const (
	IDText     = "text"
	IDPath     = "path"
	IDMarkdown = "markdown"
	IDResource = "resource"
)

// markdownExts are the document extensions the markdown providers serve.
var markdownExts = []string{".md", ".markdown"}

// Register adds the built-in providers to reg. Markdown-specific
// providers are ranked above the generic ones.
func Register(reg *drop.Registry) {
	reg.Register(Text())
	reg.Register(Path())
	reg.Register(Markdown(), drop.WithSelector(drop.ExtSelector(markdownExts...)), drop.WithPriority(10))
	reg.Register(Resource(), drop.WithSelector(drop.ExtSelector(markdownExts...)), drop.WithPriority(20))
}

// localPaths converts the dropped URIs to paths. file:// URIs become
// local paths; other URIs are kept as they are.
func localPaths(uris []string) []string {
	out := make([]string, 0, len(uris))
	for _, u := range uris {
		if p, ok := dataxfer.URIPath(u); ok {
			out = append(out, p)
			continue
		}
		out = append(out, u)
	}
	return out
}

// relativeTo returns p relative to the directory of doc, using forward
// slashes. It returns p unchanged when doc is not a file or p is not an
// absolute path.
func relativeTo(doc *workspace.Document, p string) string {
	dir := doc.URI.Dir()
	if dir == "" || !filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

// quotePath quotes paths containing whitespace.
func quotePath(p string) string {
	if strings.ContainsAny(p, " \t") {
		return `"` + strings.ReplaceAll(p, `"`, `\"`) + `"`
	}
	return p
}
