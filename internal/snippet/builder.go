package snippet

import (
	"strconv"
	"strings"
)

// Builder assembles snippet source, escaping literal parts.
type Builder struct {
	b strings.Builder
}

// AppendText appends literal text.
func (b *Builder) AppendText(s string) *Builder {
	b.b.WriteString(Escape(s))
	return b
}

// AppendTabstop appends an empty tab stop.
func (b *Builder) AppendTabstop(index int) *Builder {
	b.b.WriteByte('$')
	b.b.WriteString(strconv.Itoa(index))
	return b
}

// AppendPlaceholder appends a tab stop with literal default text.
func (b *Builder) AppendPlaceholder(index int, value string) *Builder {
	b.b.WriteString("${")
	b.b.WriteString(strconv.Itoa(index))
	b.b.WriteByte(':')
	b.b.WriteString(Escape(value))
	b.b.WriteByte('}')
	return b
}

// AppendChoice appends a choice tab stop.
func (b *Builder) AppendChoice(index int, values ...string) *Builder {
	b.b.WriteString("${")
	b.b.WriteString(strconv.Itoa(index))
	b.b.WriteByte('|')
	for i, v := range values {
		if i > 0 {
			b.b.WriteByte(',')
		}
		b.b.WriteString(escapeChoice(v))
	}
	b.b.WriteString("|}")
	return b
}

// AppendVariable appends a variable with a literal default.
func (b *Builder) AppendVariable(name, def string) *Builder {
	b.b.WriteString("${")
	b.b.WriteString(name)
	if def != "" {
		b.b.WriteByte(':')
		b.b.WriteString(Escape(def))
	}
	b.b.WriteByte('}')
	return b
}

// String returns the snippet source built so far.
func (b *Builder) String() string {
	return b.b.String()
}

// Text returns the built snippet.
func (b *Builder) Text() Text {
	return Snippet(b.b.String())
}
