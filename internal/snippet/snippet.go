// Package snippet implements the editor's snippet text format.
//
// A snippet is text with tab stops and placeholders:
//
//	$1, ${1}          empty tab stop
//	${1:default}      placeholder, may nest
//	${1|one,two|}     choice, expands to the first option
//	$NAME, ${NAME:x}  variable with optional default
//	$0                final caret position
//
// A backslash escapes '$', '}' and '\'. Any other backslash is literal.
package snippet

import "strings"

// Text is insertable text that is either literal or a snippet.
type Text struct {
	Value     string
	IsSnippet bool
}

// Literal returns plain text that is inserted verbatim.
func Literal(s string) Text {
	return Text{Value: s}
}

// Snippet returns text in snippet syntax.
func Snippet(s string) Text {
	return Text{Value: s, IsSnippet: true}
}

// Source returns the text in snippet syntax. Literal text is escaped.
func (t Text) Source() string {
	if t.IsSnippet {
		return t.Value
	}
	return Escape(t.Value)
}

// Expand expands a snippet. Literal text expands to itself with no tab stops.
func (t Text) Expand(vars Resolver) Result {
	if !t.IsSnippet {
		return Result{Text: t.Value}
	}
	return Expand(t.Value, vars)
}

// IsEmpty returns true if the text has no content.
func (t Text) IsEmpty() bool {
	return t.Value == ""
}

// Escape returns s with every character that has meaning in snippet
// syntax escaped, so that Expand(Escape(s)).Text == s.
func Escape(s string) string {
	if !strings.ContainsAny(s, `\$}`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '$', '}':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func escapeChoice(s string) string {
	if !strings.ContainsAny(s, `\$},|`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '$', '}', ',', '|':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
