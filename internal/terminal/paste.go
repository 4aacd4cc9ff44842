package terminal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/dropin/internal/dataxfer"
)

// PasteCollector turns a bracketed paste into a drop. Terminals deliver
// dragged files as a paste of their paths, so a paste is the drop
// gesture of a terminal editor.
type PasteCollector struct {
	active bool
	buf    strings.Builder

	// Stat checks whether a pasted path exists. Defaults to os.Stat.
	Stat func(name string) (os.FileInfo, error)
}

// Active reports whether a paste is in progress.
func (p *PasteCollector) Active() bool { return p.active }

// HandleEvent consumes paste events and the keys between them. It
// reports whether ev was consumed; the returned event is non-nil when
// a paste just ended.
func (p *PasteCollector) HandleEvent(ev tcell.Event) (*dataxfer.NativeEvent, bool) {
	switch e := ev.(type) {
	case *tcell.EventPaste:
		if e.Start() {
			p.Begin()
			return nil, true
		}
		if !p.active {
			return nil, true
		}
		return p.End(), true
	case *tcell.EventKey:
		if !p.active {
			return nil, false
		}
		p.AddKey(e)
		return nil, true
	}
	return nil, false
}

// Begin starts collecting.
func (p *PasteCollector) Begin() {
	p.active = true
	p.buf.Reset()
}

// AddKey appends the text of a pasted key.
func (p *PasteCollector) AddKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyRune:
		p.buf.WriteRune(ev.Rune())
	case tcell.KeyEnter, tcell.KeyLF:
		p.buf.WriteByte('\n')
	case tcell.KeyTab:
		p.buf.WriteByte('\t')
	}
}

// End stops collecting and returns the drop for the pasted text.
func (p *PasteCollector) End() *dataxfer.NativeEvent {
	p.active = false
	text := p.buf.String()
	p.buf.Reset()
	stat := p.Stat
	if stat == nil {
		stat = os.Stat
	}
	return pasteEvent(text, stat)
}

// PasteEvent builds the drop for pasted text using the real file system.
func PasteEvent(text string) *dataxfer.NativeEvent {
	return pasteEvent(text, os.Stat)
}

// pasteEvent classifies pasted text. When every word is an existing
// local file or a URI, the paste is a drop of those files and URIs;
// otherwise it is plain text.
func pasteEvent(text string, stat func(string) (os.FileInfo, error)) *dataxfer.NativeEvent {
	if text == "" {
		return &dataxfer.NativeEvent{}
	}
	data := dataxfer.NewNativeData()

	words, ok := splitWords(strings.TrimSpace(text))
	var files, uris []string
	if ok {
		files, uris, ok = classify(words, stat)
	}

	if !ok || len(words) == 0 {
		data.SetData(dataxfer.MimeTextPlain, text)
		return &dataxfer.NativeEvent{Data: data}
	}
	if len(uris) > 0 {
		data.SetData(dataxfer.MimeURIList, dataxfer.FormatURIList(uris))
	}
	for _, f := range files {
		data.AddFile(f)
	}
	if len(files) == 0 {
		data.SetData(dataxfer.MimeTextPlain, text)
	}
	return &dataxfer.NativeEvent{Data: data}
}

// classify sorts words into local files and URIs. It reports false if
// any word is neither.
func classify(words []string, stat func(string) (os.FileInfo, error)) (files, uris []string, ok bool) {
	for _, w := range words {
		switch {
		case strings.HasPrefix(w, "file://"):
			p, isPath := dataxfer.URIPath(w)
			if !isPath || !exists(stat, p) {
				return nil, nil, false
			}
			files = append(files, p)
		case isURI(w):
			uris = append(uris, w)
		default:
			p := expandHome(w)
			if !filepath.IsAbs(p) || !exists(stat, p) {
				return nil, nil, false
			}
			files = append(files, p)
		}
	}
	return files, uris, true
}

func exists(stat func(string) (os.FileInfo, error), p string) bool {
	_, err := stat(p)
	return err == nil
}

func isURI(s string) bool {
	for _, scheme := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(strings.ToLower(s), scheme) && len(s) > len(scheme) {
			return true
		}
	}
	return false
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

// splitWords splits shell-style words: whitespace separates words,
// single and double quotes group, and a backslash escapes the next
// character outside single quotes. It reports false on an unterminated
// quote.
func splitWords(s string) ([]string, bool) {
	var words []string
	var cur strings.Builder
	inWord := false
	var quote rune
	escaped := false

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case quote != 0:
			switch {
			case r == quote:
				quote = 0
			case r == '\\' && quote == '"':
				escaped = true
			default:
				cur.WriteRune(r)
			}
		case r == '\\':
			escaped, inWord = true, true
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, false
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, true
}
