package snippet

import (
	"sort"
	"strconv"
)

// Resolver looks up a snippet variable.
type Resolver func(name string) (string, bool)

// MapResolver resolves variables from a map.
func MapResolver(m map[string]string) Resolver {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Tabstop is a tab stop in expanded text. Start and End are byte offsets
// into Result.Text; they are equal for an empty stop.
type Tabstop struct {
	Index   int
	Start   int
	End     int
	Choices []string
}

// Result is an expanded snippet.
type Result struct {
	Text     string
	Tabstops []Tabstop
}

// Caret returns where the selection goes after insertion: the first
// occurrence of the lowest positive tab stop, then $0, then the end.
func (r Result) Caret() (start, end int) {
	best := -1
	for i, ts := range r.Tabstops {
		if ts.Index <= 0 {
			continue
		}
		if best < 0 || ts.Index < r.Tabstops[best].Index {
			best = i
		}
	}
	if best >= 0 {
		return r.Tabstops[best].Start, r.Tabstops[best].End
	}
	for _, ts := range r.Tabstops {
		if ts.Index == 0 {
			return ts.Start, ts.End
		}
	}
	return len(r.Text), len(r.Text)
}

// Indexes returns the distinct tab stop indexes in navigation order,
// with $0 last.
func (r Result) Indexes() []int {
	seen := make(map[int]bool)
	var out []int
	hasFinal := false
	for _, ts := range r.Tabstops {
		if ts.Index == 0 {
			hasFinal = true
			continue
		}
		if !seen[ts.Index] {
			seen[ts.Index] = true
			out = append(out, ts.Index)
		}
	}
	sort.Ints(out)
	if hasFinal {
		out = append(out, 0)
	}
	return out
}

// Expand expands snippet source into plain text and its tab stops.
// Malformed constructs are kept as literal text. vars may be nil.
func Expand(src string, vars Resolver) Result {
	p := &parser{src: src, vars: vars}
	p.parse(false)
	if len(p.stops) == 0 {
		return Result{Text: string(p.out)}
	}
	return Result{Text: string(p.out), Tabstops: p.stops}
}

type parser struct {
	src   string
	pos   int
	out   []byte
	stops []Tabstop
	vars  Resolver
}

// parse consumes text until the end of input or, when nested, until an
// unescaped '}'. It reports whether the expected terminator was found.
func (p *parser) parse(nested bool) bool {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '\\':
			if p.pos+1 < len(p.src) && isEscapable(p.src[p.pos+1]) {
				p.out = append(p.out, p.src[p.pos+1])
				p.pos += 2
				continue
			}
			p.out = append(p.out, c)
			p.pos++
		case '$':
			if !p.dollar() {
				p.out = append(p.out, c)
				p.pos++
			}
		case '}':
			p.pos++
			if nested {
				return true
			}
			p.out = append(p.out, c)
		default:
			p.out = append(p.out, c)
			p.pos++
		}
	}
	return !nested
}

// dollar parses a construct starting at '$'. On failure all state is
// restored so the caller can treat the '$' as literal.
func (p *parser) dollar() bool {
	pos, outLen, nStops := p.pos, len(p.out), len(p.stops)
	if p.tryDollar() {
		return true
	}
	p.pos, p.out, p.stops = pos, p.out[:outLen], p.stops[:nStops]
	return false
}

func (p *parser) tryDollar() bool {
	p.pos++
	if p.pos >= len(p.src) {
		return false
	}
	c := p.src[p.pos]
	switch {
	case isDigit(c):
		n := p.number()
		p.addStop(n, len(p.out), nil)
		return true
	case isNameStart(c):
		p.out = append(p.out, p.resolve(p.name())...)
		return true
	case c == '{':
		p.pos++
		return p.braced()
	}
	return false
}

func (p *parser) braced() bool {
	if p.pos >= len(p.src) {
		return false
	}
	c := p.src[p.pos]
	switch {
	case isDigit(c):
		n := p.number()
		if p.pos >= len(p.src) {
			return false
		}
		switch p.src[p.pos] {
		case '}':
			p.pos++
			p.addStop(n, len(p.out), nil)
			return true
		case ':':
			p.pos++
			// Reserve the slot so outer placeholders precede nested ones.
			slot := len(p.stops)
			start := len(p.out)
			p.stops = append(p.stops, Tabstop{Index: n})
			if !p.parse(true) {
				return false
			}
			p.stops[slot].Start, p.stops[slot].End = start, len(p.out)
			return true
		case '|':
			p.pos++
			return p.choice(n)
		}
		return false

	case isNameStart(c):
		name := p.name()
		if p.pos >= len(p.src) {
			return false
		}
		switch p.src[p.pos] {
		case '}':
			p.pos++
			p.out = append(p.out, p.resolve(name)...)
			return true
		case ':':
			p.pos++
			v, ok := p.lookup(name)
			if !ok {
				return p.parse(true)
			}
			outLen, nStops := len(p.out), len(p.stops)
			if !p.parse(true) {
				return false
			}
			p.out, p.stops = append(p.out[:outLen], v...), p.stops[:nStops]
			return true
		}
	}
	return false
}

func (p *parser) choice(n int) bool {
	var opts []string
	var cur []byte
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src) && isChoiceEscapable(p.src[p.pos+1]):
			cur = append(cur, p.src[p.pos+1])
			p.pos += 2
		case c == ',':
			opts = append(opts, string(cur))
			cur = cur[:0]
			p.pos++
		case c == '|':
			if p.pos+1 >= len(p.src) || p.src[p.pos+1] != '}' {
				return false
			}
			p.pos += 2
			opts = append(opts, string(cur))
			start := len(p.out)
			p.out = append(p.out, opts[0]...)
			p.stops = append(p.stops, Tabstop{Index: n, Start: start, End: len(p.out), Choices: opts})
			return true
		default:
			cur = append(cur, c)
			p.pos++
		}
	}
	return false
}

func (p *parser) addStop(n, at int, choices []string) {
	p.stops = append(p.stops, Tabstop{Index: n, Start: at, End: at, Choices: choices})
}

func (p *parser) number() int {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return 0
	}
	return n
}

func (p *parser) name() string {
	start := p.pos
	for p.pos < len(p.src) && (isNameStart(p.src[p.pos]) || isDigit(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) lookup(name string) (string, bool) {
	if p.vars == nil {
		return "", false
	}
	return p.vars(name)
}

// resolve returns the variable value, or its name when it is unknown.
func (p *parser) resolve(name string) string {
	if v, ok := p.lookup(name); ok {
		return v
	}
	return name
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isEscapable(c byte) bool { return c == '\\' || c == '$' || c == '}' }

func isChoiceEscapable(c byte) bool { return isEscapable(c) || c == ',' || c == '|' }
