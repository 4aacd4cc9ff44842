package terminal

import (
	"strings"

	"github.com/rivo/uniseg"
)

// TabWidth is the number of cells a tab stop spans.
const TabWidth = 4

// cluster is one grapheme cluster of a line.
type cluster struct {
	text  string
	off   int // byte offset within the line
	width int // display cells
}

// clusters splits line into grapheme clusters with their display
// widths. Tabs advance to the next tab stop.
func clusters(line string) []cluster {
	var out []cluster
	state := -1
	col, off := 0, 0
	rest := line
	for rest != "" {
		var c string
		var w int
		c, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if c == "\t" {
			w = TabWidth - col%TabWidth
		}
		out = append(out, cluster{text: c, off: off, width: w})
		off += len(c)
		col += w
	}
	return out
}

// DisplayWidth returns the number of cells line occupies.
func DisplayWidth(line string) int {
	w := 0
	for _, c := range clusters(line) {
		w += c.width
	}
	return w
}

// Locate returns the line index and display column of byte offset off
// in text. Offsets inside a cluster resolve to the cluster start.
func Locate(text string, off int) (row, col int) {
	if off > len(text) {
		off = len(text)
	}
	if off < 0 {
		off = 0
	}
	before := text[:off]
	row = strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1
	for _, c := range clusters(text[lineStart:lineEnd(text, lineStart)]) {
		if lineStart+c.off+len(c.text) > off {
			break
		}
		col += c.width
	}
	return row, col
}

// Offset returns the byte offset of the cluster at display column col
// of line row. Columns past the end of the line give the line end.
func Offset(text string, row, col int) int {
	start := 0
	for i := 0; i < row; i++ {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 {
			return len(text)
		}
		start += nl + 1
	}
	end := lineEnd(text, start)
	x := 0
	for _, c := range clusters(text[start:end]) {
		if x+c.width > col {
			return start + c.off
		}
		x += c.width
	}
	return end
}

// PrevBoundary returns the start of the grapheme cluster before off.
func PrevBoundary(text string, off int) int {
	if off <= 0 {
		return 0
	}
	if off > len(text) {
		off = len(text)
	}
	if text[off-1] == '\n' {
		return off - 1
	}
	lineStart := strings.LastIndexByte(text[:off], '\n') + 1
	prev := lineStart
	for _, c := range clusters(text[lineStart:off]) {
		prev = lineStart + c.off
	}
	return prev
}

// NextBoundary returns the end of the grapheme cluster at off.
func NextBoundary(text string, off int) int {
	if off >= len(text) {
		return len(text)
	}
	if off < 0 {
		off = 0
	}
	c, _, _, _ := uniseg.FirstGraphemeClusterInString(text[off:], -1)
	return off + len(c)
}

func lineEnd(text string, start int) int {
	if nl := strings.IndexByte(text[start:], '\n'); nl >= 0 {
		return start + nl
	}
	return len(text)
}
