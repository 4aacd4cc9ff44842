package buffer

import (
	"errors"
	"io"
	"sort"
	"strings"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrEditsOverlap     = errors.New("edits overlap")
)

// Buffer stores document text together with a line-start index.
// Buffer is not safe for concurrent use; the engine serializes access.
type Buffer struct {
	text       string
	lineStarts []ByteOffset
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return NewBufferFromString("")
}

// NewBufferFromString creates a buffer holding s. CRLF and lone CR line
// endings are normalized to LF.
func NewBufferFromString(s string) *Buffer {
	b := &Buffer{}
	b.setText(normalizeLineEndings(s))
	return b
}

// NewBufferFromReader creates a buffer from everything readable from r.
func NewBufferFromReader(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data)), nil
}

func normalizeLineEndings(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func (b *Buffer) setText(s string) {
	b.text = s
	b.lineStarts = b.lineStarts[:0]
	b.lineStarts = append(b.lineStarts, 0)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			b.lineStarts = append(b.lineStarts, ByteOffset(i+1))
		}
	}
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	return b.text
}

// TextRange returns text in [start, end), clamped to the buffer.
func (b *Buffer) TextRange(start, end ByteOffset) string {
	start, end = b.clamp(start), b.clamp(end)
	if start >= end {
		return ""
	}
	return b.text[start:end]
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	return ByteOffset(len(b.text))
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() uint32 {
	return uint32(len(b.lineStarts))
}

// LineText returns the text of a line without its newline.
func (b *Buffer) LineText(line uint32) string {
	if line >= b.LineCount() {
		return ""
	}
	return b.text[b.LineStartOffset(line):b.LineEndOffset(line)]
}

// LineStartOffset returns the byte offset of the start of a line.
func (b *Buffer) LineStartOffset(line uint32) ByteOffset {
	if line >= b.LineCount() {
		return b.Len()
	}
	return b.lineStarts[line]
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (b *Buffer) LineEndOffset(line uint32) ByteOffset {
	if line+1 >= b.LineCount() {
		return b.Len()
	}
	return b.lineStarts[line+1] - 1
}

// OffsetToPoint converts a byte offset to line/column.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	offset = b.clamp(offset)
	line := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	}) - 1
	return Point{Line: uint32(line), Column: uint32(offset - b.lineStarts[line])}
}

// PointToOffset converts line/column to a byte offset. Columns past the end
// of the line clamp to the line end.
func (b *Buffer) PointToOffset(p Point) ByteOffset {
	if p.Line >= b.LineCount() {
		return b.Len()
	}
	start := b.LineStartOffset(p.Line)
	end := b.LineEndOffset(p.Line)
	off := start + ByteOffset(p.Column)
	if off > end {
		return end
	}
	return off
}

// Replace replaces [start, end) with text and returns the end offset of
// the inserted text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	if err := b.checkRange(Range{Start: start, End: end}); err != nil {
		return 0, err
	}
	text = normalizeLineEndings(text)
	b.setText(b.text[:start] + text + b.text[end:])
	return start + ByteOffset(len(text)), nil
}

// ApplyEdit applies a single edit.
func (b *Buffer) ApplyEdit(edit Edit) (EditResult, error) {
	oldText := b.TextRange(edit.Range.Start, edit.Range.End)
	end, err := b.Replace(edit.Range.Start, edit.Range.End, edit.NewText)
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{
		OldRange: edit.Range,
		NewRange: Range{Start: edit.Range.Start, End: end},
		OldText:  oldText,
	}, nil
}

// ApplyEdits applies non-overlapping edits expressed against the current
// text. The results are returned in the order of the input edits, with
// NewRange expressed in the resulting text.
func (b *Buffer) ApplyEdits(edits []Edit) ([]EditResult, error) {
	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return edits[order[i]].Range.Start < edits[order[j]].Range.Start
	})

	for i, idx := range order {
		if err := b.checkRange(edits[idx].Range); err != nil {
			return nil, err
		}
		if i > 0 && edits[order[i-1]].Range.Overlaps(edits[idx].Range) {
			return nil, ErrEditsOverlap
		}
	}

	var sb strings.Builder
	results := make([]EditResult, len(edits))
	var last, delta ByteOffset
	for _, idx := range order {
		e := edits[idx]
		text := normalizeLineEndings(e.NewText)
		sb.WriteString(b.text[last:e.Range.Start])
		sb.WriteString(text)
		newStart := e.Range.Start + delta
		results[idx] = EditResult{
			OldRange: e.Range,
			NewRange: Range{Start: newStart, End: newStart + ByteOffset(len(text))},
			OldText:  b.text[e.Range.Start:e.Range.End],
		}
		delta += ByteOffset(len(text)) - e.Range.Len()
		last = e.Range.End
	}
	sb.WriteString(b.text[last:])
	b.setText(sb.String())
	return results, nil
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return len(b.text) == 0
}

func (b *Buffer) clamp(offset ByteOffset) ByteOffset {
	if offset < 0 {
		return 0
	}
	if offset > b.Len() {
		return b.Len()
	}
	return offset
}

func (b *Buffer) checkRange(r Range) error {
	if !r.IsValid() {
		return ErrRangeInvalid
	}
	if r.End > b.Len() {
		return ErrOffsetOutOfRange
	}
	return nil
}
