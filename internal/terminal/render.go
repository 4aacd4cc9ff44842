package terminal

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/dropin/internal/widget"
)

// Canvas is the part of tcell.Screen the renderer draws on.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
}

// Styles are the styles of the rendered elements.
type Styles struct {
	Text         tcell.Style
	Status       tcell.Style
	Progress     tcell.Style
	Picker       tcell.Style
	PickerActive tcell.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Text:         tcell.StyleDefault,
		Status:       tcell.StyleDefault.Reverse(true),
		Progress:     tcell.StyleDefault.Foreground(tcell.ColorYellow).Italic(true),
		Picker:       tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite),
		PickerActive: tcell.StyleDefault.Background(tcell.ColorTeal).Foreground(tcell.ColorWhite).Bold(true),
	}
}

// Frame is everything drawn in one pass.
type Frame struct {
	Text     string
	Caret    int
	Name     string
	Modified bool
	Message  string
	Progress widget.ProgressView
	Picker   widget.PickerView
}

// Screen draws frames and keeps the vertical scroll position.
type Screen struct {
	canvas Canvas
	styles Styles
	top    int
}

// NewScreen creates a renderer for canvas.
func NewScreen(canvas Canvas, styles Styles) *Screen {
	return &Screen{canvas: canvas, styles: styles}
}

// Draw renders f and returns the cursor cell.
func (s *Screen) Draw(f Frame) (cursorX, cursorY int) {
	width, height := s.canvas.Size()
	s.fill(0, 0, width, height, s.styles.Text)
	if width <= 0 || height <= 0 {
		return 0, 0
	}

	rows := height - 1
	caretRow, caretCol := Locate(f.Text, f.Caret)
	s.scrollTo(caretRow, rows)

	lines := strings.Split(f.Text, "\n")
	for y := 0; y < rows && s.top+y < len(lines); y++ {
		s.drawText(0, y, width, lines[s.top+y], s.styles.Text)
	}

	if f.Progress.Visible {
		row, col := Locate(f.Text, int(f.Progress.Position))
		s.drawOverlay(row+1, col, rows, width, []string{" " + f.Progress.Label + " (Esc to cancel) "}, -1, s.styles.Progress)
	}
	if f.Picker.Visible {
		row, col := Locate(f.Text, int(f.Picker.Range.End))
		items := make([]string, len(f.Picker.Titles))
		for i, t := range f.Picker.Titles {
			mark := "  "
			if i == f.Picker.Active {
				mark = "* "
			}
			items[i] = mark + t + " "
		}
		s.drawOverlay(row+1, col, rows, width, items, f.Picker.Cursor, s.styles.Picker)
	}

	s.drawStatus(f, rows, width)
	return caretCol, caretRow - s.top
}

func (s *Screen) scrollTo(row, rows int) {
	if rows <= 0 {
		s.top = row
		return
	}
	if row < s.top {
		s.top = row
	}
	if row >= s.top+rows {
		s.top = row - rows + 1
	}
}

// drawOverlay draws items as a box below document row at col, flipping
// above the row when it does not fit. Item active uses the active style.
func (s *Screen) drawOverlay(row, col, rows, width int, items []string, active int, style tcell.Style) {
	boxWidth := 0
	for _, it := range items {
		if w := DisplayWidth(it); w > boxWidth {
			boxWidth = w
		}
	}
	y := row - s.top
	if y+len(items) > rows {
		y = row - 1 - s.top - len(items)
	}
	if y < 0 {
		y = 0
	}
	x := col
	if x+boxWidth > width {
		x = width - boxWidth
	}
	if x < 0 {
		x = 0
	}

	for i, it := range items {
		if y+i >= rows {
			break
		}
		st := style
		if i == active {
			st = s.styles.PickerActive
		}
		s.fill(x, y+i, boxWidth, 1, st)
		s.drawText(x, y+i, width, it, st)
	}
}

func (s *Screen) drawStatus(f Frame, y, width int) {
	s.fill(0, y, width, 1, s.styles.Status)
	name := f.Name
	if f.Modified {
		name += " [+]"
	}
	left := " " + name
	if f.Message != "" {
		left += "  " + f.Message
	}
	row, col := Locate(f.Text, f.Caret)
	right := fmt.Sprintf("%d:%d ", row+1, col+1)
	left = Truncate(left, width-DisplayWidth(right)-1)
	s.drawText(0, y, width, left, s.styles.Status)
	if x := width - DisplayWidth(right); x > DisplayWidth(left) {
		s.drawText(x, y, width, right, s.styles.Status)
	}
}

// drawText draws line from x, clipped at width. Wide clusters that do
// not fit are left out.
func (s *Screen) drawText(x, y, width int, line string, style tcell.Style) {
	for _, c := range clusters(line) {
		if x+c.width > width {
			return
		}
		switch {
		case c.text == "\t":
			for i := 0; i < c.width; i++ {
				s.canvas.SetContent(x+i, y, ' ', nil, style)
			}
		case c.width > 0:
			runes := []rune(c.text)
			s.canvas.SetContent(x, y, runes[0], runes[1:], style)
		}
		x += c.width
	}
}

func (s *Screen) fill(x, y, w, h int, style tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			s.canvas.SetContent(col, row, ' ', nil, style)
		}
	}
}

// Truncate shortens s to at most width cells, ending in "…" when cut.
func Truncate(s string, width int) string {
	if uniseg.StringWidth(s) <= width {
		return s
	}
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	w := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cw := g.Width()
		if w+cw > width-1 {
			break
		}
		b.WriteString(g.Str())
		w += cw
	}
	b.WriteString("…")
	return b.String()
}
