package widget

import (
	"sync"

	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/engine"
)

// PickerView is a snapshot of the picker.
type PickerView struct {
	Visible bool
	Range   engine.Range
	// Active is the applied candidate.
	Active int
	// Cursor is the highlighted candidate.
	Cursor int
	Titles []string
}

// Picker lets the user switch the applied drop candidate. It implements
// drop.Picker.
type Picker struct {
	mu       sync.Mutex
	visible  bool
	rng      engine.Range
	active   int
	cursor   int
	titles   []string
	onSelect func(int)
	onChange func()
	shows    drop.PickerToken
}

// NewPicker creates a hidden picker. onChange, if not nil, runs after
// every change of the view.
func NewPicker(onChange func()) *Picker {
	return &Picker{onChange: onChange}
}

// Show displays the candidates anchored at r with the active one
// highlighted.
func (p *Picker) Show(r engine.Range, st drop.PickerState, onSelect func(int)) drop.PickerToken {
	titles := make([]string, len(st.Candidates))
	for i, c := range st.Candidates {
		titles[i] = c.Title()
	}

	p.mu.Lock()
	p.visible = true
	p.rng = r
	p.active = st.Active
	p.cursor = st.Active
	p.titles = titles
	p.onSelect = onSelect
	p.shows++
	token := p.shows
	p.mu.Unlock()
	p.changed()
	return token
}

// Hide dismisses the picker opened by the Show call that returned token.
// A picker reopened since then stays.
func (p *Picker) Hide(token drop.PickerToken) {
	p.mu.Lock()
	if token != p.shows {
		p.mu.Unlock()
		return
	}
	was := p.visible
	p.visible = false
	p.onSelect = nil
	p.mu.Unlock()
	if was {
		p.changed()
	}
}

// Visible reports whether the picker is shown.
func (p *Picker) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Next moves the cursor down, wrapping around.
func (p *Picker) Next() { p.move(1) }

// Prev moves the cursor up, wrapping around.
func (p *Picker) Prev() { p.move(-1) }

func (p *Picker) move(delta int) {
	p.mu.Lock()
	if !p.visible || len(p.titles) == 0 {
		p.mu.Unlock()
		return
	}
	n := len(p.titles)
	p.cursor = ((p.cursor+delta)%n + n) % n
	p.mu.Unlock()
	p.changed()
}

// Choose selects the highlighted candidate. It reports false when the
// picker is hidden.
func (p *Picker) Choose() bool {
	p.mu.Lock()
	if !p.visible {
		p.mu.Unlock()
		return false
	}
	idx := p.cursor
	p.mu.Unlock()
	return p.ChooseIndex(idx)
}

// ChooseIndex selects candidate i.
func (p *Picker) ChooseIndex(i int) bool {
	p.mu.Lock()
	fn := p.onSelect
	ok := p.visible && fn != nil && i >= 0 && i < len(p.titles)
	p.mu.Unlock()
	if !ok {
		return false
	}
	fn(i)
	return true
}

// View returns a snapshot.
func (p *Picker) View() PickerView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PickerView{
		Visible: p.visible,
		Range:   p.rng,
		Active:  p.active,
		Cursor:  p.cursor,
		Titles:  append([]string(nil), p.titles...),
	}
}

func (p *Picker) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}
