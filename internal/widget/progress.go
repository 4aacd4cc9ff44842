package widget

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/dropin/internal/engine"
)

// DefaultProgressDelay is how long an operation runs before the progress
// indicator appears.
const DefaultProgressDelay = 500 * time.Millisecond

// ProgressView is a snapshot of the progress indicator.
type ProgressView struct {
	ID       string
	Visible  bool
	Position engine.ByteOffset
	Label    string
}

// ProgressOption configures a Progress.
type ProgressOption func(*Progress)

// WithDelay sets the delay before the indicator appears. Zero shows it
// immediately.
func WithDelay(d time.Duration) ProgressOption {
	return func(p *Progress) {
		p.delay = d
	}
}

// WithProgressChange sets a callback run whenever visibility changes.
func WithProgressChange(fn func()) ProgressOption {
	return func(p *Progress) {
		p.onChange = fn
	}
}

// Progress is a cancellable progress indicator anchored at a document
// position. It implements drop.Progress.
type Progress struct {
	mu       sync.Mutex
	delay    time.Duration
	onChange func()

	id       string
	pending  bool
	visible  bool
	pos      engine.ByteOffset
	label    string
	onCancel func()
	timer    *time.Timer
}

// NewProgress creates a hidden progress indicator.
func NewProgress(opts ...ProgressOption) *Progress {
	p := &Progress{delay: DefaultProgressDelay}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetDelay changes the reveal delay for later ShowAt calls.
func (p *Progress) SetDelay(d time.Duration) {
	p.mu.Lock()
	p.delay = d
	p.mu.Unlock()
}

// ShowAt arms the indicator at pos. It becomes visible after the delay
// unless Clear or another ShowAt comes first.
func (p *Progress) ShowAt(pos engine.ByteOffset, label string, onCancel func()) {
	p.mu.Lock()
	wasVisible := p.visible
	p.stopLocked()
	id := uuid.NewString()
	p.id, p.pending, p.pos, p.label, p.onCancel = id, true, pos, label, onCancel

	if p.delay <= 0 {
		p.pending, p.visible = false, true
		p.mu.Unlock()
		p.changed()
		return
	}
	p.visible = false
	p.timer = time.AfterFunc(p.delay, func() { p.reveal(id) })
	p.mu.Unlock()
	if wasVisible {
		p.changed()
	}
}

func (p *Progress) reveal(id string) {
	p.mu.Lock()
	if p.id != id || !p.pending {
		p.mu.Unlock()
		return
	}
	p.pending, p.visible = false, true
	p.mu.Unlock()
	p.changed()
}

// Clear hides the indicator and disarms a pending one.
func (p *Progress) Clear() {
	p.mu.Lock()
	wasVisible := p.visible
	p.stopLocked()
	p.id, p.pending, p.visible, p.onCancel = "", false, false, nil
	p.mu.Unlock()
	if wasVisible {
		p.changed()
	}
}

// Cancel runs the cancel callback of the armed operation, if any.
func (p *Progress) Cancel() bool {
	p.mu.Lock()
	fn := p.onCancel
	active := p.pending || p.visible
	p.mu.Unlock()
	if !active || fn == nil {
		return false
	}
	fn()
	return true
}

// View returns a snapshot.
func (p *Progress) View() ProgressView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProgressView{ID: p.id, Visible: p.visible, Position: p.pos, Label: p.label}
}

func (p *Progress) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Progress) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}
