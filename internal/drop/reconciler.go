package drop

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/engine/marker"
	"github.com/dshills/dropin/internal/workspace"
)

// State is the reconciler state.
type State uint8

const (
	// StateIdle means no candidate is applied and no picker is shown.
	StateIdle State = iota
	// StateApplying means an edit is being applied or swapped.
	StateApplying
	// StateApplied means a candidate is applied and no picker is shown.
	StateApplied
	// StateAwaitingChoice means a candidate is applied and the picker is
	// waiting for the user.
	StateAwaitingChoice
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateApplying:
		return "applying"
	case StateApplied:
		return "applied"
	case StateAwaitingChoice:
		return "awaiting-choice"
	default:
		return "unknown"
	}
}

// ApplyLabel names the undo step of a drop edit.
const ApplyLabel = "Drop"

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	Document   *workspace.Document
	Position   engine.ByteOffset
	Candidates []Candidate
	Editor     BulkEditor

	// Picker may be nil when ShowPicker is false.
	Picker     Picker
	ShowPicker bool

	// OnApplied is called after each successful apply.
	OnApplied func(index int, res workspace.Result)

	// OnDone is called once when the reconciler no longer needs the
	// context passed to Apply: after an apply that does not show the
	// picker, or when the picker is dismissed.
	OnDone func()

	Logger Logger
}

// Reconciler applies one candidate of a drop and swaps it for another on
// request. It is a small state machine:
//
//	Idle --Apply(i)--> Applying --> Applied(i)
//	                            \-> AwaitingChoice(i) --Select(j)--> Applying --> ...
//	AwaitingChoice --Cancel, ctx done, or outside edit--> Idle
type Reconciler struct {
	cfg ReconcilerConfig
	log Logger

	mu      sync.Mutex
	state   State
	index   int
	tx      uuid.UUID
	version uint64
	ctx     context.Context

	shown       PickerToken
	unsubscribe func()
	stopAfter   func() bool
	doneOnce    sync.Once
}

// NewReconciler creates a reconciler in the idle state.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Reconciler{cfg: cfg, log: log, index: -1}
}

// State returns the current state and the applied candidate index, or -1.
func (r *Reconciler) State() (State, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.index
}

// Apply applies candidate index at the drop position. An out-of-range
// index or a closed document abandons silently. When the edit was
// applied, there are several candidates, and the picker is enabled, the
// picker is shown and the reconciler waits for a choice.
func (r *Reconciler) Apply(ctx context.Context, index int) error {
	err := r.apply(ctx, index)
	if st, _ := r.State(); st == StateIdle || st == StateApplying {
		r.toIdle()
	}
	return err
}

func (r *Reconciler) apply(ctx context.Context, index int) error {
	if index < 0 || index >= len(r.cfg.Candidates) {
		return nil
	}
	doc := r.cfg.Document
	if doc == nil || doc.Engine.IsClosed() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.state == StateApplied || r.state == StateAwaitingChoice {
		r.mu.Unlock()
		return nil
	}
	r.state = StateApplying
	r.ctx = ctx
	r.mu.Unlock()

	cand := r.cfg.Candidates[index]
	var edit workspace.Edit
	edit.InsertSnippet(doc.URI, r.cfg.Position, cand.Insert)
	edit.Append(cand.AdditionalEdit)

	tracked := doc.Engine.AddMarker(engine.EmptyRange(r.cfg.Position), marker.AlwaysGrowsWhenTypingAtEdges)
	res, err := r.cfg.Editor.Apply(ctx, &edit, workspace.ApplyOptions{Label: ApplyLabel})
	rng, found := doc.Engine.MarkerRange(tracked)
	doc.Engine.RemoveMarker(tracked)

	if err != nil || !res.Applied {
		return err
	}

	if r.cfg.OnApplied != nil {
		r.cfg.OnApplied(index, res)
	}

	show := r.cfg.ShowPicker && r.cfg.Picker != nil && len(r.cfg.Candidates) > 1
	r.mu.Lock()
	r.index = index
	r.tx = res.TxID
	r.version = doc.Engine.Version()
	if !show || ctx.Err() != nil {
		r.state = StateApplied
		shown := r.shown
		r.shown = 0
		r.mu.Unlock()
		if shown != 0 {
			r.cfg.Picker.Hide(shown)
		}
		r.done()
		return nil
	}
	r.state = StateAwaitingChoice
	r.unsubscribe = doc.Engine.OnChange(r.onDocumentChange)
	r.stopAfter = context.AfterFunc(ctx, r.Cancel)
	if !found {
		rng = engine.EmptyRange(r.cfg.Position)
	}
	// Shown under the lock so a concurrent Cancel hides it afterwards.
	// Pickers must not call onSelect from within Show.
	r.shown = r.cfg.Picker.Show(rng, PickerState{Active: index, Candidates: r.cfg.Candidates}, r.onSelect)
	r.mu.Unlock()
	return nil
}

func (r *Reconciler) onSelect(index int) {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if err := r.Select(ctx, index); err != nil {
		r.log.Warn("drop: switching to candidate %d failed: %v", index, err)
	}
}

// Select undoes the applied candidate as one step and applies candidate
// index instead. It is a no-op unless the picker is awaiting a choice or
// when index is the applied candidate.
func (r *Reconciler) Select(ctx context.Context, index int) error {
	r.mu.Lock()
	if r.state != StateAwaitingChoice || index == r.index || index < 0 || index >= len(r.cfg.Candidates) {
		r.mu.Unlock()
		return nil
	}
	r.state = StateApplying
	tx := r.tx
	r.detachLocked()
	r.mu.Unlock()

	if err := r.cfg.Editor.Undo(tx); err != nil {
		r.toIdle()
		return err
	}
	r.mu.Lock()
	r.index = -1
	r.mu.Unlock()
	return r.Apply(ctx, index)
}

// Cancel dismisses the picker and returns to idle. The applied edit stays.
func (r *Reconciler) Cancel() {
	r.mu.Lock()
	if r.state != StateAwaitingChoice {
		r.mu.Unlock()
		return
	}
	r.detachLocked()
	r.state = StateIdle
	shown := r.shown
	r.shown = 0
	r.mu.Unlock()

	r.cfg.Picker.Hide(shown)
	r.done()
}

// onDocumentChange dismisses the picker when the document is edited by
// anything other than the reconciler.
func (r *Reconciler) onDocumentChange(c engine.Change) {
	if c.Kind == engine.ChangeSelection {
		return
	}
	r.mu.Lock()
	stale := r.state == StateAwaitingChoice && (c.Kind == engine.ChangeClosed || c.Version != r.version)
	r.mu.Unlock()
	if stale {
		r.Cancel()
	}
}

func (r *Reconciler) toIdle() {
	r.mu.Lock()
	shown := r.shown
	r.detachLocked()
	r.state = StateIdle
	r.index = -1
	r.shown = 0
	r.mu.Unlock()
	if shown != 0 {
		r.cfg.Picker.Hide(shown)
	}
	r.done()
}

func (r *Reconciler) done() {
	if r.cfg.OnDone != nil {
		r.doneOnce.Do(r.cfg.OnDone)
	}
}

func (r *Reconciler) detachLocked() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	if r.stopAfter != nil {
		r.stopAfter()
		r.stopAfter = nil
	}
}
