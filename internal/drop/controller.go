package drop

import (
	"context"
	"errors"
	"sync"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/event"
	"github.com/dshills/dropin/internal/event/events"
	"github.com/dshills/dropin/internal/event/topic"
	"github.com/dshills/dropin/internal/workspace"
)

// ProgressLabel is shown while providers run.
const ProgressLabel = "Running drop handlers..."

// Config configures a Controller.
type Config struct {
	Surface   Surface
	Providers ProviderSource
	Editor    BulkEditor
	Progress  Progress
	Picker    Picker

	// Settings is read at the start of every drop. Nil means defaults.
	Settings func() Settings

	// Enrichers extend the extracted drop data.
	Enrichers []dataxfer.Enricher

	Publisher Publisher
	Logger    Logger
}

// Operation is one drop gesture being processed.
type Operation struct {
	ID uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel cancels the operation. Work already applied stays.
func (o *Operation) Cancel() { o.cancel() }

// Done is closed when the operation's pipeline has finished. A picker
// shown by the operation may still be open.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Wait blocks until the pipeline has finished or ctx is done.
func (o *Operation) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Controller owns at most one in-flight drop operation for a surface.
type Controller struct {
	cfg      Config
	log      Logger
	pub      Publisher
	settings func() Settings

	mu      sync.Mutex
	nextID  uint64
	current *Operation
	ops     map[uint64]*Operation
	// picking is the operation whose picker is still open.
	picking *Operation
	closed  bool
}

// NewController creates a controller.
func NewController(cfg Config) *Controller {
	c := &Controller{
		cfg:      cfg,
		log:      cfg.Logger,
		pub:      cfg.Publisher,
		settings: cfg.Settings,
		ops:      make(map[uint64]*Operation),
	}
	if c.log == nil {
		c.log = nopLogger{}
	}
	if c.pub == nil {
		c.pub = nopPublisher{}
	}
	if c.settings == nil {
		c.settings = DefaultSettings
	}
	return c
}

// OnDrop handles a drop at pos. It cancels the previous operation,
// moves the caret to pos, and resolves the drop in the background.
// It returns nil if the controller is closed.
func (c *Controller) OnDrop(pos engine.ByteOffset, ev *dataxfer.NativeEvent) *Operation {
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return nil
	}
	c.supersedeLocked()
	c.nextID++
	op := &Operation{ID: c.nextID, cancel: cancel, done: make(chan struct{})}
	c.current = op
	c.ops[op.ID] = op
	c.mu.Unlock()

	c.cfg.Surface.Focus()
	c.cfg.Surface.SetCaret(pos)

	c.mu.Lock()
	if c.current == op {
		c.cfg.Progress.ShowAt(pos, ProgressLabel, cancel)
	}
	c.mu.Unlock()

	go c.run(ctx, op, pos, ev)
	return op
}

// supersedeLocked cancels the current operation and any open picker and
// clears the progress indicator.
func (c *Controller) supersedeLocked() {
	if c.current != nil {
		c.current.cancel()
		c.current = nil
	}
	if c.picking != nil {
		c.picking.cancel()
		c.picking = nil
	}
	c.cfg.Progress.Clear()
}

// Current returns the operation whose pipeline is running, if any.
func (c *Controller) Current() (*Operation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.current != nil
}

// CancelCurrent cancels the running operation.
func (c *Controller) CancelCurrent() error {
	c.mu.Lock()
	op, closed := c.current, c.closed
	c.mu.Unlock()
	if closed {
		return ErrControllerClosed
	}
	if op == nil {
		return ErrNoCurrentOperation
	}
	op.cancel()
	return nil
}

// DismissPicker cancels the operation whose picker is open. The picker
// is hidden asynchronously. The applied edit stays.
func (c *Controller) DismissPicker() bool {
	c.mu.Lock()
	op := c.picking
	c.picking = nil
	c.mu.Unlock()
	if op == nil {
		return false
	}
	op.cancel()
	return true
}

// Wait blocks until operation id has finished its pipeline. Unknown or
// finished ids return immediately.
func (c *Controller) Wait(ctx context.Context, id uint64) error {
	c.mu.Lock()
	op, ok := c.ops[id]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return op.Wait(ctx)
}

// Close cancels the current operation and any open picker. Later drops
// are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.supersedeLocked()
}

func (c *Controller) isCurrent(op *Operation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == op
}

func (c *Controller) run(ctx context.Context, op *Operation, pos engine.ByteOffset, ev *dataxfer.NativeEvent) {
	keep := false
	defer func() {
		c.finish(op, keep)
	}()

	var err error
	keep, err = c.pipeline(ctx, op, pos, ev)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.log.Debug("drop %d canceled", op.ID)
		c.publish(ctx, events.TopicDropCanceled, events.DropCanceled{OperationID: op.ID, Reason: err.Error()})
	default:
		c.log.Error("drop %d failed: %v", op.ID, err)
		c.publish(ctx, events.TopicDropFailed, events.DropFailed{OperationID: op.ID, Err: err})
	}
}

// finish clears the progress and the current slot if op is still the
// current operation. When keep is set the operation's context is left to
// the open picker.
func (c *Controller) finish(op *Operation, keep bool) {
	c.mu.Lock()
	if c.current == op {
		c.current = nil
		c.cfg.Progress.Clear()
	}
	delete(c.ops, op.ID)
	c.mu.Unlock()

	if !keep {
		op.cancel()
	}
	close(op.done)
}

// pipeline resolves and applies the drop. It reports whether the
// operation's context was handed to an open picker.
func (c *Controller) pipeline(ctx context.Context, op *Operation, pos engine.ByteOffset, ev *dataxfer.NativeEvent) (bool, error) {
	settings := c.settings()
	if !settings.Enabled {
		return false, nil
	}
	doc := c.cfg.Surface.Document()
	if doc == nil {
		return false, nil
	}

	stateCtx, stop := engine.WithStateCancel(ctx, doc.Engine, engine.StateValue|engine.StateSelection)
	defer stop()

	dt, err := dataxfer.Extract(stateCtx, ev, c.cfg.Enrichers...)
	if dt == nil {
		return false, err
	}
	if err != nil {
		c.log.Warn("drop %d: %v", op.ID, err)
	}
	if err := c.checkpoint(stateCtx, op); err != nil {
		return false, err
	}
	if dt.Len() == 0 {
		return false, nil
	}

	c.publish(ctx, events.TopicDropStarted, events.DropStarted{
		OperationID: op.ID,
		URI:         doc.URI.String(),
		Offset:      int64(pos),
		MimeTypes:   dt.Keys(),
	})

	res, err := Resolve(stateCtx, doc, pos, dt, c.cfg.Providers.ProvidersFor(doc))
	if err != nil {
		return false, err
	}
	for _, f := range res.Failures {
		c.log.Error("drop %d: %v", op.ID, f)
		c.publish(ctx, events.TopicDropFailed, events.DropFailed{OperationID: op.ID, ProviderID: f.ProviderID, Err: f.Err})
	}
	if err := c.checkpoint(stateCtx, op); err != nil {
		return false, err
	}
	c.publish(ctx, events.TopicDropResolved, events.DropResolved{
		OperationID: op.ID,
		Providers:   res.Providers,
		Candidates:  len(res.Candidates),
	})
	if len(res.Candidates) == 0 {
		return false, nil
	}

	// The state watch only guards resolution; applying edits the document.
	stop()
	if err := c.checkpoint(ctx, op); err != nil {
		return false, err
	}

	rec := NewReconciler(ReconcilerConfig{
		Document:   doc,
		Position:   pos,
		Candidates: res.Candidates,
		Editor:     c.cfg.Editor,
		Picker:     c.cfg.Picker,
		ShowPicker: settings.ShowPickerAfterDrop(),
		OnApplied: func(index int, r workspace.Result) {
			cand := res.Candidates[index]
			c.log.Info("drop %d: applied %q from %s", op.ID, cand.Title(), cand.ProviderID)
			c.publish(ctx, events.TopicDropApplied, events.DropApplied{
				OperationID: op.ID,
				URI:         doc.URI.String(),
				ProviderID:  cand.ProviderID,
				Label:       cand.Title(),
				Index:       index,
				Candidates:  len(res.Candidates),
				TxID:        r.TxID.String(),
			})
		},
		OnDone: func() { c.release(op) },
		Logger: c.log,
	})
	if err := rec.Apply(ctx, 0); err != nil {
		return false, err
	}

	if st, _ := rec.State(); st != StateAwaitingChoice {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != op {
		// Superseded while applying; the canceled context closes the picker.
		return false, nil
	}
	c.picking = op
	return true, nil
}

// release is called when an operation's picker is gone.
func (c *Controller) release(op *Operation) {
	c.mu.Lock()
	if c.picking == op {
		c.picking = nil
	}
	c.mu.Unlock()
	op.cancel()
}

// checkpoint returns an error if the operation was canceled or replaced.
func (c *Controller) checkpoint(ctx context.Context, op *Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.isCurrent(op) {
		return context.Canceled
	}
	return nil
}

func (c *Controller) publish(ctx context.Context, t topic.Topic, payload any) {
	if err := c.pub.Publish(context.WithoutCancel(ctx), event.NewEvent(t, payload, "drop")); err != nil {
		c.log.Debug("publish %s: %v", t, err)
	}
}
