package drop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/event"
	"github.com/dshills/dropin/internal/event/topic"
	"github.com/dshills/dropin/internal/snippet"
	"github.com/dshills/dropin/internal/workspace"
)

const testURI workspace.URI = "mem://doc.txt"

type fakeSurface struct {
	doc *workspace.Document

	mu      sync.Mutex
	focused int
}

func (s *fakeSurface) Document() *workspace.Document { return s.doc }
func (s *fakeSurface) Focus() {
	s.mu.Lock()
	s.focused++
	s.mu.Unlock()
}
func (s *fakeSurface) SetCaret(pos engine.ByteOffset) { s.doc.Engine.SetCursor(pos) }

type fakeProgress struct {
	mu       sync.Mutex
	visible  bool
	pos      engine.ByteOffset
	shows    int
	onCancel func()
}

func (p *fakeProgress) ShowAt(pos engine.ByteOffset, _ string, onCancel func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible, p.pos, p.onCancel = true, pos, onCancel
	p.shows++
}

func (p *fakeProgress) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = false
	p.onCancel = nil
}

func (p *fakeProgress) state() (bool, engine.ByteOffset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible, p.pos
}

func (p *fakeProgress) cancel() {
	p.mu.Lock()
	fn := p.onCancel
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakePicker struct {
	mu       sync.Mutex
	visible  bool
	rng      engine.Range
	state    PickerState
	onSelect func(int)
	shown    chan PickerState
	hidden   chan struct{}
	token    PickerToken
}

func newFakePicker() *fakePicker {
	return &fakePicker{shown: make(chan PickerState, 16), hidden: make(chan struct{}, 16)}
}

func (p *fakePicker) Show(r engine.Range, st PickerState, onSelect func(int)) PickerToken {
	p.mu.Lock()
	p.visible, p.rng, p.state, p.onSelect = true, r, st, onSelect
	p.token++
	token := p.token
	p.mu.Unlock()
	p.shown <- st
	return token
}

func (p *fakePicker) Hide(token PickerToken) {
	p.mu.Lock()
	if token != p.token {
		p.mu.Unlock()
		return
	}
	p.visible = false
	p.mu.Unlock()
	p.hidden <- struct{}{}
}

func (p *fakePicker) isVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

func (p *fakePicker) choose(i int) {
	p.mu.Lock()
	fn := p.onSelect
	p.mu.Unlock()
	fn(i)
}

func (p *fakePicker) waitShown(t *testing.T) PickerState {
	t.Helper()
	select {
	case st := <-p.shown:
		return st
	case <-time.After(5 * time.Second):
		t.Fatal("picker was not shown")
		return PickerState{}
	}
}

func (p *fakePicker) waitHidden(t *testing.T) {
	t.Helper()
	select {
	case <-p.hidden:
	case <-time.After(5 * time.Second):
		t.Fatal("picker was not hidden")
	}
}

type recordingBus struct {
	mu     sync.Mutex
	topics []topic.Topic
}

func (b *recordingBus) Publish(_ context.Context, ev event.Event) error {
	b.mu.Lock()
	b.topics = append(b.topics, ev.Topic)
	b.mu.Unlock()
	return nil
}

func (b *recordingBus) count(t topic.Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, x := range b.topics {
		if x == t {
			n++
		}
	}
	return n
}

type harness struct {
	ws       *workspace.Workspace
	doc      *workspace.Document
	editor   *workspace.BulkEditor
	registry *Registry
	surface  *fakeSurface
	progress *fakeProgress
	picker   *fakePicker
	bus      *recordingBus
	ctrl     *Controller

	mu       sync.Mutex
	settings Settings
}

func newHarness(t *testing.T, text string) *harness {
	t.Helper()
	ws := workspace.New()
	doc, err := ws.Open(testURI, engine.New(engine.WithContent(text)))
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{
		ws:       ws,
		doc:      doc,
		editor:   workspace.NewBulkEditor(ws),
		registry: NewRegistry(),
		surface:  &fakeSurface{doc: doc},
		progress: &fakeProgress{},
		picker:   newFakePicker(),
		bus:      &recordingBus{},
		settings: DefaultSettings(),
	}
	h.ctrl = NewController(Config{
		Surface:   h.surface,
		Providers: h.registry,
		Editor:    h.editor,
		Progress:  h.progress,
		Picker:    h.picker,
		Settings: func() Settings {
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.settings
		},
		Enrichers: []dataxfer.Enricher{dataxfer.EditorResourceEnricher{}},
		Publisher: h.bus,
	})
	t.Cleanup(h.ctrl.Close)
	return h
}

func (h *harness) setShowDropSelector(v string) {
	h.mu.Lock()
	h.settings.ShowDropSelector = v
	h.mu.Unlock()
}

func (h *harness) drop(t *testing.T, pos engine.ByteOffset, ev *dataxfer.NativeEvent) *Operation {
	t.Helper()
	op := h.ctrl.OnDrop(pos, ev)
	if op == nil {
		t.Fatal("OnDrop returned nil")
	}
	return op
}

func waitOp(t *testing.T, op *Operation) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := op.Wait(ctx); err != nil {
		t.Fatalf("operation %d did not finish: %v", op.ID, err)
	}
}

func textEvent(s string) *dataxfer.NativeEvent {
	data := dataxfer.NewNativeData()
	data.SetData(dataxfer.MimeTextPlain, s)
	return &dataxfer.NativeEvent{Data: data}
}

// staticProvider returns fixed candidates.
func staticProvider(id string, mimes []string, cands ...Candidate) Provider {
	return NewProvider(id, mimes, func(context.Context, *workspace.Document, engine.ByteOffset, *dataxfer.DataTransfer) ([]Candidate, error) {
		return cands, nil
	})
}

// echoProvider inserts the dropped text/plain value literally.
func echoProvider(id string) Provider {
	return NewProvider(id, []string{dataxfer.MimeTextPlain}, func(_ context.Context, _ *workspace.Document, _ engine.ByteOffset, dt *dataxfer.DataTransfer) ([]Candidate, error) {
		return []Candidate{{Insert: snippet.Literal(dt.Text(dataxfer.MimeTextPlain))}}, nil
	})
}

// gatedProvider signals started, then waits for release or ctx.
type gatedProvider struct {
	id      string
	started chan struct{}
	release chan struct{}
	insert  snippet.Text
}

func newGatedProvider(id string, insert snippet.Text) *gatedProvider {
	return &gatedProvider{
		id:      id,
		started: make(chan struct{}, 64),
		release: make(chan struct{}),
		insert:  insert,
	}
}

func (p *gatedProvider) ID() string              { return p.id }
func (p *gatedProvider) DropMimeTypes() []string { return nil }

func (p *gatedProvider) ProvideDropEdits(ctx context.Context, _ *workspace.Document, _ engine.ByteOffset, dt *dataxfer.DataTransfer) ([]Candidate, error) {
	p.started <- struct{}{}
	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	ins := p.insert
	if ins.IsEmpty() {
		ins = snippet.Literal(dt.Text(dataxfer.MimeTextPlain))
	}
	return []Candidate{{Insert: ins}}, nil
}

func (p *gatedProvider) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-p.started:
	case <-time.After(5 * time.Second):
		t.Fatal("provider was not started")
	}
}
