package drop

import (
	"context"

	"github.com/google/uuid"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/event"
	"github.com/dshills/dropin/internal/snippet"
	"github.com/dshills/dropin/internal/workspace"
)

// Candidate is one proposed edit for a drop.
type Candidate struct {
	// Insert is inserted at the drop position. Literal text is inserted
	// verbatim; snippet text is expanded.
	Insert snippet.Text

	// AdditionalEdit is applied together with the insertion.
	AdditionalEdit *workspace.Edit

	// Label names the candidate in the picker.
	Label string

	// ProviderID is filled in from the provider that returned it.
	ProviderID string
}

// Title returns the label, or a fallback derived from the provider.
func (c Candidate) Title() string {
	if c.Label != "" {
		return c.Label
	}
	if c.ProviderID != "" {
		return "Drop using " + c.ProviderID
	}
	return "Drop"
}

// Provider turns dropped data into candidate edits.
type Provider interface {
	// ID identifies the provider in configuration and logs.
	ID() string

	// DropMimeTypes lists the mime types the provider handles. A nil or
	// empty list means every drop is offered to it. Entries may use the
	// wildcards "text/*" and "*/*".
	DropMimeTypes() []string

	// ProvideDropEdits returns zero or more candidates. Implementations
	// should return promptly once ctx is done.
	ProvideDropEdits(ctx context.Context, doc *workspace.Document, pos engine.ByteOffset, dt *dataxfer.DataTransfer) ([]Candidate, error)
}

// ProvideFunc is the signature of ProvideDropEdits.
type ProvideFunc func(ctx context.Context, doc *workspace.Document, pos engine.ByteOffset, dt *dataxfer.DataTransfer) ([]Candidate, error)

type funcProvider struct {
	id    string
	mimes []string
	fn    ProvideFunc
}

// NewProvider creates a Provider from a function.
func NewProvider(id string, mimes []string, fn ProvideFunc) Provider {
	return &funcProvider{id: id, mimes: mimes, fn: fn}
}

func (p *funcProvider) ID() string              { return p.id }
func (p *funcProvider) DropMimeTypes() []string { return p.mimes }

func (p *funcProvider) ProvideDropEdits(ctx context.Context, doc *workspace.Document, pos engine.ByteOffset, dt *dataxfer.DataTransfer) ([]Candidate, error) {
	return p.fn(ctx, doc, pos, dt)
}

// ProviderSource looks up providers for a document.
type ProviderSource interface {
	ProvidersFor(doc *workspace.Document) []Provider
}

// Surface is the editing surface that receives drops.
type Surface interface {
	// Document returns the document shown, or nil.
	Document() *workspace.Document
	Focus()
	SetCaret(pos engine.ByteOffset)
}

// BulkEditor applies workspace edits atomically and undoes them as a unit.
type BulkEditor interface {
	Apply(ctx context.Context, edit *workspace.Edit, opts workspace.ApplyOptions) (workspace.Result, error)
	Undo(txID uuid.UUID) error
}

// Progress shows that a drop is being resolved.
type Progress interface {
	// ShowAt displays label at pos. onCancel is invoked when the user
	// cancels through the indicator.
	ShowAt(pos engine.ByteOffset, label string, onCancel func())
	Clear()
}

// PickerState seeds the picker.
type PickerState struct {
	Active     int
	Candidates []Candidate
}

// PickerToken identifies one Show call of a Picker.
type PickerToken uint64

// Picker lets the user switch to another candidate after a drop.
type Picker interface {
	// Show displays the candidates anchored at r. onSelect is called with
	// the chosen index. The returned token is never zero.
	Show(r engine.Range, state PickerState, onSelect func(index int)) PickerToken
	// Hide dismisses the picker if it still shows what token was
	// returned for. Otherwise it does nothing.
	Hide(token PickerToken)
}

// Publisher publishes events.
type Publisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

// Logger is the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, event.Event) error { return nil }

// Picker display modes.
const (
	ShowAfterDrop = "afterDrop"
	ShowNever     = "never"
)

// Settings are the drop settings read on every drop.
type Settings struct {
	Enabled bool

	// ShowDropSelector controls the picker. Only ShowAfterDrop shows it
	// automatically; every other value means never.
	ShowDropSelector string
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return Settings{Enabled: true, ShowDropSelector: ShowAfterDrop}
}

// ShowPickerAfterDrop reports whether the picker opens after a drop.
func (s Settings) ShowPickerAfterDrop() bool {
	return s.ShowDropSelector == ShowAfterDrop
}
