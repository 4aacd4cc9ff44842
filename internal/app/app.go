package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dshills/dropin/internal/config"
	"github.com/dshills/dropin/internal/config/notify"
	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/event"
	"github.com/dshills/dropin/internal/event/events"
	"github.com/dshills/dropin/internal/event/topic"
	"github.com/dshills/dropin/internal/plugin/lua"
	"github.com/dshills/dropin/internal/widget"
	"github.com/dshills/dropin/internal/workspace"
)

// Options configures an App.
type Options struct {
	// File is the document to open. It is created on save if missing.
	File string

	// ConfigPath is a TOML or YAML settings file. Empty uses defaults
	// and the environment only.
	ConfigPath string

	// ConfigOptions are passed to config.New after the path.
	ConfigOptions []config.Option

	// PluginsDir overrides the plugins.dir setting.
	PluginsDir string

	// LogOutput overrides the log.file setting.
	LogOutput io.Writer

	// FallbackLogOutput is used when neither LogOutput nor log.file is
	// set. Nil means stderr.
	FallbackLogOutput io.Writer

	// WatchConfig reloads the settings file when it changes.
	WatchConfig bool

	// OnChange is called whenever the document, the progress indicator
	// or the picker changed. It must not block.
	OnChange func()
}

// App is one editing session: a document with a drop controller, the
// provider registry, and the widgets the controller drives.
type App struct {
	opts Options

	log     *Logger
	logFile io.Closer
	bus     *event.Bus
	cfg     *config.Config

	ws     *workspace.Workspace
	doc    *workspace.Document
	editor *workspace.BulkEditor

	registry *drop.Registry

	progress   *widget.Progress
	picker     *widget.Picker
	surface    *surface
	controller *drop.Controller

	cfgSub     *notify.Subscription
	dropSub    *event.Subscription
	unwatchDoc func()

	mu            sync.Mutex
	host          *lua.Host
	unregPlugins  func()
	pluginsDir    string
	pendingChange []string
	closed        bool
}

// New starts a session for opts.File.
func New(opts Options) (*App, error) {
	if opts.File == "" {
		return nil, ErrNoFile
	}
	a := &App{opts: opts}
	if err := newBootstrapper(a).bootstrap(); err != nil {
		return nil, err
	}
	return a, nil
}

// Drop handles a drop at pos.
func (a *App) Drop(pos engine.ByteOffset, ev *dataxfer.NativeEvent) *drop.Operation {
	return a.controller.OnDrop(pos, ev)
}

// DropText drops plain text at pos.
func (a *App) DropText(pos engine.ByteOffset, text string) *drop.Operation {
	data := dataxfer.NewNativeData()
	data.SetData(dataxfer.MimeTextPlain, text)
	return a.Drop(pos, &dataxfer.NativeEvent{Data: data})
}

// DropFiles drops local files at pos.
func (a *App) DropFiles(pos engine.ByteOffset, paths ...string) *drop.Operation {
	data := dataxfer.NewNativeData()
	for _, p := range paths {
		data.AddFile(p)
	}
	return a.Drop(pos, &dataxfer.NativeEvent{Data: data})
}

// Cancel cancels the running drop or closes the open picker. It
// reports whether there was anything to cancel.
func (a *App) Cancel() bool {
	if a.progress.Cancel() {
		return true
	}
	if err := a.controller.CancelCurrent(); err == nil {
		return true
	}
	return a.controller.DismissPicker()
}

// Document returns the open document.
func (a *App) Document() *workspace.Document { return a.doc }

// Caret returns the caret offset.
func (a *App) Caret() engine.ByteOffset { return a.surface.Caret() }

// SetCaret moves the caret.
func (a *App) SetCaret(pos engine.ByteOffset) { a.surface.SetCaret(pos) }

// Controller returns the drop controller.
func (a *App) Controller() *drop.Controller { return a.controller }

// Registry returns the provider registry.
func (a *App) Registry() *drop.Registry { return a.registry }

// Progress returns the progress indicator.
func (a *App) Progress() *widget.Progress { return a.progress }

// Picker returns the candidate picker.
func (a *App) Picker() *widget.Picker { return a.picker }

// Bus returns the event bus.
func (a *App) Bus() *event.Bus { return a.bus }

// Config returns the settings.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *App) Logger() *Logger { return a.log }

// Save writes the document to disk.
func (a *App) Save() error {
	if err := a.ws.Save(a.doc.URI); err != nil {
		return NewOperationError("save", a.doc.URI.String(), err)
	}
	a.log.Info("saved %s", a.doc.URI)
	return nil
}

// Undo reverts the last change to the document.
func (a *App) Undo() error {
	if err := a.surface.Undo(); err != nil {
		return NewOperationError("undo", a.doc.URI.String(), err)
	}
	return nil
}

// Insert types text at the caret.
func (a *App) Insert(text string) error {
	pos := a.surface.Caret()
	end, err := a.doc.Engine.Insert(pos, text)
	if err != nil {
		return NewOperationError("insert", a.doc.URI.String(), err)
	}
	a.surface.SetCaret(end)
	return nil
}

// Delete removes the text between start and end and leaves the caret
// at start.
func (a *App) Delete(start, end engine.ByteOffset) error {
	if start >= end {
		return nil
	}
	if _, err := a.doc.Engine.Replace(start, end, ""); err != nil {
		return NewOperationError("delete", a.doc.URI.String(), err)
	}
	a.surface.SetCaret(start)
	return nil
}

// Close stops the session. It is safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	return newBootstrapper(a).shutdown(ctx)
}

// dropSettings maps the configuration onto the controller's settings.
func (a *App) dropSettings() drop.Settings {
	s := a.cfg.DropSettings()
	return drop.Settings{Enabled: s.Enabled, ShowDropSelector: s.ShowDropSelector}
}

// applySettings pushes the current settings into the components that
// cache them.
func (a *App) applySettings() {
	s := a.cfg.DropSettings()
	a.registry.SetOrder(s.ProviderOrder)
	a.registry.SetDisabled(s.DisabledProviders)
	a.progress.SetDelay(s.ProgressDelay)
	a.log.SetLevel(ParseLogLevel(a.cfg.LogLevel()))
}

// onConfigChange collects the keys changed by a reload and applies them
// once the reload is complete. Runtime overrides apply immediately.
func (a *App) onConfigChange(ch notify.Change) {
	switch ch.Type {
	case notify.ChangeReload:
		a.mu.Lock()
		changed := a.pendingChange
		a.pendingChange = nil
		a.mu.Unlock()
		a.settingsChanged(changed)
		a.publish(events.TopicConfigReloaded, events.ConfigReloaded{Path: ch.Source, Changed: changed})
	default:
		if ch.Source == "override" {
			a.settingsChanged([]string{ch.Path})
			return
		}
		a.mu.Lock()
		a.pendingChange = append(a.pendingChange, ch.Path)
		a.mu.Unlock()
	}
}

func (a *App) settingsChanged(keys []string) {
	if len(keys) == 0 {
		return
	}
	a.applySettings()
	for _, k := range keys {
		if k == config.KeyPluginsDir {
			if err := a.reloadPlugins(); err != nil {
				a.log.Warn("reload plugins: %v", err)
			}
			break
		}
	}
	a.log.Debug("settings changed: %v", keys)
}

func (a *App) onConfigError(err error) {
	a.log.Warn("config reload failed, keeping previous settings: %v", err)
	a.publish(events.TopicConfigReloaded, events.ConfigReloaded{Path: a.cfg.Path(), Err: err})
}

// reloadPlugins replaces the Lua host with one that loaded the current
// plugins.dir. Providers of the old host are unregistered first.
func (a *App) reloadPlugins() error {
	dir := a.cfg.String(config.KeyPluginsDir)

	a.mu.Lock()
	if a.closed || (a.host != nil && dir == a.pluginsDir) {
		a.mu.Unlock()
		return nil
	}
	old, unreg := a.host, a.unregPlugins
	a.host, a.unregPlugins, a.pluginsDir = nil, nil, dir
	a.mu.Unlock()

	if unreg != nil {
		unreg()
	}
	if old != nil {
		_ = old.Close()
	}

	host := lua.NewHost(lua.WithLogger(a.log.WithComponent("lua")))
	loadErr := host.LoadDir(dir)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		_ = host.Close()
		return nil
	}
	a.host = host
	a.unregPlugins = host.Register(a.registry)
	a.mu.Unlock()

	if n := len(host.Providers()); n > 0 {
		a.log.Info("loaded %d plugin provider(s) from %s", n, dir)
	}
	return loadErr
}

func (a *App) publish(t topic.Topic, payload any) {
	if err := a.bus.Publish(context.Background(), event.NewEvent(t, payload, "app")); err != nil {
		a.log.Debug("publish %s: %v", t, err)
	}
}

func (a *App) changed() {
	if a.opts.OnChange != nil {
		a.opts.OnChange()
	}
}

// logDropEvent mirrors drop events into the log.
func (a *App) logDropEvent(_ context.Context, ev event.Event) error {
	log := a.log.WithComponent("drop")
	switch p := ev.Payload.(type) {
	case events.DropStarted:
		log.Debug("op %d started at %d in %s (%v)", p.OperationID, p.Offset, p.URI, p.MimeTypes)
	case events.DropResolved:
		log.Debug("op %d resolved %d candidate(s) from %v", p.OperationID, p.Candidates, p.Providers)
	case events.DropApplied:
		log.Info("op %d applied %q from %s (%d/%d) tx=%s", p.OperationID, p.Label, p.ProviderID, p.Index+1, p.Candidates, p.TxID)
	case events.DropCanceled:
		log.Debug("op %d canceled: %s", p.OperationID, p.Reason)
	case events.DropFailed:
		log.Warn("op %d failed in %s: %v", p.OperationID, p.ProviderID, p.Err)
	default:
		return fmt.Errorf("unexpected payload %T on %s", ev.Payload, ev.Topic)
	}
	return nil
}
